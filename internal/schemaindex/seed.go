package schemaindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Corpus returns the built-in banking schema documents. Each entry is the
// CREATE TABLE statement that gets embedded, plus a short description used in
// generation prompts and introspection responses.
func Corpus() []SchemaDocument {
	return []SchemaDocument{
		{
			TableName:   "branches",
			Description: "Bank branch locations and contact details",
			DDLStatement: `CREATE TABLE branches (
	branch_id SERIAL PRIMARY KEY,
	branch_name VARCHAR(100) NOT NULL,
	address VARCHAR(255),
	city VARCHAR(100),
	state VARCHAR(50),
	zip_code VARCHAR(10),
	phone VARCHAR(20)
)`,
		},
		{
			TableName:   "customers",
			Description: "Customer master records with identity and contact data",
			DDLStatement: `CREATE TABLE customers (
	customer_id SERIAL PRIMARY KEY,
	first_name VARCHAR(50) NOT NULL,
	last_name VARCHAR(50) NOT NULL,
	email VARCHAR(100) UNIQUE,
	phone VARCHAR(20),
	date_of_birth DATE,
	address VARCHAR(255),
	city VARCHAR(100),
	state VARCHAR(50),
	zip_code VARCHAR(10),
	branch_id INTEGER REFERENCES branches(branch_id),
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
		},
		{
			TableName:   "accounts",
			Description: "Checking and savings accounts with balances and status",
			DDLStatement: `CREATE TABLE accounts (
	account_id SERIAL PRIMARY KEY,
	customer_id INTEGER NOT NULL REFERENCES customers(customer_id),
	account_type VARCHAR(20) NOT NULL CHECK (account_type IN ('checking', 'savings')),
	balance NUMERIC(15, 2) NOT NULL DEFAULT 0.00,
	status VARCHAR(20) NOT NULL DEFAULT 'active',
	opened_on DATE NOT NULL,
	branch_id INTEGER REFERENCES branches(branch_id)
)`,
		},
		{
			TableName:   "transactions",
			Description: "Account-level debit and credit transaction history",
			DDLStatement: `CREATE TABLE transactions (
	transaction_id SERIAL PRIMARY KEY,
	account_id INTEGER NOT NULL REFERENCES accounts(account_id),
	transaction_type VARCHAR(20) NOT NULL CHECK (transaction_type IN ('deposit', 'withdrawal', 'transfer', 'payment')),
	amount NUMERIC(15, 2) NOT NULL,
	description VARCHAR(255),
	transaction_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		},
		{
			TableName:   "credit_cards",
			Description: "Issued credit cards with limits and balances",
			DDLStatement: `CREATE TABLE credit_cards (
	card_id SERIAL PRIMARY KEY,
	customer_id INTEGER NOT NULL REFERENCES customers(customer_id),
	card_number VARCHAR(20) UNIQUE NOT NULL,
	card_type VARCHAR(20) NOT NULL,
	credit_limit NUMERIC(15, 2) NOT NULL,
	current_balance NUMERIC(15, 2) NOT NULL DEFAULT 0.00,
	issued_date DATE NOT NULL,
	expiry_date DATE NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'active'
)`,
		},
		{
			TableName:   "credit_card_transactions",
			Description: "Purchase history per credit card",
			DDLStatement: `CREATE TABLE credit_card_transactions (
	cc_transaction_id SERIAL PRIMARY KEY,
	card_id INTEGER NOT NULL REFERENCES credit_cards(card_id),
	merchant VARCHAR(100),
	category VARCHAR(50),
	amount NUMERIC(15, 2) NOT NULL,
	transaction_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		},
		{
			TableName:   "loans",
			Description: "Loan contracts with principal, rate, and term",
			DDLStatement: `CREATE TABLE loans (
	loan_id SERIAL PRIMARY KEY,
	customer_id INTEGER NOT NULL REFERENCES customers(customer_id),
	loan_type VARCHAR(30) NOT NULL,
	principal NUMERIC(15, 2) NOT NULL,
	interest_rate NUMERIC(5, 2) NOT NULL,
	term_months INTEGER NOT NULL,
	start_date DATE NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'active'
)`,
		},
		{
			TableName:   "loan_payments",
			Description: "Scheduled and completed payments against loans",
			DDLStatement: `CREATE TABLE loan_payments (
	payment_id SERIAL PRIMARY KEY,
	loan_id INTEGER NOT NULL REFERENCES loans(loan_id),
	amount NUMERIC(15, 2) NOT NULL,
	principal_portion NUMERIC(15, 2),
	interest_portion NUMERIC(15, 2),
	payment_date DATE NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'completed'
)`,
		},
	}
}

// Seed embeds and upserts the given documents with bounded concurrency.
// Embeddings run in parallel; upserts funnel through the store's single
// SQLite connection.
func Seed(ctx context.Context, store *Store, embedder Embedder, docs []SchemaDocument, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 4
	}
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for _, doc := range docs {
		group.Go(func() error {
			text := doc.DDLStatement
			if doc.Description != "" {
				text = doc.Description + "\n" + text
			}
			vector, err := embedder.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("embed schema %s: %w", doc.TableName, err)
			}
			doc.Embedding = vector
			if doc.ID == "" {
				doc.ID = uuid.NewString()
			}
			return store.Upsert(ctx, doc)
		})
	}
	return group.Wait()
}
