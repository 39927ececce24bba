package dbquery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrTableNotFound = errors.New("table not found")

type TableInfo struct {
	Name        string `json:"name"`
	RowCount    int64  `json:"row_count"`
	Description string `json:"description,omitempty"`
}

type ColumnInfo struct {
	Name     string  `json:"name"`
	DataType string  `json:"data_type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
}

// tableDescriptions annotates the known banking tables for the introspection
// endpoint. Unknown tables simply come back without a description.
var tableDescriptions = map[string]string{
	"branches":                 "Bank branch locations and contact details",
	"customers":                "Customer master records with identity and contact data",
	"accounts":                 "Checking and savings accounts with balances and status",
	"transactions":             "Account-level debit and credit transaction history",
	"credit_cards":             "Issued credit cards with limits and balances",
	"credit_card_transactions": "Purchase history per credit card",
	"loans":                    "Loan contracts with principal, rate, and term",
	"loan_payments":            "Scheduled and completed payments against loans",
}

// Inspector reads table and column metadata from information_schema, which
// both supported drivers expose.
type Inspector struct {
	db     *sql.DB
	schema string
}

func NewInspector(db *sql.DB, driver string) *Inspector {
	schema := "public"
	if driver == "duckdb" {
		schema = "main"
	}
	return &Inspector{db: db, schema: schema}
}

// ListTables returns every base table in the schema with its current row
// count. Counts are exact, one COUNT(*) per table.
func (i *Inspector) ListTables(ctx context.Context) ([]TableInfo, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name`,
		i.schema,
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		var count int64
		countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(name))
		if err := i.db.QueryRowContext(ctx, countSQL).Scan(&count); err != nil {
			return nil, fmt.Errorf("count rows of %q: %w", name, err)
		}
		tables = append(tables, TableInfo{
			Name:        name,
			RowCount:    count,
			Description: tableDescriptions[name],
		})
	}
	return tables, nil
}

// DescribeTable returns column metadata in ordinal position order.
func (i *Inspector) DescribeTable(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT column_name, data_type, is_nullable, column_default FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`,
		i.schema, table,
	)
	if err != nil {
		return nil, fmt.Errorf("describe table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			column       ColumnInfo
			nullable     string
			defaultValue sql.NullString
		)
		if err := rows.Scan(&column.Name, &column.DataType, &nullable, &defaultValue); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		column.Nullable = strings.EqualFold(nullable, "YES")
		if defaultValue.Valid {
			column.Default = &defaultValue.String
		}
		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return columns, nil
}

// Ping reports whether the database connection is alive.
func (i *Inspector) Ping(ctx context.Context) error {
	return i.db.PingContext(ctx)
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
