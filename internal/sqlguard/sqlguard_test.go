package sqlguard

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAcceptsSelect(t *testing.T) {
	v := NewValidator(1000)
	statements, err := v.Validate("SELECT COUNT(*) FROM customers")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(statements) != 1 {
		t.Fatalf("len(statements) = %d", len(statements))
	}
	if statements[0].Kind != KindSelect {
		t.Fatalf("Kind = %q", statements[0].Kind)
	}
	if statements[0].Text != "SELECT COUNT(*) FROM customers LIMIT 1000" {
		t.Fatalf("Text = %q", statements[0].Text)
	}
}

func TestValidateAcceptsWith(t *testing.T) {
	v := NewValidator(1000)
	statements, err := v.Validate("WITH big AS (SELECT * FROM accounts WHERE balance > 1000) SELECT COUNT(*) FROM big LIMIT 5")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if statements[0].Kind != KindWith {
		t.Fatalf("Kind = %q", statements[0].Kind)
	}
}

func TestValidateRejectsWriteKeywords(t *testing.T) {
	v := NewValidator(1000)
	queries := []string{
		"DELETE FROM loans",
		"delete from loans where id = 1",
		"INSERT INTO accounts VALUES (1)",
		"UPDATE accounts SET balance = 0",
		"DROP TABLE customers",
		"TRUNCATE transactions",
		"EXEC sp_who",
		"CALL refresh()",
		"MERGE INTO accounts USING staging ON true",
	}
	for _, query := range queries {
		_, err := v.Validate(query)
		var rejection *RejectionError
		if !errors.As(err, &rejection) {
			t.Fatalf("Validate(%q) error = %v, want RejectionError", query, err)
		}
	}
}

func TestValidateRejectsKeywordInsideIdentifier(t *testing.T) {
	// Substring matching fails closed: update_count contains UPDATE.
	v := NewValidator(1000)
	_, err := v.Validate("SELECT update_count FROM audit_log")
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("Validate() error = %v, want RejectionError", err)
	}
	if !strings.Contains(rejection.Reason, "UPDATE") {
		t.Fatalf("Reason = %q", rejection.Reason)
	}
}

func TestValidateRejectsKeywordsInComments(t *testing.T) {
	// The denylist scans the raw text, so a commented-out write still rejects.
	v := NewValidator(1000)
	queries := []string{
		"SELECT id FROM accounts -- DROP TABLE accounts",
		"SELECT id /* TRUNCATE everything */ FROM accounts LIMIT 3",
	}
	for _, query := range queries {
		_, err := v.Validate(query)
		var rejection *RejectionError
		if !errors.As(err, &rejection) {
			t.Fatalf("Validate(%q) error = %v, want RejectionError", query, err)
		}
	}
}

func TestValidateStripsCommentsFromAcceptedText(t *testing.T) {
	v := NewValidator(1000)
	statements, err := v.Validate("SELECT id FROM accounts -- newest first")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !strings.HasSuffix(statements[0].Text, "LIMIT 1000") {
		t.Fatalf("Text = %q", statements[0].Text)
	}
	if strings.Contains(statements[0].Text, "newest") {
		t.Fatalf("comment survived into Text = %q", statements[0].Text)
	}
}

func TestValidateRejectsNonSelectLead(t *testing.T) {
	v := NewValidator(1000)
	_, err := v.Validate("SHOW TABLES")
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("Validate() error = %v, want RejectionError", err)
	}
}

func TestValidateKeepsExistingLimit(t *testing.T) {
	v := NewValidator(1000)
	statements, err := v.Validate("SELECT id FROM accounts LIMIT 10")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if statements[0].Text != "SELECT id FROM accounts LIMIT 10" {
		t.Fatalf("Text = %q", statements[0].Text)
	}
}

func TestValidateSplitsOnTopLevelSemicolons(t *testing.T) {
	v := NewValidator(50)
	statements, err := v.Validate("SELECT 1; SELECT 2;")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(statements) != 2 {
		t.Fatalf("len(statements) = %d", len(statements))
	}
	if statements[1].Text != "SELECT 2 LIMIT 50" {
		t.Fatalf("Text = %q", statements[1].Text)
	}

	if _, err := v.Validate("SELECT 1; DELETE FROM loans"); err == nil {
		t.Fatal("expected rejection for trailing write statement")
	}
}

func TestValidateIgnoresSemicolonInStringLiteral(t *testing.T) {
	v := NewValidator(1000)
	statements, err := v.Validate("SELECT ';' AS sep FROM branches LIMIT 1")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(statements) != 1 {
		t.Fatalf("len(statements) = %d", len(statements))
	}
}

func TestValidateRejectsEmptyQuery(t *testing.T) {
	v := NewValidator(1000)
	for _, query := range []string{"", "   ", ";;", "-- just a comment"} {
		_, err := v.Validate(query)
		var rejection *RejectionError
		if !errors.As(err, &rejection) {
			t.Fatalf("Validate(%q) error = %v, want RejectionError", query, err)
		}
	}
}
