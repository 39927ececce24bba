package dbquery

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newTestInspector(t *testing.T) (*Inspector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewInspector(db, "postgres"), mock
}

func TestListTablesReturnsCountsAndDescriptions(t *testing.T) {
	inspector, mock := newTestInspector(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT table_name FROM information_schema.tables")).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("accounts").AddRow("customers"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "accounts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "customers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	tables, err := inspector.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("len(tables) = %d", len(tables))
	}
	if tables[0].Name != "accounts" || tables[0].RowCount != 12 {
		t.Fatalf("tables[0] = %+v", tables[0])
	}
	if tables[0].Description == "" {
		t.Fatal("expected description for accounts")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet() = %v", err)
	}
}

func TestDescribeTableReturnsColumns(t *testing.T) {
	inspector, mock := newTestInspector(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT column_name, data_type, is_nullable, column_default FROM information_schema.columns")).
		WithArgs("public", "accounts").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default"}).
			AddRow("account_id", "integer", "NO", "nextval('accounts_account_id_seq')").
			AddRow("balance", "numeric", "YES", nil))

	columns, err := inspector.DescribeTable(context.Background(), "accounts")
	if err != nil {
		t.Fatalf("DescribeTable() error = %v", err)
	}
	if len(columns) != 2 {
		t.Fatalf("len(columns) = %d", len(columns))
	}
	if columns[0].Nullable {
		t.Fatal("account_id should not be nullable")
	}
	if columns[0].Default == nil {
		t.Fatal("account_id should carry a default")
	}
	if !columns[1].Nullable || columns[1].Default != nil {
		t.Fatalf("columns[1] = %+v", columns[1])
	}
}

func TestDescribeTableUnknownTable(t *testing.T) {
	inspector, mock := newTestInspector(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT column_name, data_type, is_nullable, column_default FROM information_schema.columns")).
		WithArgs("public", "nope").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default"}))

	_, err := inspector.DescribeTable(context.Background(), "nope")
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("DescribeTable() error = %v, want ErrTableNotFound", err)
	}
}
