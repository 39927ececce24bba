package schemaindex

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func storeDoc(t *testing.T, store *Store, table string, embedding []float32) {
	t.Helper()
	err := store.Upsert(context.Background(), SchemaDocument{
		ID:           uuid.NewString(),
		TableName:    table,
		DDLStatement: "CREATE TABLE " + table + " (id INTEGER)",
		Description:  table + " description",
		Embedding:    embedding,
	})
	if err != nil {
		t.Fatalf("Upsert(%s) error = %v", table, err)
	}
}

func TestSearchOrdersByCosineSimilarity(t *testing.T) {
	store := newTestStore(t)
	storeDoc(t, store, "accounts", []float32{1, 0, 0})
	storeDoc(t, store, "loans", []float32{0, 1, 0})
	storeDoc(t, store, "branches", []float32{0, 0, 1})

	results, err := store.Search(context.Background(), []float32{0.9, 0.1, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d", len(results))
	}
	if results[0].TableName != "accounts" {
		t.Fatalf("results[0] = %q", results[0].TableName)
	}
	if results[1].TableName != "loans" {
		t.Fatalf("results[1] = %q", results[1].TableName)
	}
	if results[0].Score <= results[1].Score {
		t.Fatalf("scores not descending: %f, %f", results[0].Score, results[1].Score)
	}
}

func TestSearchTopKLargerThanCorpus(t *testing.T) {
	store := newTestStore(t)
	storeDoc(t, store, "accounts", []float32{1, 0})

	results, err := store.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d", len(results))
	}
}

func TestSearchZeroVectorReturnsNothing(t *testing.T) {
	store := newTestStore(t)
	storeDoc(t, store, "accounts", []float32{1, 0})

	results, err := store.Search(context.Background(), []float32{0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results != nil {
		t.Fatalf("results = %v, want nil", results)
	}
}

func TestUpsertReplacesByTableName(t *testing.T) {
	store := newTestStore(t)
	storeDoc(t, store, "accounts", []float32{1, 0})

	err := store.Upsert(context.Background(), SchemaDocument{
		ID:           uuid.NewString(),
		TableName:    "accounts",
		DDLStatement: "CREATE TABLE accounts (id INTEGER, balance NUMERIC)",
		Embedding:    []float32{0, 1},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("Count() = %d, want 1", count)
	}

	docs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if docs[0].DDLStatement != "CREATE TABLE accounts (id INTEGER, balance NUMERIC)" {
		t.Fatalf("DDLStatement = %q", docs[0].DDLStatement)
	}
	if docs[0].Embedding[0] != 0 || docs[0].Embedding[1] != 1 {
		t.Fatalf("Embedding = %v", docs[0].Embedding)
	}
}

func TestListOrdersByTableName(t *testing.T) {
	store := newTestStore(t)
	storeDoc(t, store, "loans", []float32{1})
	storeDoc(t, store, "accounts", []float32{1})

	docs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 2 || docs[0].TableName != "accounts" || docs[1].TableName != "loans" {
		t.Fatalf("docs = %v", docs)
	}
}

func TestUpsertRequiresEmbedding(t *testing.T) {
	store := newTestStore(t)
	err := store.Upsert(context.Background(), SchemaDocument{TableName: "accounts"})
	if err == nil {
		t.Fatal("expected error for missing embedding")
	}
}
