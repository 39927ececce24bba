package schemaindex

import (
	"context"
	"time"
)

// SchemaDocument is one table schema held in the vector index: the DDL text
// that gets embedded plus a short human description.
type SchemaDocument struct {
	ID           string    `json:"id"`
	TableName    string    `json:"table_name"`
	DDLStatement string    `json:"ddl_statement"`
	Description  string    `json:"description,omitempty"`
	Embedding    []float32 `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScoredDocument is a SchemaDocument with its cosine similarity to a query.
type ScoredDocument struct {
	SchemaDocument
	Score float32 `json:"score"`
}

// Embedder returns an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
