package schemaindex

import (
	"context"
	"fmt"
)

// Retriever finds the schemas most relevant to a question: embed the
// question, cosine-search the store, keep the top K. The store's ordering is
// passed through untouched.
type Retriever struct {
	embedder Embedder
	store    *Store
	topK     int
}

func NewRetriever(embedder Embedder, store *Store, topK int) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

func (r *Retriever) Retrieve(ctx context.Context, question string) ([]SchemaDocument, error) {
	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	scored, err := r.store.Search(ctx, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search schemas: %w", err)
	}
	docs := make([]SchemaDocument, len(scored))
	for i, s := range scored {
		docs[i] = s.SchemaDocument
	}
	return docs, nil
}
