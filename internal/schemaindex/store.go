package schemaindex

import (
	"container/heap"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaDDL = `CREATE TABLE IF NOT EXISTS schema_embeddings (
	id TEXT PRIMARY KEY,
	table_name TEXT NOT NULL UNIQUE,
	ddl_statement TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	embedding BLOB NOT NULL,
	created_at TEXT NOT NULL
)`

// Store keeps schema embeddings in SQLite and answers similarity queries by
// brute-force cosine scan. The corpus is one row per table, so a scan is
// cheap; there is no ANN index and none is planned.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the schema index database in dataDir and ensures
// the table exists. Pass ":memory:" for an in-memory database (tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "schemas.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening schema index: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging schema index: %w", err)
	}

	// Single connection avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema_embeddings table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert stores a document, replacing any previous embedding for the same
// table name. Re-embedding a table is how schema changes get picked up.
func (s *Store) Upsert(ctx context.Context, doc SchemaDocument) error {
	if doc.TableName == "" {
		return fmt.Errorf("table name is required")
	}
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("embedding is required")
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schema_embeddings (id, table_name, ddl_statement, description, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(table_name) DO UPDATE SET
			ddl_statement = excluded.ddl_statement,
			description = excluded.description,
			embedding = excluded.embedding,
			created_at = excluded.created_at`,
		doc.ID, doc.TableName, doc.DDLStatement, doc.Description,
		encodeFloat32s(doc.Embedding), createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting schema %s: %w", doc.TableName, err)
	}
	return nil
}

// Search returns the topK documents most similar to the query vector, best
// first. Ties and ordering come straight from the cosine scores.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]ScoredDocument, error) {
	if topK <= 0 {
		return nil, nil
	}
	queryNorm := norm(vector)
	if queryNorm == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, table_name, ddl_statement, description, embedding, created_at
		FROM schema_embeddings`)
	if err != nil {
		return nil, fmt.Errorf("querying schema embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	h := &scoredHeap{}
	heap.Init(h)

	for rows.Next() {
		var (
			doc       SchemaDocument
			blob      []byte
			createdAt string
		)
		if err := rows.Scan(&doc.ID, &doc.TableName, &doc.DDLStatement, &doc.Description, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		embedding, err := decodeFloat32s(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", doc.TableName, err)
		}
		doc.Embedding = embedding
		if doc.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at for %s: %w", doc.TableName, err)
		}

		scored := ScoredDocument{SchemaDocument: doc, Score: cosine(vector, embedding, queryNorm)}
		if h.Len() < topK {
			heap.Push(h, scored)
		} else if scored.Score > (*h)[0].Score {
			(*h)[0] = scored
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schema rows: %w", err)
	}

	results := make([]ScoredDocument, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(ScoredDocument)
	}
	return results, nil
}

// List returns all stored documents ordered by table name.
func (s *Store) List(ctx context.Context) ([]SchemaDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, table_name, ddl_statement, description, embedding, created_at
		FROM schema_embeddings ORDER BY table_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing schema embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []SchemaDocument
	for rows.Next() {
		var (
			doc       SchemaDocument
			blob      []byte
			createdAt string
		)
		if err := rows.Scan(&doc.ID, &doc.TableName, &doc.DDLStatement, &doc.Description, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		if doc.Embedding, err = decodeFloat32s(blob); err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", doc.TableName, err)
		}
		if doc.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at for %s: %w", doc.TableName, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count returns the number of stored schema documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_embeddings").Scan(&count)
	return count, err
}

func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func norm(v []float32) float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return float32(math.Sqrt(sum))
}

// cosine computes dot(a,b) / (aNorm * |b|) with aNorm precomputed.
func cosine(a, b []float32, aNorm float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, bNormSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bNormSq += float64(b[i]) * float64(b[i])
	}
	bNorm := math.Sqrt(bNormSq)
	if bNorm == 0 {
		return 0
	}
	return float32(dot / (float64(aNorm) * bNorm))
}

// scoredHeap is a min-heap of ScoredDocument ordered by Score, used to track
// top-K candidates during the scan.
type scoredHeap []ScoredDocument

func (h scoredHeap) Len() int           { return len(h) }
func (h scoredHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h scoredHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *scoredHeap) Push(x any)        { *h = append(*h, x.(ScoredDocument)) }
func (h *scoredHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
