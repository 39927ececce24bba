package dbquery

// ErrorKind classifies why a query failed. It is part of the result contract
// and is stable for clients to branch on.
type ErrorKind string

const (
	ErrorTimeout       ErrorKind = "timeout"
	ErrorPoolExhausted ErrorKind = "pool_exhausted"
	ErrorExecution     ErrorKind = "execution"
)

// Result is the outcome of one statement execution. It is the JSON shape
// returned by the query endpoint and embedded in chat replies. Data holds one
// map per row, keyed by column name, with values already reduced to the
// JSON-safe subset.
type Result struct {
	Success   bool             `json:"success"`
	Query     string           `json:"query"`
	Columns   []string         `json:"columns,omitempty"`
	Data      []map[string]any `json:"data,omitempty"`
	RowCount  int              `json:"row_count"`
	Error     string           `json:"error,omitempty"`
	ErrorKind ErrorKind        `json:"error_kind,omitempty"`
}
