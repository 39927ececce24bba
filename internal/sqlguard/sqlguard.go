package sqlguard

import (
	"fmt"
	"strconv"
	"strings"
)

// denylist holds the write and procedural keywords that are never allowed in
// user-facing SQL. Matching is substring-of-token over the raw query, comments
// and string literals included, so identifiers that merely contain a keyword
// (update_count, delete_flag) and commented-out writes are rejected too. That
// over-rejection is deliberate: the validator fails closed.
var denylist = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "TRUNCATE",
	"EXEC", "EXECUTE", "CALL", "MERGE", "UPSERT",
}

// Kind classifies the leading keyword of an accepted statement.
type Kind string

const (
	KindSelect Kind = "select"
	KindWith   Kind = "with"
)

// Statement is a single validated read-only statement. Text has comments
// removed and carries a LIMIT clause, either the author's or an appended one.
type Statement struct {
	Text string
	Kind Kind
}

// RejectionError reports why a query was refused. The reason is safe to show
// to end users.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "query rejected: " + e.Reason
}

// Validator screens SQL before it reaches the database. It is purely lexical:
// no parsing, no catalog lookups.
type Validator struct {
	maxResultRows int
}

func NewValidator(maxResultRows int) *Validator {
	return &Validator{maxResultRows: maxResultRows}
}

// Validate scans the raw query for denylisted keywords, then splits it on
// top-level semicolons and checks every statement. The denylist runs before
// comment stripping: a forbidden keyword rejects the query wherever it
// appears. A single offending statement rejects the whole query. Accepted
// statements without a LIMIT token get " LIMIT <maxResultRows>" appended;
// the appended text is not re-validated.
func (v *Validator) Validate(query string) ([]Statement, error) {
	for _, token := range wordTokens(query) {
		for _, banned := range denylist {
			if strings.Contains(token, banned) {
				return nil, &RejectionError{Reason: fmt.Sprintf("forbidden keyword %s", banned)}
			}
		}
	}
	parts := splitStatements(query)
	statements := make([]Statement, 0, len(parts))
	for _, part := range parts {
		text := strings.TrimSpace(stripComments(part))
		tokens := wordTokens(text)
		if len(tokens) == 0 {
			continue
		}
		var kind Kind
		switch tokens[0] {
		case "SELECT":
			kind = KindSelect
		case "WITH":
			kind = KindWith
		default:
			return nil, &RejectionError{Reason: "only SELECT statements are allowed"}
		}
		if !hasToken(tokens, "LIMIT") {
			text += " LIMIT " + strconv.Itoa(v.maxResultRows)
		}
		statements = append(statements, Statement{Text: text, Kind: kind})
	}
	if len(statements) == 0 {
		return nil, &RejectionError{Reason: "empty query"}
	}
	return statements, nil
}

// splitStatements breaks the query on semicolons that sit outside string
// literals, quoted identifiers, and comments. Comment and literal text is
// carried through untouched.
func splitStatements(query string) []string {
	var parts []string
	var b strings.Builder
	i := 0
	for i < len(query) {
		c := query[i]
		switch {
		case c == '\'' || c == '"':
			quote := c
			b.WriteByte(c)
			i++
			for i < len(query) {
				b.WriteByte(query[i])
				if query[i] == quote {
					i++
					break
				}
				i++
			}
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			for i < len(query) && query[i] != '\n' {
				b.WriteByte(query[i])
				i++
			}
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			b.WriteString("/*")
			i += 2
			for i < len(query) {
				if query[i] == '*' && i+1 < len(query) && query[i+1] == '/' {
					b.WriteString("*/")
					i += 2
					break
				}
				b.WriteByte(query[i])
				i++
			}
		case c == ';':
			parts = append(parts, b.String())
			b.Reset()
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

// stripComments replaces line and block comments with a single space so that
// comment text never survives into the executed statement and an appended
// LIMIT cannot be swallowed by a trailing line comment.
func stripComments(statement string) string {
	var b strings.Builder
	i := 0
	for i < len(statement) {
		c := statement[i]
		switch {
		case c == '\'' || c == '"':
			quote := c
			b.WriteByte(c)
			i++
			for i < len(statement) {
				b.WriteByte(statement[i])
				if statement[i] == quote {
					i++
					break
				}
				i++
			}
		case c == '-' && i+1 < len(statement) && statement[i+1] == '-':
			for i < len(statement) && statement[i] != '\n' {
				i++
			}
			b.WriteByte(' ')
		case c == '/' && i+1 < len(statement) && statement[i+1] == '*':
			i += 2
			for i < len(statement) {
				if statement[i] == '*' && i+1 < len(statement) && statement[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// wordTokens returns the uppercased word tokens of a piece of SQL. A word is
// a run of letters, digits, underscores, or dollar signs; comment and string
// literal contents count as words, which keeps the denylist fail-closed.
func wordTokens(statement string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, strings.ToUpper(word.String()))
			word.Reset()
		}
	}
	for i := 0; i < len(statement); i++ {
		c := statement[i]
		if c == '_' || c == '$' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			word.WriteByte(c)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func hasToken(tokens []string, want string) bool {
	for _, token := range tokens {
		if token == want {
			return true
		}
	}
	return false
}
