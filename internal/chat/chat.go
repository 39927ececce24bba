package chat

import (
	"context"
	"time"

	"github.com/ledgerchat/ledgerchat/internal/dbquery"
)

// ChatMessage is one entry in a session log. SQLQuery and SQLResult are set
// only on assistant replies that ran a database query.
type ChatMessage struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	SQLQuery  string          `json:"sql_query,omitempty"`
	SQLResult *dbquery.Result `json:"sql_result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SessionInfo summarizes a session for the listing endpoint.
type SessionInfo struct {
	ID           string `json:"id"`
	MessageCount int    `json:"message_count"`
	Preview      string `json:"preview,omitempty"`
}

var ErrSessionNotFound = sessionNotFoundError{}

type sessionNotFoundError struct{}

func (sessionNotFoundError) Error() string { return "session not found" }

// SessionStore persists per-session message logs. Append writes all given
// messages as one atomic unit, preserving their order.
type SessionStore interface {
	Append(ctx context.Context, sessionID string, messages ...ChatMessage) error
	Messages(ctx context.Context, sessionID string) ([]ChatMessage, error)
	List(ctx context.Context) ([]SessionInfo, error)
}
