package chat

import "strings"

// Path is the conversation route chosen for a message.
type Path string

const (
	PathDB      Path = "db"
	PathGeneral Path = "general"
)

// dbKeywords is the banking and query vocabulary that routes a message to the
// database path. Matching is plain substring on the lowercased message, so
// "accounts" matches "account"; generic verbs like "get" and "show" match
// aggressively on purpose.
var dbKeywords = []string{
	"show", "select", "query", "database", "table", "customer", "account",
	"transaction", "loan", "payment", "branch", "how many", "count",
	"list", "find", "search", "get", "retrieve", "display", "total",
	"average", "sum", "max", "min", "top", "bottom", "recent",
	"credit", "card", "balance", "amount",
}

// Classify routes a message. Any keyword hit selects the database path;
// everything else gets a general conversational answer.
func Classify(message string) Path {
	lowered := strings.ToLower(message)
	for _, keyword := range dbKeywords {
		if strings.Contains(lowered, keyword) {
			return PathDB
		}
	}
	return PathGeneral
}
