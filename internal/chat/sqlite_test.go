package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/ledgerchat/ledgerchat/internal/dbquery"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteStore(:memory:) error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreAppendAndMessages(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	result := &dbquery.Result{Success: true, Query: "SELECT COUNT(*) FROM customers LIMIT 1000", RowCount: 1}
	err := store.Append(ctx, "s1",
		ChatMessage{Role: RoleUser, Content: "how many customers?"},
		ChatMessage{Role: RoleAssistant, Content: "You have 42 customers.", SQLQuery: result.Query, SQLResult: result},
	)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	messages, err := store.Messages(ctx, "s1")
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d", len(messages))
	}
	if messages[0].Role != RoleUser || messages[1].Role != RoleAssistant {
		t.Fatalf("roles = %q, %q", messages[0].Role, messages[1].Role)
	}
	if messages[1].SQLResult == nil || messages[1].SQLResult.RowCount != 1 {
		t.Fatalf("SQLResult = %+v", messages[1].SQLResult)
	}

	// Order survives a second append.
	if err := store.Append(ctx, "s1", ChatMessage{Role: RoleUser, Content: "and loans?"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	messages, err = store.Messages(ctx, "s1")
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 3 || messages[2].Content != "and loans?" {
		t.Fatalf("messages = %+v", messages)
	}
}

func TestSQLiteStoreMessagesUnknownSession(t *testing.T) {
	store := newTestSQLiteStore(t)
	if _, err := store.Messages(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Messages() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSQLiteStoreList(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, "s1",
		ChatMessage{Role: RoleUser, Content: "how many customers?"},
		ChatMessage{Role: RoleAssistant, Content: "42"},
	); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, "s2",
		ChatMessage{Role: RoleUser, Content: "hello"},
		ChatMessage{Role: RoleAssistant, Content: "hi"},
	); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("len(infos) = %d", len(infos))
	}
	byID := map[string]SessionInfo{}
	for _, info := range infos {
		byID[info.ID] = info
	}
	if byID["s1"].MessageCount != 2 || byID["s1"].Preview != "how many customers?" {
		t.Fatalf("s1 = %+v", byID["s1"])
	}
}

func TestMemoryStoreBehavesLikeSQLite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Messages(ctx, "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Messages() error = %v, want ErrSessionNotFound", err)
	}

	if err := store.Append(ctx, "s1",
		ChatMessage{Role: RoleUser, Content: "hi"},
		ChatMessage{Role: RoleAssistant, Content: "hello"},
	); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	messages, err := store.Messages(ctx, "s1")
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d", len(messages))
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 1 || infos[0].MessageCount != 2 || infos[0].Preview != "hi" {
		t.Fatalf("infos = %+v", infos)
	}
}
