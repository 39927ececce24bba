package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ledgerchat/ledgerchat/internal/dbquery"
)

const sessionsDDL = `CREATE TABLE IF NOT EXISTS chat_messages (
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	sql_query TEXT NOT NULL DEFAULT '',
	sql_result TEXT,
	created_at TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
)`

// SQLiteStore persists session logs in a local SQLite file, one row per
// message, ordered by a per-session sequence number.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the session database in dataDir. Pass
// ":memory:" for an in-memory database.
func OpenSQLiteStore(dataDir string) (*SQLiteStore, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "sessions.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging session store: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec(sessionsDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating chat_messages table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, sessionID string, messages ...ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning append transaction: %w", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE session_id = ?", sessionID,
	).Scan(&next); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("reading next sequence: %w", err)
	}

	for i, message := range messages {
		createdAt := message.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		var resultJSON sql.NullString
		if message.SQLResult != nil {
			encoded, err := json.Marshal(message.SQLResult)
			if err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("encoding sql result: %w", err)
			}
			resultJSON = sql.NullString{String: string(encoded), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chat_messages (session_id, seq, role, content, sql_query, sql_result, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sessionID, next+i, message.Role, message.Content, message.SQLQuery,
			resultJSON, createdAt.Format(time.RFC3339),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Messages(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, sql_query, sql_result, created_at
		FROM chat_messages WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []ChatMessage
	for rows.Next() {
		var (
			message    ChatMessage
			resultJSON sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&message.Role, &message.Content, &message.SQLQuery, &resultJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if resultJSON.Valid {
			var result dbquery.Result
			if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
				return nil, fmt.Errorf("decoding sql result: %w", err)
			}
			message.SQLResult = &result
		}
		if message.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	if len(messages) == 0 {
		return nil, ErrSessionNotFound
	}
	return messages, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, COUNT(*) AS message_count, MIN(seq)
		FROM chat_messages GROUP BY session_id ORDER BY MIN(created_at) ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []SessionInfo
	for rows.Next() {
		var (
			info     SessionInfo
			firstSeq int
		)
		if err := rows.Scan(&info.ID, &info.MessageCount, &firstSeq); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	for i := range infos {
		var preview string
		err := s.db.QueryRowContext(ctx, `
			SELECT content FROM chat_messages
			WHERE session_id = ? AND role = ? ORDER BY seq ASC LIMIT 1`,
			infos[i].ID, RoleUser,
		).Scan(&preview)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("reading preview: %w", err)
		}
		if len(preview) > previewLimit {
			preview = preview[:previewLimit]
		}
		infos[i].Preview = preview
	}
	return infos, nil
}
