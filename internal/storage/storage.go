package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/joss/aegis/internal/domain"
)

type Storage struct {
	db   *sql.DB
	path string
}

func New(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "aegis.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Storage{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		directory TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		tool_name TEXT NOT NULL DEFAULT '',
		tool_ok INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);

	CREATE TABLE IF NOT EXISTS usage (
		session_id TEXT PRIMARY KEY,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Storage) Path() string { return s.path }

func (s *Storage) Close() error {
	return s.db.Close()
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, sess *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, directory, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, sess.ID, sess.Directory, sess.Title, sess.CreatedAt, sess.UpdatedAt)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var sess domain.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, directory, title, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Directory, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewNotFoundError("session", id)
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Storage) ListSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, directory, title, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		var sess domain.Session
		if err := rows.Scan(&sess.ID, &sess.Directory, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

func (s *Storage) UpdateSession(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?
	`, sess.Title, sess.UpdatedAt, sess.ID)
	return err
}

func (s *Storage) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// Message operations

func (s *Storage) CreateMessage(ctx context.Context, msg *domain.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, tool_name, tool_ok, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.SessionID, msg.Role, msg.Content, msg.ToolName, msg.ToolOK, msg.CreatedAt)
	return err
}

// GetMessages returns a session's messages oldest first. Ties on the
// timestamp are broken by id, which is a ulid and therefore time-ordered.
func (s *Storage) GetMessages(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, tool_name, tool_ok, created_at
		FROM messages WHERE session_id = ? ORDER BY created_at ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.ToolName, &msg.ToolOK, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

func (s *Storage) DeleteMessage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	return err
}

// Usage operations

// AddUsage accumulates token counts into the session's usage row.
func (s *Storage) AddUsage(ctx context.Context, u *domain.Usage) error {
	u.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage (session_id, input_tokens, output_tokens, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			input_tokens = input_tokens + excluded.input_tokens,
			output_tokens = output_tokens + excluded.output_tokens,
			updated_at = excluded.updated_at
	`, u.SessionID, u.InputTokens, u.OutputTokens, u.UpdatedAt)
	return err
}

func (s *Storage) GetUsage(ctx context.Context, sessionID string) (*domain.Usage, error) {
	var u domain.Usage
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, input_tokens, output_tokens, updated_at
		FROM usage WHERE session_id = ?
	`, sessionID).Scan(&u.SessionID, &u.InputTokens, &u.OutputTokens, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
