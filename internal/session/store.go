// Package session persists conversation history in SQLite: one row per
// session and one row per question/answer turn.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrSessionNotFound is returned when a turn references an unknown session.
var ErrSessionNotFound = errors.New("session: not found")

// Turn is a single question/answer exchange within a session.
type Turn struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	UserQuery      string    `json:"user_query"`
	SystemResponse string    `json:"system_response"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is a SQLite-backed session store.
type Store struct {
	db *sql.DB
}

// Open creates or opens the session database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("session: pragma failed: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			user_query TEXT NOT NULL,
			system_response TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_conversations_session
			ON conversations(session_id, created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("session: schema creation failed: %w", err)
	}
	return nil
}

// Create inserts a new session and returns its id.
func (s *Store) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at) VALUES (?, ?)",
		id, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return id, nil
}

// AppendTurn records one question/answer exchange for a session.
func (s *Store) AppendTurn(ctx context.Context, sessionID, userQuery, systemResponse string) (Turn, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM sessions WHERE id = ?)", sessionID).Scan(&exists)
	if err != nil {
		return Turn{}, fmt.Errorf("session: lookup: %w", err)
	}
	if !exists {
		return Turn{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	turn := Turn{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		UserQuery:      userQuery,
		SystemResponse: systemResponse,
		CreatedAt:      time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, session_id, user_query, system_response, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		turn.ID, turn.SessionID, turn.UserQuery, turn.SystemResponse, turn.CreatedAt)
	if err != nil {
		return Turn{}, fmt.Errorf("session: append turn: %w", err)
	}
	return turn, nil
}

// History returns all turns of a session in chronological order.
func (s *Store) History(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, user_query, system_response, created_at
		 FROM conversations WHERE session_id = ?
		 ORDER BY created_at ASC, rowid ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session: history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.UserQuery, &t.SystemResponse, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("session: scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
