// Package transcript keeps an append-only audit log of conversation turns.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by operations on a closed Store
var ErrClosed = errors.New("transcript store is closed")

// Turn is one recorded exchange. The conversation state itself is never
// stored, only what went in and what came out.
type Turn struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Input       string    `json:"input"`
	Reply       string    `json:"reply"`
	StageBefore string    `json:"stage_before"`
	StageAfter  string    `json:"stage_after"`
	Agent       string    `json:"agent,omitempty"`
	Error       string    `json:"error,omitempty"`
	Time        time.Time `json:"time"`
}

// Store persists turns in SQLite
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Open creates (or reopens) the transcript database at path
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("transcript: path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		input TEXT NOT NULL,
		reply TEXT,
		stage_before TEXT NOT NULL,
		stage_after TEXT NOT NULL,
		agent TEXT,
		error TEXT,
		recorded_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, recorded_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// Record appends a turn. A zero Time is stamped with the current time.
func (s *Store) Record(ctx context.Context, turn Turn) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if turn.SessionID == "" {
		return errors.New("transcript: session id is required")
	}
	if turn.Time.IsZero() {
		turn.Time = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns
		(session_id, input, reply, stage_before, stage_after, agent, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		turn.SessionID, turn.Input, nullString(turn.Reply),
		turn.StageBefore, turn.StageAfter,
		nullString(turn.Agent), nullString(turn.Error), turn.Time.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// List returns every turn of a session, oldest first
func (s *Store) List(ctx context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, input, reply, stage_before, stage_after, agent, error, recorded_at
		FROM turns WHERE session_id = ?
		ORDER BY recorded_at ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("list turns: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Close closes the database. Calling it more than once is safe.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// =============================================================================
// Helpers
// =============================================================================

func scanTurn(rows *sql.Rows) (Turn, error) {
	var turn Turn
	var reply, agent, errStr sql.NullString

	err := rows.Scan(
		&turn.ID, &turn.SessionID, &turn.Input, &reply,
		&turn.StageBefore, &turn.StageAfter, &agent, &errStr, &turn.Time,
	)
	if err != nil {
		return Turn{}, err
	}

	turn.Reply = reply.String
	turn.Agent = agent.String
	turn.Error = errStr.String
	return turn, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
