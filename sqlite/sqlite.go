// Package sqlite implements the session store on a single-table key-value
// SQLite database, using the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/json"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Interface compliance checks.
var (
	_ parley.SessionStore = (*Store)(nil)
	_ parley.PendingStore = (*Store)(nil)
)

// Store keeps the sessions collection and the pending prompt as rows of a
// key-value table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	mu     sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger that reports corrupt data.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("sqlite: create directories: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: init: %w", err)
		}
	}

	s := &Store{db: db, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads all sessions. A missing or corrupt value yields an empty slice.
func (s *Store) Load() ([]parley.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok, err := s.get(parley.SessionsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []parley.ChatSession{}, nil
	}
	sessions, err := json.UnmarshalSessions([]byte(value))
	if err != nil {
		s.logger.Warn("discarding corrupt sessions", "key", parley.SessionsKey, "error", err)
		return []parley.ChatSession{}, nil
	}
	return sessions, nil
}

// Save replaces the stored collection in one statement.
func (s *Store) Save(sessions []parley.ChatSession) error {
	data, err := json.MarshalSessions(sessions)
	if err != nil {
		return fmt.Errorf("sqlite: marshal sessions: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(parley.SessionsKey, string(data))
}

// PutPending stores prompt, replacing any earlier one.
func (s *Store) PutPending(prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(parley.PendingKey, prompt)
}

// TakePending returns the pending prompt and deletes it in one transaction.
func (s *Store) TakePending() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	var value string
	err = tx.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", parley.PendingKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: read pending: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", parley.PendingKey); err != nil {
		return "", false, fmt.Errorf("sqlite: delete pending: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("sqlite: commit: %w", err)
	}
	return value, true, nil
}

func (s *Store) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) put(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("sqlite: write %s: %w", key, err)
	}
	return nil
}
