package json

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/parley"
)

// File names inside the store directory.
const (
	SessionsFile = parley.SessionsKey + ".json"
	PendingFile  = parley.PendingKey
)

// Interface compliance checks.
var (
	_ parley.SessionStore = (*Store)(nil)
	_ parley.PendingStore = (*Store)(nil)
)

// Store keeps sessions and the pending prompt as files in one directory.
// Writes go to a temp file that is renamed over the target, so a reader in
// another process never observes a partial file.
type Store struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger that reports corrupt data.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first write.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory holding the store files.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads all sessions. A missing or corrupt file yields an empty slice.
func (s *Store) Load() ([]parley.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, SessionsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return []parley.ChatSession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("json: read sessions: %w", err)
	}
	sessions, err := UnmarshalSessions(data)
	if err != nil {
		s.logger.Warn("discarding corrupt sessions", "path", filepath.Join(s.dir, SessionsFile), "error", err)
		return []parley.ChatSession{}, nil
	}
	return sessions, nil
}

// Save replaces the stored collection.
func (s *Store) Save(sessions []parley.ChatSession) error {
	data, err := MarshalSessions(sessions)
	if err != nil {
		return fmt.Errorf("json: marshal sessions: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(SessionsFile, data)
}

// PutPending stores prompt, replacing any earlier one.
func (s *Store) PutPending(prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(PendingFile, []byte(prompt))
}

// TakePending returns the pending prompt and deletes it.
func (s *Store) TakePending() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, PendingFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("json: read pending: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("json: remove pending: %w", err)
	}
	return string(data), true, nil
}

func (s *Store) write(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("json: create directories: %w", err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("json: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("json: rename temp file: %w", err)
	}
	return nil
}
