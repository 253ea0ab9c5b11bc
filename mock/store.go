package mock

import "github.com/fwojciec/parley"

// Interface compliance checks.
var (
	_ parley.SessionStore = (*SessionStore)(nil)
	_ parley.PendingStore = (*PendingStore)(nil)
)

// SessionStore is a test double for parley.SessionStore.
// Set the function fields for the methods you need.
type SessionStore struct {
	LoadFn func() ([]parley.ChatSession, error)
	SaveFn func(sessions []parley.ChatSession) error
}

// Load delegates to LoadFn.
func (s *SessionStore) Load() ([]parley.ChatSession, error) {
	return s.LoadFn()
}

// Save delegates to SaveFn.
func (s *SessionStore) Save(sessions []parley.ChatSession) error {
	return s.SaveFn(sessions)
}

// PendingStore is a test double for parley.PendingStore.
type PendingStore struct {
	PutPendingFn  func(prompt string) error
	TakePendingFn func() (string, bool, error)
}

// PutPending delegates to PutPendingFn.
func (p *PendingStore) PutPending(prompt string) error {
	return p.PutPendingFn(prompt)
}

// TakePending delegates to TakePendingFn.
func (p *PendingStore) TakePending() (string, bool, error) {
	return p.TakePendingFn()
}
