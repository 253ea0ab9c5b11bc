package parley

import (
	"fmt"
	"slices"
)

// Persistence keys.
const (
	// SessionsKey holds the JSON array of all chat sessions.
	SessionsKey = "chatSessions"

	// PendingKey holds at most one prompt composed on the new-chat screen,
	// consumed by the chat view that opens next.
	PendingKey = "pendingMessage"
)

// SessionStore persists the full collection of chat sessions.
//
// Load returns an empty slice when nothing is stored or the stored data is
// corrupt; corruption is never reported as an error. An error means the
// storage itself is unavailable. Save replaces the whole collection in a
// single write.
type SessionStore interface {
	Load() ([]ChatSession, error)
	Save(sessions []ChatSession) error
}

// PendingStore holds the transient prompt that bridges the new-chat screen
// and the chat view. TakePending returns and deletes it.
type PendingStore interface {
	PutPending(prompt string) error
	TakePending() (string, bool, error)
}

// FindByID looks up a session in the store.
func FindByID(store SessionStore, id string) (ChatSession, bool, error) {
	sessions, err := store.Load()
	if err != nil {
		return ChatSession{}, false, err
	}
	for _, s := range sessions {
		if s.ID == id {
			return s, true, nil
		}
	}
	return ChatSession{}, false, nil
}

// SaveSession reads the full collection, replaces or appends session and
// writes the collection back. It is not transactional across processes:
// a concurrent writer of a different session can be overwritten.
func SaveSession(store SessionStore, session ChatSession) error {
	sessions, err := store.Load()
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	i := slices.IndexFunc(sessions, func(s ChatSession) bool { return s.ID == session.ID })
	if i >= 0 {
		sessions[i] = session
	} else {
		sessions = append(sessions, session)
	}
	if err := store.Save(sessions); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

// SortByRecent orders sessions by UpdatedAt, most recent first.
func SortByRecent(sessions []ChatSession) {
	slices.SortStableFunc(sessions, func(a, b ChatSession) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
}
