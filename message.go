package parley

import (
	"time"

	"github.com/google/uuid"
)

// Message is one turn of a conversation. Content grows while the message is
// the streaming target and is fixed afterwards.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// NewMessage returns a message with a fresh time-ordered ID, so that IDs of
// messages created later sort after earlier ones.
func NewMessage(role Role, content string, now time.Time) Message {
	return Message{
		ID:        newMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
}

func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		return uuid.NewString()
	}
	return id.String()
}

// HistoryEntry is the wire shape of a prior message sent with a request.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History converts messages to the role/content pairs sent upstream.
func History(msgs []Message) []HistoryEntry {
	entries := make([]HistoryEntry, len(msgs))
	for i, m := range msgs {
		entries[i] = HistoryEntry{Role: m.Role, Content: m.Content}
	}
	return entries
}
