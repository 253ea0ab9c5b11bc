package parley

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

const (
	// DefaultTitle is the title of a session with no user message yet.
	DefaultTitle = "New Chat"

	// titleLimit is the number of characters kept from the first user message.
	titleLimit = 50

	titleEllipsis = "..."
)

// ChatSession represents one persisted conversation.
type ChatSession struct {
	ID        string
	Title     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates an empty session with a fresh UUID and the default title.
func NewSession(now time.Time) ChatSession {
	return ChatSession{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FirstUserMessage returns the first message with RoleUser.
func (s ChatSession) FirstUserMessage() (Message, bool) {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m, true
		}
	}
	return Message{}, false
}

// Touch refreshes UpdatedAt and, while the title is still the default,
// derives it from the first user message. Once the title has changed it is
// never overwritten again.
func (s *ChatSession) Touch(now time.Time) {
	s.UpdatedAt = now
	if s.Title != DefaultTitle && s.Title != "" {
		return
	}
	if m, ok := s.FirstUserMessage(); ok {
		s.Title = DeriveTitle(m.Content)
	} else {
		s.Title = DefaultTitle
	}
}

// Clone returns a copy that shares no mutable state with s.
func (s ChatSession) Clone() ChatSession {
	c := s
	c.Messages = append([]Message(nil), s.Messages...)
	return c
}

// DeriveTitle returns the first 50 user-perceived characters of text,
// followed by "..." when text is longer.
func DeriveTitle(text string) string {
	var b strings.Builder
	g := uniseg.NewGraphemes(text)
	n := 0
	for g.Next() {
		if n == titleLimit {
			b.WriteString(titleEllipsis)
			return b.String()
		}
		b.WriteString(g.Str())
		n++
	}
	return b.String()
}
