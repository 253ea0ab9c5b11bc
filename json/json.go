// Package json implements the session wire format and a file-backed
// session store.
package json

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/parley"
)

// sessionDTO is the JSON representation of a ChatSession.
type sessionDTO struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Messages  []messageDTO `json:"messages"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// messageDTO is the JSON representation of a Message.
type messageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalSessions serializes sessions to the JSON array stored under
// parley.SessionsKey.
func MarshalSessions(sessions []parley.ChatSession) ([]byte, error) {
	dtos := make([]sessionDTO, len(sessions))
	for i, s := range sessions {
		dto := sessionDTO{
			ID:        s.ID,
			Title:     s.Title,
			Messages:  make([]messageDTO, len(s.Messages)),
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		}
		for j, m := range s.Messages {
			dto.Messages[j] = messageDTO{
				ID:        m.ID,
				Role:      string(m.Role),
				Content:   m.Content,
				Timestamp: m.Timestamp,
			}
		}
		dtos[i] = dto
	}
	return json.Marshal(dtos)
}

// UnmarshalSessions deserializes the JSON array stored under
// parley.SessionsKey.
func UnmarshalSessions(data []byte) ([]parley.ChatSession, error) {
	var dtos []sessionDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("unmarshal sessions: %w", err)
	}
	sessions := make([]parley.ChatSession, len(dtos))
	for i, dto := range dtos {
		if dto.ID == "" {
			return nil, fmt.Errorf("session %d: missing id", i)
		}
		msgs := make([]parley.Message, len(dto.Messages))
		for j, m := range dto.Messages {
			role, err := unmarshalRole(m.Role)
			if err != nil {
				return nil, fmt.Errorf("session %s: message %d: %w", dto.ID, j, err)
			}
			msgs[j] = parley.Message{
				ID:        m.ID,
				Role:      role,
				Content:   m.Content,
				Timestamp: m.Timestamp,
			}
		}
		sessions[i] = parley.ChatSession{
			ID:        dto.ID,
			Title:     dto.Title,
			Messages:  msgs,
			CreatedAt: dto.CreatedAt,
			UpdatedAt: dto.UpdatedAt,
		}
	}
	return sessions, nil
}

func unmarshalRole(s string) (parley.Role, error) {
	switch r := parley.Role(s); r {
	case parley.RoleUser, parley.RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}
