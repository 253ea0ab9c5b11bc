package bubbletea

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/parley"
	"github.com/mattn/go-runewidth"
)

// Sidebar lists saved chats, most recently updated first. It never writes
// to the store; selecting an entry emits OpenSessionMsg.
type Sidebar struct {
	store  parley.SessionStore
	styles Styles
	now    func() time.Time

	sessions []parley.ChatSession
	cursor   int
	active   string
	focused  bool
	err      error

	width  int
	height int
}

// NewSidebar creates a Sidebar reading from store.
func NewSidebar(store parley.SessionStore, styles Styles, now func() time.Time) Sidebar {
	return Sidebar{store: store, styles: styles, now: now}
}

// Sessions returns the listing currently shown.
func (s Sidebar) Sessions() []parley.ChatSession { return s.sessions }

// Load returns a command that reads and sorts the session list.
func (s Sidebar) Load() tea.Cmd {
	store := s.store
	return func() tea.Msg {
		sessions, err := store.Load()
		if err != nil {
			return SessionsLoadedMsg{Err: err}
		}
		parley.SortByRecent(sessions)
		return SessionsLoadedMsg{Sessions: sessions}
	}
}

// SetActive highlights the session shown in the main pane.
func (s Sidebar) SetActive(id string) Sidebar {
	s.active = id
	for i, sess := range s.sessions {
		if sess.ID == id {
			s.cursor = i
		}
	}
	return s
}

// SetFocused toggles keyboard focus.
func (s Sidebar) SetFocused(focused bool) Sidebar {
	s.focused = focused
	return s
}

// SetSize sets the pane dimensions.
func (s Sidebar) SetSize(width, height int) Sidebar {
	s.width = width
	s.height = height
	return s
}

var sidebarKeys = struct {
	Up, Down, Open key.Binding
}{
	Up:   key.NewBinding(key.WithKeys("up", "k")),
	Down: key.NewBinding(key.WithKeys("down", "j")),
	Open: key.NewBinding(key.WithKeys("enter")),
}

func (s Sidebar) Update(msg tea.Msg) (Sidebar, tea.Cmd) {
	switch msg := msg.(type) {
	case SessionsLoadedMsg:
		if msg.Err != nil {
			s.err = msg.Err
			return s, nil
		}
		s.err = nil
		s.sessions = msg.Sessions
		s = s.SetActive(s.active)
		s.cursor = min(s.cursor, max(len(s.sessions)-1, 0))
		return s, nil

	case tea.KeyMsg:
		if !s.focused {
			return s, nil
		}
		switch {
		case key.Matches(msg, sidebarKeys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, sidebarKeys.Down):
			if s.cursor < len(s.sessions)-1 {
				s.cursor++
			}
		case key.Matches(msg, sidebarKeys.Open):
			if s.cursor < len(s.sessions) {
				id := s.sessions[s.cursor].ID
				return s, func() tea.Msg { return OpenSessionMsg{ID: id} }
			}
		}
	}
	return s, nil
}

func (s Sidebar) View() string {
	inner := max(s.width-1, 1)
	var b strings.Builder
	b.WriteString(s.styles.Accent.Render("Chats"))
	b.WriteString("\n\n")

	switch {
	case s.err != nil:
		b.WriteString(s.styles.Error.Render(truncate("Error loading chats", inner)))
	case len(s.sessions) == 0:
		b.WriteString(s.styles.Muted.Render(truncate("No chats yet", inner)))
	}

	now := s.now()
	for i, sess := range s.sessions {
		marker := "  "
		title := s.styles.Muted.Render
		if sess.ID == s.active {
			title = lipgloss.NewStyle().Render
		}
		if i == s.cursor && s.focused {
			marker = s.styles.Selected.Render("> ")
			title = s.styles.Selected.Render
		}
		b.WriteString(marker + title(truncate(sess.Title, inner-2)) + "\n")
		b.WriteString("  " + s.styles.Muted.Render(truncate(FormatDate(sess.UpdatedAt, now), inner-2)) + "\n")
	}

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		MaxHeight(s.height).
		Render(strings.TrimRight(b.String(), "\n"))
}

// FormatDate renders t relative to now by whole elapsed days: "Today",
// "Yesterday", "N days ago" within a week, otherwise the calendar date.
func FormatDate(t, now time.Time) string {
	days := int(now.Sub(t) / (24 * time.Hour))
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.In(now.Location()).Format("2006-01-02")
	}
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
