package bubbletea_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/parley"
	bt "github.com/fwojciec/parley/bubbletea"
	"github.com/fwojciec/parley/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

func TestFormatDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{name: "minutes ago", t: now.Add(-5 * time.Minute), want: "Today"},
		{name: "just under a day", t: now.Add(-23 * time.Hour), want: "Today"},
		{name: "one day", t: now.Add(-25 * time.Hour), want: "Yesterday"},
		{name: "three days", t: now.Add(-3 * 24 * time.Hour), want: "3 days ago"},
		{name: "six days", t: now.Add(-6*24*time.Hour - time.Hour), want: "6 days ago"},
		{name: "a week", t: now.Add(-7 * 24 * time.Hour), want: "2026-03-03"},
		{name: "future clock skew", t: now.Add(time.Hour), want: "Today"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, bt.FormatDate(tt.t, now))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", bt.Truncate("short", 10))
	assert.Equal(t, "Explain r…", bt.Truncate("Explain recursion", 10))
	assert.Equal(t, "日本…", bt.Truncate("日本語のタイトル", 6), "wide runes count two columns")
	assert.Empty(t, bt.Truncate("anything", 0))
}

func sessionsStore(sessions ...parley.ChatSession) *mock.SessionStore {
	return &mock.SessionStore{
		LoadFn: func() ([]parley.ChatSession, error) {
			return append([]parley.ChatSession(nil), sessions...), nil
		},
	}
}

func chatAt(id, title string, updated time.Time) parley.ChatSession {
	return parley.ChatSession{ID: id, Title: title, CreatedAt: updated, UpdatedAt: updated}
}

func loadedSidebar(t *testing.T, store parley.SessionStore) bt.Sidebar {
	t.Helper()
	s := bt.NewSidebar(store, bt.NewStyles(parley.DefaultTheme()), fixedNow).SetSize(30, 20)
	msg := s.Load()()
	s, _ = s.Update(msg)
	return s
}

func TestSidebar_LoadSortsByRecent(t *testing.T) {
	t.Parallel()
	s := loadedSidebar(t, sessionsStore(
		chatAt("a", "Oldest", now.Add(-48*time.Hour)),
		chatAt("b", "Newest", now.Add(-time.Minute)),
		chatAt("c", "Middle", now.Add(-26*time.Hour)),
	))

	var titles []string
	for _, sess := range s.Sessions() {
		titles = append(titles, sess.Title)
	}
	assert.Equal(t, []string{"Newest", "Middle", "Oldest"}, titles)

	view := stripANSI(s.View())
	assert.Less(t, strings.Index(view, "Newest"), strings.Index(view, "Oldest"))
	assert.Contains(t, view, "Today")
	assert.Contains(t, view, "Yesterday")
	assert.Contains(t, view, "2 days ago")
}

func TestSidebar_Empty(t *testing.T) {
	t.Parallel()
	s := loadedSidebar(t, sessionsStore())
	assert.Contains(t, stripANSI(s.View()), "No chats yet")
}

func TestSidebar_LoadError(t *testing.T) {
	t.Parallel()
	store := &mock.SessionStore{LoadFn: func() ([]parley.ChatSession, error) {
		return nil, errors.New("disk gone")
	}}
	s := loadedSidebar(t, store)
	assert.Contains(t, stripANSI(s.View()), "Error loading chats")
}

func TestSidebar_TruncatesLongTitles(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("recursion ", 10)
	s := loadedSidebar(t, sessionsStore(chatAt("a", long, now)))
	for _, line := range strings.Split(stripANSI(s.View()), "\n") {
		assert.LessOrEqual(t, len([]rune(strings.TrimRight(line, " "))), 30)
	}
	assert.Contains(t, stripANSI(s.View()), "…")
}

func TestSidebar_Navigation(t *testing.T) {
	t.Parallel()
	s := loadedSidebar(t, sessionsStore(
		chatAt("a", "First", now),
		chatAt("b", "Second", now.Add(-time.Hour)),
	))

	t.Run("keys are ignored without focus", func(t *testing.T) {
		t.Parallel()
		_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, cmd)
	})

	t.Run("down then enter opens the second chat", func(t *testing.T) {
		t.Parallel()
		f := s.SetFocused(true)
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyDown})
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyDown})
		_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		assert.Equal(t, bt.OpenSessionMsg{ID: "b"}, cmd())
	})

	t.Run("up stops at the top", func(t *testing.T) {
		t.Parallel()
		f := s.SetFocused(true)
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyUp})
		_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		assert.Equal(t, bt.OpenSessionMsg{ID: "a"}, cmd())
	})

	t.Run("active chat moves the cursor", func(t *testing.T) {
		t.Parallel()
		f := s.SetActive("b").SetFocused(true)
		_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		assert.Equal(t, bt.OpenSessionMsg{ID: "b"}, cmd())
	})
}
