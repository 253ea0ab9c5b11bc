package bubbletea_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/parley"
	bt "github.com/fwojciec/parley/bubbletea"
	parleyjson "github.com/fwojciec/parley/json"
	"github.com/fwojciec/parley/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replying(fragments ...string) *mock.Completer {
	return &mock.Completer{
		StreamFn: func(context.Context, parley.ChatRequest) (parley.FragmentStream, error) {
			return mock.Fragments(fragments...), nil
		},
	}
}

func newChatView(t *testing.T, client parley.Completer, session parley.ChatSession) (bt.ChatView, *parleyjson.Store) {
	t.Helper()
	store := parleyjson.NewStore(t.TempDir())
	require.NoError(t, parley.SaveSession(store, session))
	v := bt.NewChatView(bt.Config{
		Store:  store,
		Client: client,
		Theme:  parley.DefaultTheme(),
		Now:    fixedNow,
	}, session)
	t.Cleanup(v.Close)
	return v.SetSize(60, 20), store
}

func TestChatView_PendingPromptStreamsReply(t *testing.T) {
	t.Parallel()
	session := parley.NewSession(now)
	v, store := newChatView(t, replying("Recursion is ", "when a function calls itself."), session)

	v, _ = v.Update(bt.PendingMsg(session.ID, "Explain recursion"))
	v, cmd := v.Update(bt.Settle(v))
	assert.NotNil(t, cmd, "keeps listening for snapshots")

	snap := v.Snapshot()
	require.Len(t, snap.Session.Messages, 2)
	assert.Equal(t, "Recursion is when a function calls itself.", snap.Session.Messages[1].Content)
	assert.Equal(t, parley.ExchangeIdle, snap.State)

	view := stripANSI(v.View())
	assert.Contains(t, view, "> Explain recursion")
	assert.Contains(t, view, "Recursion is when a function calls itself.")
	assert.Contains(t, view, "Explain recursion", "title in the status line")

	saved, ok, err := parley.FindByID(store, session.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Explain recursion", saved.Title)
	assert.Len(t, saved.Messages, 2)
}

func TestChatView_PendingForAnotherSessionIsIgnored(t *testing.T) {
	t.Parallel()
	client := &mock.Completer{StreamFn: func(context.Context, parley.ChatRequest) (parley.FragmentStream, error) {
		t.Error("no exchange expected")
		return nil, errors.New("unexpected")
	}}
	v, _ := newChatView(t, client, parley.NewSession(now))

	v, _ = v.Update(bt.PendingMsg("someone-else", "hi"))
	assert.Empty(t, v.Snapshot().Session.Messages)
}

func TestChatView_ShowsThinkingWhileAwaiting(t *testing.T) {
	t.Parallel()
	session := parley.NewSession(now)
	session.Messages = []parley.Message{
		parley.NewMessage(parley.RoleUser, "Explain recursion", now),
		parley.NewMessage(parley.RoleAssistant, "", now),
	}
	v, _ := newChatView(t, replying(), session)

	v, _ = v.Update(bt.SnapshotMsg{
		SessionID: session.ID,
		Snapshot: parley.Snapshot{
			Session:     session,
			State:       parley.ExchangeAwaiting,
			StreamingID: session.Messages[1].ID,
		},
	})
	view := stripANSI(v.View())
	assert.Contains(t, view, "Thinking...")
	assert.Contains(t, view, "Generating...")
}

func TestChatView_StaleSnapshotIsIgnored(t *testing.T) {
	t.Parallel()
	session := parley.NewSession(now)
	v, _ := newChatView(t, replying(), session)

	other := parley.NewSession(now)
	other.Messages = []parley.Message{parley.NewMessage(parley.RoleUser, "elsewhere", now)}
	v, cmd := v.Update(bt.SnapshotMsg{SessionID: other.ID, Snapshot: parley.Snapshot{Session: other}})
	assert.Nil(t, cmd)
	assert.NotContains(t, bt.RenderContent(v), "elsewhere")
}

func TestChatView_EnterSubmitsFollowUp(t *testing.T) {
	t.Parallel()
	session := parley.NewSession(now)
	session.Messages = []parley.Message{
		parley.NewMessage(parley.RoleUser, "Explain recursion", now),
		parley.NewMessage(parley.RoleAssistant, "A function calling itself.", now),
	}
	var got parley.ChatRequest
	client := &mock.Completer{StreamFn: func(_ context.Context, req parley.ChatRequest) (parley.FragmentStream, error) {
		got = req
		return mock.Fragments("For example, factorial."), nil
	}}
	v, _ := newChatView(t, client, session)

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Give an example")})
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, v.Input.Value())
	v, _ = v.Update(bt.Settle(v))

	require.Len(t, got.History, 3)
	assert.Equal(t, "Give an example", got.Prompt)
	assert.Contains(t, stripANSI(bt.RenderContent(v)), "For example, factorial.")
}

func TestChatView_FailureShowsApology(t *testing.T) {
	t.Parallel()
	session := parley.NewSession(now)
	client := &mock.Completer{StreamFn: func(context.Context, parley.ChatRequest) (parley.FragmentStream, error) {
		return nil, errors.New("relay: HTTP 500: boom")
	}}
	v, _ := newChatView(t, client, session)

	v, _ = v.Update(bt.PendingMsg(session.ID, "hi"))
	v, _ = v.Update(bt.Settle(v))

	assert.Contains(t, stripANSI(bt.RenderContent(v)), parley.ErrorReply)
	assert.Equal(t, parley.ExchangeIdle, v.Snapshot().State)
}

func TestChatView_ViewportFollowsLongReply(t *testing.T) {
	t.Parallel()
	session := parley.NewSession(now)
	reply := strings.Repeat("line of reply\n\n", 40) + "the end"
	v, _ := newChatView(t, replying(reply), session)

	v, _ = v.Update(bt.PendingMsg(session.ID, "go long"))
	v, _ = v.Update(bt.Settle(v))

	assert.True(t, v.Viewport.AtBottom())
	assert.Contains(t, stripANSI(v.Viewport.View()), "the end")
}

func TestSnapshotFeed(t *testing.T) {
	t.Parallel()

	first := parley.Snapshot{State: parley.ExchangeAwaiting}
	last := parley.Snapshot{State: parley.ExchangeIdle}
	got, ok := bt.FeedLatest(first, last)
	require.True(t, ok)
	assert.Equal(t, parley.ExchangeIdle, got.State, "unread snapshots collapse into the latest")

	assert.True(t, bt.FeedClosed())
}
