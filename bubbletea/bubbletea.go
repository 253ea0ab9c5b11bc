// Package bubbletea provides the Bubble Tea TUI for parley: a sidebar of
// saved chats beside either a composer for a new chat or the chat view of
// an existing one.
package bubbletea

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/parley"
)

// Store is the persistence the TUI needs: the session collection and the
// one-shot pending prompt handed from the composer to the chat view.
type Store interface {
	parley.SessionStore
	parley.PendingStore
}

// Config holds the App's collaborators.
type Config struct {
	Store  Store
	Client parley.Completer
	Hub    *parley.Hub
	Model  string
	Theme  parley.Theme
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Hub == nil {
		c.Hub = parley.NewHub()
	}
	return c
}

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. Cancelling ctx quits the program.
func Run(ctx context.Context, app App) error {
	p := tea.NewProgram(app, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	final, err := p.Run()
	if a, ok := final.(App); ok {
		a.Close()
	}
	return err
}

// SessionsLoadedMsg carries the sidebar's listing, newest first.
type SessionsLoadedMsg struct {
	Sessions []parley.ChatSession
	Err      error
}

// ChangeMsg relays a Hub notification into the program.
type ChangeMsg struct {
	Change parley.Change
}

// OpenSessionMsg asks the App to show the chat view for a session.
type OpenSessionMsg struct {
	ID string
}

// SnapshotMsg delivers a Controller snapshot to the chat view showing
// SessionID.
type SnapshotMsg struct {
	SessionID string
	Snapshot  parley.Snapshot

	source *snapshotFeed
}

// ErrMsg reports a failure to show in the status line.
type ErrMsg struct {
	Err error
}

// sessionOpenedMsg carries a session loaded for the chat view.
type sessionOpenedMsg struct {
	session parley.ChatSession
}

// pendingMsg carries the prompt handed over by the composer.
type pendingMsg struct {
	sessionID string
	prompt    string
}

// listenForChange waits for the next Hub notification. A closed
// subscription ends the listening loop.
func listenForChange(ch <-chan parley.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return ChangeMsg{Change: c}
	}
}
