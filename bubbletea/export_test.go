package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/parley"
)

// PendingMsg builds the message carrying a prompt taken from the store.
func PendingMsg(sessionID, prompt string) tea.Msg {
	return pendingMsg{sessionID: sessionID, prompt: prompt}
}

// Settle waits for the chat view's exchange to finish and returns the
// resulting snapshot message.
func Settle(v ChatView) SnapshotMsg {
	v.controller.Wait()
	return SnapshotMsg{SessionID: v.SessionID(), Snapshot: v.controller.Snapshot()}
}

// RenderContent exports renderContent for testing.
func RenderContent(v ChatView) string {
	return v.renderContent()
}

// Truncate exports truncate for testing.
func Truncate(s string, width int) string {
	return truncate(s, width)
}

// FeedLatest pushes snapshots through a fresh feed and returns what a
// single read observes.
func FeedLatest(snaps ...parley.Snapshot) (parley.Snapshot, bool) {
	f := newSnapshotFeed()
	for _, s := range snaps {
		f.push(s)
	}
	return f.next()
}

// FeedClosed reports whether a read on a closed, empty feed returns.
func FeedClosed() bool {
	f := newSnapshotFeed()
	f.close()
	_, ok := f.next()
	return !ok
}
