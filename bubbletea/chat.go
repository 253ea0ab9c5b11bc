package bubbletea

import (
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/goldmark"
)

// ChatView shows one session and drives its Controller. Snapshots reach
// the program through a feed that keeps only the latest one, so a slow
// render never blocks the exchange.
type ChatView struct {
	// Viewport is the scrollable conversation. Exported for test access.
	Viewport viewport.Model
	// Input is the follow-up text area. Exported for test access.
	Input textarea.Model

	controller *parley.Controller
	feed       *snapshotFeed
	pending    parley.PendingStore
	renderer   *goldmark.Renderer
	styles     Styles

	snapshot parley.Snapshot
	blocks   map[string]MessageBlock
	err      error

	width  int
	height int
}

// NewChatView creates the chat view for session and its Controller.
// Close must be called when the view is left.
func NewChatView(cfg Config, session parley.ChatSession) ChatView {
	cfg = cfg.withDefaults()
	feed := newSnapshotFeed()
	controller := parley.NewController(cfg.Client, cfg.Store, session,
		parley.WithModel(cfg.Model),
		parley.WithLogger(cfg.Logger),
		parley.WithHub(cfg.Hub),
		parley.WithClock(cfg.Now),
		parley.WithObserver(feed.push),
	)
	in := newInput("Send a message...")
	in.Focus()
	return ChatView{
		Input:      in,
		Viewport:   viewport.New(0, 0),
		controller: controller,
		feed:       feed,
		pending:    cfg.Store,
		renderer:   goldmark.New(cfg.Theme),
		styles:     NewStyles(cfg.Theme),
		snapshot:   controller.Snapshot(),
		blocks:     make(map[string]MessageBlock),
	}
}

// SessionID returns the ID of the session shown.
func (v ChatView) SessionID() string { return v.snapshot.Session.ID }

// Snapshot returns the last state rendered.
func (v ChatView) Snapshot() parley.Snapshot { return v.snapshot }

// Init takes the pending prompt, if any, and starts listening for
// snapshots.
func (v ChatView) Init() tea.Cmd {
	return tea.Batch(takePending(v.pending, v.SessionID()), listenForSnapshot(v.SessionID(), v.feed))
}

// Close aborts the exchange in flight and stops the snapshot feed. The
// partial reply stays persisted.
func (v ChatView) Close() {
	_ = v.controller.Close()
	v.feed.close()
}

// SetSize sets the pane dimensions.
func (v ChatView) SetSize(width, height int) ChatView {
	v.width = width
	v.height = height
	v.Viewport.Width = width
	v.Viewport.Height = max(height-inputHeight-1, 1)
	v.Input.SetWidth(width)
	return v.refresh(true)
}

// SetFocused toggles keyboard focus.
func (v ChatView) SetFocused(focused bool) (ChatView, tea.Cmd) {
	if focused {
		return v, v.Input.Focus()
	}
	v.Input.Blur()
	return v, nil
}

func (v ChatView) Update(msg tea.Msg) (ChatView, tea.Cmd) {
	switch msg := msg.(type) {
	case pendingMsg:
		if msg.sessionID != v.SessionID() {
			return v, nil
		}
		return v.submit(msg.prompt), nil

	case SnapshotMsg:
		if msg.SessionID != v.SessionID() || (msg.source != nil && msg.source != v.feed) {
			return v, nil
		}
		v.snapshot = msg.Snapshot
		v = v.refresh(msg.Snapshot.State.InFlight())
		return v, listenForSnapshot(v.SessionID(), v.feed)

	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			text := strings.TrimSpace(v.Input.Value())
			if text == "" || v.snapshot.State.InFlight() {
				return v, nil
			}
			v.Input.Reset()
			return v.submit(text), nil
		}
		var cmds []tea.Cmd
		var cmd tea.Cmd
		if msg.Type != tea.KeyRunes {
			v.Viewport, cmd = v.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
		v.Input, cmd = v.Input.Update(msg)
		cmds = append(cmds, cmd)
		return v, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	v.Viewport, cmd = v.Viewport.Update(msg)
	return v, cmd
}

func (v ChatView) View() string {
	var b strings.Builder
	b.WriteString(v.Viewport.View())
	b.WriteString("\n")
	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(truncate("Error: "+v.err.Error(), v.width)))
	case v.snapshot.State.InFlight():
		b.WriteString(v.styles.Muted.Render("Generating..."))
	default:
		b.WriteString(v.styles.Muted.Render(truncate(v.snapshot.Session.Title, v.width)))
	}
	b.WriteString("\n")
	b.WriteString(v.Input.View())
	return b.String()
}

// submit hands text to the Controller. Empty and concurrent submissions
// are rejected by the Controller and leave the view unchanged.
func (v ChatView) submit(text string) ChatView {
	err := v.controller.Submit(text)
	switch {
	case err == nil:
		v.err = nil
	case errors.Is(err, parley.ErrValidation), errors.Is(err, parley.ErrBusy):
	default:
		v.err = err
	}
	return v
}

// refresh re-renders the conversation. The viewport follows the bottom
// while pin is set or while it was already at the bottom.
func (v ChatView) refresh(pin bool) ChatView {
	atBottom := v.Viewport.AtBottom()
	v.Viewport.SetContent(v.renderContent())
	if pin || atBottom {
		v.Viewport.GotoBottom()
	}
	return v
}

func (v ChatView) renderContent() string {
	width := v.Viewport.Width
	if width <= 0 {
		return ""
	}
	var parts []string
	for _, m := range v.snapshot.Session.Messages {
		parts = append(parts, v.block(m).View(width))
	}
	return strings.Join(parts, "\n\n")
}

// block returns the cached block for m, updated to its current content.
func (v ChatView) block(m parley.Message) MessageBlock {
	if m.Role == parley.RoleUser {
		b, ok := v.blocks[m.ID]
		if !ok {
			b = NewUserBlock(m.Content, v.styles)
			v.blocks[m.ID] = b
		}
		return b
	}
	b, ok := v.blocks[m.ID].(*AssistantBlock)
	if !ok {
		b = NewAssistantBlock(v.renderer, v.styles)
		v.blocks[m.ID] = b
	}
	b.Set(m.Content, m.ID == v.snapshot.StreamingID)
	return b
}

// takePending consumes the prompt parked by the composer.
func takePending(store parley.PendingStore, sessionID string) tea.Cmd {
	return func() tea.Msg {
		prompt, ok, err := store.TakePending()
		if err != nil {
			return ErrMsg{Err: err}
		}
		if !ok {
			return nil
		}
		return pendingMsg{sessionID: sessionID, prompt: prompt}
	}
}

// listenForSnapshot waits for the next snapshot. A closed feed ends the
// listening loop.
func listenForSnapshot(sessionID string, feed *snapshotFeed) tea.Cmd {
	return func() tea.Msg {
		s, ok := feed.next()
		if !ok {
			return nil
		}
		return SnapshotMsg{SessionID: sessionID, Snapshot: s, source: feed}
	}
}

// snapshotFeed hands Controller snapshots to the program. push never
// blocks; consecutive snapshots not yet read collapse into the latest.
type snapshotFeed struct {
	mu     sync.Mutex
	latest parley.Snapshot
	ready  chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newSnapshotFeed() *snapshotFeed {
	return &snapshotFeed{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (f *snapshotFeed) push(s parley.Snapshot) {
	f.mu.Lock()
	f.latest = s
	f.mu.Unlock()
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

func (f *snapshotFeed) next() (parley.Snapshot, bool) {
	select {
	case <-f.ready:
	case <-f.done:
		return parley.Snapshot{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, true
}

func (f *snapshotFeed) close() {
	f.once.Do(func() { close(f.done) })
}
