package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/parley"
)

var _ tea.Model = App{}

type pane int

const (
	paneMain pane = iota
	paneSidebar
)

const (
	minSidebarWidth = 16
	maxSidebarWidth = 32
	statusHeight    = 1
)

// App is the root model: the sidebar on the left and, on the right, the
// composer or the chat view of the open session.
type App struct {
	// Sidebar lists the saved chats. Exported for test access.
	Sidebar Sidebar
	// Composer starts new chats. Exported for test access.
	Composer Composer
	// Chat is the open session; nil while the composer is shown.
	Chat *ChatView

	cfg    Config
	styles Styles

	changes     <-chan parley.Change
	unsubscribe func()

	focus  pane
	err    error
	width  int
	height int
	ready  bool
}

// NewApp creates the App. It subscribes to cfg.Hub at once so no change
// published before the program starts is missed.
func NewApp(cfg Config) App {
	cfg = cfg.withDefaults()
	styles := NewStyles(cfg.Theme)
	changes, unsubscribe := cfg.Hub.Subscribe()
	return App{
		Sidebar:     NewSidebar(cfg.Store, styles, cfg.Now),
		Composer:    NewComposer(cfg.Store, cfg.Hub, styles, cfg.Now),
		cfg:         cfg,
		styles:      styles,
		changes:     changes,
		unsubscribe: unsubscribe,
	}
}

// Close releases the open chat view and the Hub subscription.
func (a App) Close() {
	if a.Chat != nil {
		a.Chat.Close()
	}
	a.unsubscribe()
}

// Err returns the last error shown in the status line.
func (a App) Err() error { return a.err }

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.Sidebar.Load(), listenForChange(a.changes))
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.ready = true
		return a.layout(), nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case ChangeMsg:
		cmds := []tea.Cmd{listenForChange(a.changes)}
		if msg.Change.Key == parley.SessionsKey {
			cmds = append(cmds, a.Sidebar.Load())
		}
		return a, tea.Batch(cmds...)

	case SessionsLoadedMsg:
		var cmd tea.Cmd
		a.Sidebar, cmd = a.Sidebar.Update(msg)
		return a, cmd

	case OpenSessionMsg:
		if a.Chat != nil && a.Chat.SessionID() == msg.ID {
			return a.setFocus(paneMain)
		}
		return a, openSession(a.cfg.Store, msg.ID)

	case sessionOpenedMsg:
		return a.showChat(msg.session)

	case ErrMsg:
		a.err = msg.Err
		a.cfg.Logger.Error("tui", "error", msg.Err)
		return a, nil

	case pendingMsg, SnapshotMsg:
		if a.Chat == nil {
			return a, nil
		}
		chat, cmd := a.Chat.Update(msg)
		a.Chat = &chat
		return a, cmd
	}

	return a.updateMain(msg)
}

// View implements tea.Model.
func (a App) View() string {
	if !a.ready {
		return "Initializing..."
	}
	_, mw, h := a.dimensions()

	main := a.Composer.View()
	if a.Chat != nil {
		main = a.Chat.View()
	}
	mainPane := lipgloss.NewStyle().Width(mw).Height(h).MaxHeight(h).Render(main)
	border := a.styles.Border.Render(strings.TrimRight(strings.Repeat("│\n", h), "\n"))

	body := lipgloss.JoinHorizontal(lipgloss.Top, a.Sidebar.View(), border, mainPane)
	return body + "\n" + a.statusLine()
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		a.Close()
		return a, tea.Quit

	case tea.KeyCtrlN:
		return a.showComposer()

	case tea.KeyTab:
		if a.focus == paneMain {
			return a.setFocus(paneSidebar)
		}
		return a.setFocus(paneMain)
	}

	if a.focus == paneSidebar {
		var cmd tea.Cmd
		a.Sidebar, cmd = a.Sidebar.Update(msg)
		return a, cmd
	}
	return a.updateMain(msg)
}

func (a App) updateMain(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if a.Chat != nil {
		var chat ChatView
		chat, cmd = a.Chat.Update(msg)
		a.Chat = &chat
		return a, cmd
	}
	a.Composer, cmd = a.Composer.Update(msg)
	return a, cmd
}

func (a App) setFocus(p pane) (App, tea.Cmd) {
	a.focus = p
	a.Sidebar = a.Sidebar.SetFocused(p == paneSidebar)
	var cmd tea.Cmd
	if a.Chat != nil {
		var chat ChatView
		chat, cmd = a.Chat.SetFocused(p == paneMain)
		a.Chat = &chat
	} else {
		a.Composer, cmd = a.Composer.SetFocused(p == paneMain)
	}
	return a, cmd
}

// showComposer leaves the open chat, if any, for a new one.
func (a App) showComposer() (App, tea.Cmd) {
	if a.Chat != nil {
		a.Chat.Close()
		a.Chat = nil
	}
	a.err = nil
	a.Sidebar = a.Sidebar.SetActive("")
	a.Composer.Input.Reset()
	a = a.layout()
	return a.setFocus(paneMain)
}

// showChat replaces the main pane with the chat view of session.
func (a App) showChat(session parley.ChatSession) (App, tea.Cmd) {
	if a.Chat != nil {
		a.Chat.Close()
	}
	a.err = nil
	chat := NewChatView(a.cfg, session)
	a.Chat = &chat
	a.Sidebar = a.Sidebar.SetActive(session.ID)
	a = a.layout()
	a, focusCmd := a.setFocus(paneMain)
	return a, tea.Batch(a.Chat.Init(), focusCmd)
}

func (a App) layout() App {
	if !a.ready {
		return a
	}
	sw, mw, h := a.dimensions()
	a.Sidebar = a.Sidebar.SetSize(sw, h)
	a.Composer = a.Composer.SetSize(mw, h)
	if a.Chat != nil {
		chat := a.Chat.SetSize(mw, h)
		a.Chat = &chat
	}
	return a
}

// dimensions returns the sidebar width, the main pane width and the pane
// height. One column separates the panes.
func (a App) dimensions() (sidebar, main, height int) {
	sidebar = min(max(a.width/4, minSidebarWidth), maxSidebarWidth)
	if sidebar > a.width/2 {
		sidebar = a.width / 2
	}
	main = max(a.width-sidebar-1, 1)
	height = max(a.height-statusHeight, 1)
	return sidebar, main, height
}

func (a App) statusLine() string {
	if a.err != nil {
		return a.styles.Error.Render(truncate(fmt.Sprintf("Error: %v", a.err), a.width))
	}
	return a.styles.Muted.Render(truncate("Ctrl+N new chat · Tab switch pane · Enter send · Ctrl+C quit", a.width))
}

// openSession loads a session for the chat view.
func openSession(store parley.SessionStore, id string) tea.Cmd {
	return func() tea.Msg {
		session, ok, err := parley.FindByID(store, id)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("open chat: %w", err)}
		}
		if !ok {
			return ErrMsg{Err: fmt.Errorf("open chat %s: %w", id, parley.ErrNotFound)}
		}
		return sessionOpenedMsg{session: session}
	}
}
