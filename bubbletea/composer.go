package bubbletea

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/parley"
)

const inputHeight = 3

// newInput returns the multi-line input shared by the composer and the
// chat view. Enter submits; Alt+Enter and Ctrl+J insert a newline.
func newInput(placeholder string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.Prompt = "┃ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	return ta
}

// Composer starts a new chat. Submitting creates and saves an empty
// session titled after the text, parks the text as the pending prompt and
// opens the session; the chat view then sends it.
type Composer struct {
	// Input is the text area. Exported for test access.
	Input textarea.Model

	store  Store
	hub    *parley.Hub
	styles Styles
	now    func() time.Time

	width int
}

// NewComposer creates a focused Composer.
func NewComposer(store Store, hub *parley.Hub, styles Styles, now func() time.Time) Composer {
	in := newInput("Ask anything...")
	in.Focus()
	return Composer{Input: in, store: store, hub: hub, styles: styles, now: now}
}

// SetSize sets the pane dimensions.
func (c Composer) SetSize(width, height int) Composer {
	c.width = width
	c.Input.SetWidth(width)
	return c
}

// SetFocused toggles keyboard focus.
func (c Composer) SetFocused(focused bool) (Composer, tea.Cmd) {
	if focused {
		return c, c.Input.Focus()
	}
	c.Input.Blur()
	return c, nil
}

func (c Composer) Update(msg tea.Msg) (Composer, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEnter {
		text := strings.TrimSpace(c.Input.Value())
		if text == "" {
			return c, nil
		}
		c.Input.Reset()
		return c, startChat(c.store, c.hub, text, c.now())
	}
	var cmd tea.Cmd
	c.Input, cmd = c.Input.Update(msg)
	return c, cmd
}

func (c Composer) View() string {
	var b strings.Builder
	b.WriteString(c.styles.Accent.Render("What can I help you with?"))
	b.WriteString("\n\n")
	b.WriteString(c.Input.View())
	return b.String()
}

// startChat persists a new session for text and hands text over as the
// pending prompt.
func startChat(store Store, hub *parley.Hub, text string, now time.Time) tea.Cmd {
	return func() tea.Msg {
		session := parley.NewSession(now)
		session.Title = parley.DeriveTitle(text)
		if err := parley.SaveSession(store, session); err != nil {
			return ErrMsg{Err: fmt.Errorf("create chat: %w", err)}
		}
		hub.Publish(parley.Change{Key: parley.SessionsKey})
		if err := store.PutPending(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("create chat: %w", err)}
		}
		return OpenSessionMsg{ID: session.ID}
	}
}
