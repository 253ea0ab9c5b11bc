package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/parley"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	UserMsg   lipgloss.Style
	Assistant lipgloss.Style
	Thinking  lipgloss.Style
	Error     lipgloss.Style
	Selected  lipgloss.Style
	Muted     lipgloss.Style
	Accent    lipgloss.Style
	Border    lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t parley.Theme) Styles {
	return Styles{
		UserMsg:   lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(ansiColor(t.Assistant)).Bold(true),
		Thinking:  lipgloss.NewStyle().Foreground(ansiColor(t.Thinking)).Italic(true),
		Error:     lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Selected:  lipgloss.NewStyle().Foreground(ansiColor(t.Selected)).Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:    lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Border:    lipgloss.NewStyle().Foreground(ansiColor(t.Muted)),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
