package goldmark

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/parley"
)

type styles struct {
	bold    lipgloss.Style
	italic  lipgloss.Style
	strike  lipgloss.Style
	heading lipgloss.Style
	link    lipgloss.Style
	muted   lipgloss.Style
	code    lipgloss.Style
	quote   lipgloss.Style
}

func newStyles(theme parley.Theme) styles {
	return styles{
		bold:    lipgloss.NewStyle().Bold(true),
		italic:  lipgloss.NewStyle().Italic(true),
		strike:  lipgloss.NewStyle().Strikethrough(true),
		heading: lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		link:    lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Underline(true),
		muted:   lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		code:    lipgloss.NewStyle().Background(ansiColor(theme.CodeBg)),
		quote:   lipgloss.NewStyle().Italic(true).Foreground(ansiColor(theme.Muted)),
	}
}

// ansiColor maps a theme index to a terminal color. Negative means none.
func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
