// Package goldmark renders assistant replies, which are GitHub-flavored
// markdown, to ANSI-styled terminal output using goldmark for parsing and
// lipgloss for styling.
package goldmark

import (
	"bytes"
	"strings"

	"github.com/fwojciec/parley"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const defaultWidth = 80

// Renderer renders markdown with a fixed theme. It is safe for concurrent
// use; the chat view keeps one for its lifetime.
type Renderer struct {
	md     goldmark.Markdown
	styles styles
}

// New returns a Renderer that parses tables, strikethrough and task lists in
// addition to CommonMark.
func New(theme parley.Theme) *Renderer {
	return &Renderer{
		md: goldmark.New(goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		)),
		styles: newStyles(theme),
	}
}

// Render parses source and returns terminal output wrapped to width.
// Paragraphs, quotes and list items reflow; code blocks and tables keep
// their lines intact. Escape sequences in source are stripped first.
func (r *Renderer) Render(source string, width int) string {
	source = Sanitize(source)
	if strings.TrimSpace(source) == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	src := []byte(source)
	doc := r.md.Parser().Parse(text.NewReader(src))

	w := &writer{styles: r.styles, source: src}
	var buf bytes.Buffer
	w.blocks(doc, width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

// Render is a convenience wrapper around New(theme).Render.
func Render(source string, width int, theme parley.Theme) string {
	return New(theme).Render(source, width)
}
