package goldmark

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// minItemWidth keeps deeply nested list items readable on narrow panes.
const minItemWidth = 10

// writer walks one parsed document.
type writer struct {
	styles styles
	source []byte
}

func (w *writer) blocks(parent ast.Node, width int, buf *bytes.Buffer) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, width, buf)
		if n.NextSibling() != nil {
			buf.WriteString("\n")
		}
	}
}

func (w *writer) block(node ast.Node, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.line(lipgloss.NewStyle().Width(width).Render(w.inline(n)), buf)

	case *ast.Heading:
		styled := w.styles.heading.Render(w.inline(n))
		w.line(lipgloss.NewStyle().Width(width).Render(styled), buf)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(w.source)); lang != "" {
			w.line(w.styles.muted.Render(lang), buf)
		}
		w.code(n, buf)

	case *ast.CodeBlock:
		w.code(n, buf)

	case *ast.Blockquote:
		w.quote(n, width, buf)

	case *ast.List:
		w.list(n, 0, width, buf)

	case *east.Table:
		w.table(n, buf)

	case *ast.ThematicBreak:
		w.line(w.styles.muted.Render(strings.Repeat("─", min(width, defaultWidth))), buf)

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			w.line(strings.TrimRight(string(seg.Value(w.source)), "\n"), buf)
		}

	default:
		w.blocks(node, width, buf)
	}
}

func (w *writer) line(s string, buf *bytes.Buffer) {
	buf.WriteString(s)
	buf.WriteString("\n")
}

// code writes a code block verbatim behind a gutter.
func (w *writer) code(node ast.Node, buf *bytes.Buffer) {
	gutter := w.styles.muted.Render("│") + " "
	lines := node.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		content := strings.TrimRight(string(seg.Value(w.source)), "\n")
		w.line(gutter+w.styles.code.Render(content), buf)
	}
}

// quote renders the quoted blocks two columns narrower and prefixes each
// resulting line with a bar.
func (w *writer) quote(node *ast.Blockquote, width int, buf *bytes.Buffer) {
	var inner bytes.Buffer
	w.blocks(node, max(width-2, minItemWidth), &inner)
	bar := w.styles.muted.Render("│") + " "
	for _, l := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
		w.line(bar+w.styles.quote.Render(l), buf)
	}
}

func (w *writer) list(node *ast.List, depth, width int, buf *bytes.Buffer) {
	indent := strings.Repeat("  ", depth)
	number := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if node.IsOrdered() {
			marker = strconv.Itoa(number) + ". "
			number++
		}

		var pending strings.Builder
		flush := func() {
			if pending.Len() > 0 {
				w.hanging(indent+marker, pending.String(), width, buf)
				pending.Reset()
				marker = strings.Repeat(" ", len(marker))
			}
		}
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if pending.Len() > 0 {
					pending.WriteString("\n")
				}
				pending.WriteString(w.inline(in))
			case *ast.List:
				flush()
				w.list(in, depth+1, width, buf)
			default:
				flush()
				var nested bytes.Buffer
				w.block(ic, max(width-len(indent)-2, minItemWidth), &nested)
				for _, l := range strings.Split(strings.TrimRight(nested.String(), "\n"), "\n") {
					w.line(indent+"  "+l, buf)
				}
			}
		}
		flush()
	}
}

// hanging wraps content beside prefix and aligns continuation lines under
// the first character after it.
func (w *writer) hanging(prefix, content string, width int, buf *bytes.Buffer) {
	wrapped := lipgloss.NewStyle().Width(max(width-len(prefix), minItemWidth)).Render(content)
	pad := strings.Repeat(" ", len(prefix))
	for i, l := range strings.Split(wrapped, "\n") {
		if i == 0 {
			w.line(prefix+l, buf)
			continue
		}
		w.line(pad+l, buf)
	}
}

// inline returns the styled inline content of node's children.
func (w *writer) inline(node ast.Node) string {
	var sb strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.span(c, &sb)
	}
	return sb.String()
}

func (w *writer) span(node ast.Node, sb *strings.Builder) {
	switch n := node.(type) {
	case *ast.Text:
		sb.Write(n.Segment.Value(w.source))
		switch {
		case n.HardLineBreak():
			sb.WriteByte('\n')
		case n.SoftLineBreak():
			sb.WriteByte(' ')
		}

	case *ast.String:
		sb.Write(n.Value)

	case *ast.Emphasis:
		if n.Level == 1 {
			sb.WriteString(w.styles.italic.Render(w.inline(n)))
		} else {
			sb.WriteString(w.styles.bold.Render(w.inline(n)))
		}

	case *east.Strikethrough:
		sb.WriteString(w.styles.strike.Render(w.inline(n)))

	case *east.TaskCheckBox:
		if n.IsChecked {
			sb.WriteString("[x] ")
		} else {
			sb.WriteString("[ ] ")
		}

	case *ast.CodeSpan:
		sb.WriteString(w.styles.code.Render(w.inline(n)))

	case *ast.Link:
		sb.WriteString(w.styles.link.Render(w.inline(n)))
		sb.WriteString(" " + w.styles.muted.Render("("+string(n.Destination)+")"))

	case *ast.AutoLink:
		sb.WriteString(w.styles.link.Render(string(n.URL(w.source))))

	case *ast.Image:
		sb.WriteString(w.styles.muted.Render("[image: " + w.inline(n) + "]"))

	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			sb.Write(seg.Value(w.source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			w.span(c, sb)
		}
	}
}
