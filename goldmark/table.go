package goldmark

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// table lays out a GFM table with columns sized to their widest cell.
// Tables are not reflowed; wide tables overflow the pane like code does.
func (w *writer) table(node *east.Table, buf *bytes.Buffer) {
	var rows [][]string
	header := -1
	for r := node.FirstChild(); r != nil; r = r.NextSibling() {
		if _, ok := r.(*east.TableHeader); ok {
			header = len(rows)
		}
		rows = append(rows, w.cells(r))
	}

	widths := make([]int, len(node.Alignments))
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	sep := w.styles.muted.Render(" │ ")
	for ri, row := range rows {
		out := make([]string, len(widths))
		for i := range widths {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			if ri == header {
				cell = w.styles.bold.Render(cell)
			}
			out[i] = align(cell, widths[i], node.Alignments[i])
		}
		w.line(strings.TrimRight(strings.Join(out, sep), " "), buf)
		if ri == header {
			rules := make([]string, len(widths))
			for i, width := range widths {
				rules[i] = strings.Repeat("─", width)
			}
			w.line(w.styles.muted.Render(strings.Join(rules, "─┼─")), buf)
		}
	}
}

func (w *writer) cells(row ast.Node) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, w.inline(c))
	}
	return cells
}

func align(cell string, width int, a east.Alignment) string {
	gap := width - lipgloss.Width(cell)
	if gap <= 0 {
		return cell
	}
	switch a {
	case east.AlignRight:
		return strings.Repeat(" ", gap) + cell
	case east.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	default:
		return cell + strings.Repeat(" ", gap)
	}
}
