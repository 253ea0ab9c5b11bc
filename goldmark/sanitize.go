package goldmark

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize strips escape sequences and control characters from upstream
// text so a reply cannot restyle or move the terminal cursor. Tabs and
// newlines survive, CRLF becomes LF and a lone CR overwrites the start of
// its line the way a terminal would.
func Sanitize(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' || (r > 0x1F && r != 0x7F) {
			b.WriteRune(r)
		}
	}
	s = b.String()
	if !strings.ContainsRune(s, '\r') {
		return s
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.ContainsRune(line, '\r') {
			lines[i] = overwrite(line)
		}
	}
	return strings.Join(lines, "\n")
}

// overwrite applies each CR in line: the following text replaces runes
// from column zero, leaving any longer tail in place.
func overwrite(line string) string {
	segments := strings.Split(line, "\r")
	buf := []rune(segments[0])
	for _, seg := range segments[1:] {
		for j, r := range []rune(seg) {
			if j < len(buf) {
				buf[j] = r
			} else {
				buf = append(buf, r)
			}
		}
	}
	return string(buf)
}
