package parley

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	UserMsg   int // User message accent
	Assistant int // Assistant message accent
	Thinking  int // "Thinking..." indicator
	Error     int // Failed replies, status errors
	Selected  int // Highlighted sidebar entry
	Muted     int // Dates, status bar, placeholders
	CodeBg    int // Code block background
	Accent    int // Headings, links, focused border
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:   4,
		Assistant: 2,
		Thinking:  8,
		Error:     1,
		Selected:  6,
		Muted:     8,
		CodeBg:    0,
		Accent:    5,
	}
}
