// Package gemini implements [parley.Generator] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK and forwards the text of every
// streamed chunk, skipping thought parts.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 8192
)
