// Package relay connects the chat client to upstream models over HTTP.
//
// The Handler serves POST /api/{model}: it forwards the conversation to a
// [parley.Generator] and streams the reply back as SSE frames. The Client is
// the [parley.Completer] that calls it.
package relay

import (
	"bytes"
	"encoding/json"

	"github.com/fwojciec/parley"
)

// DefaultModel is the route name served by default.
const DefaultModel = "deepseek-v3"

const apiPrefix = "/api/"

// chatRequest is the JSON body of POST /api/{model}.
type chatRequest struct {
	MessageHistory []parley.HistoryEntry `json:"messageHistory"`
	Prompt         string                `json:"prompt,omitempty"`
}

// BuildPrompt flattens a conversation into the single user message sent
// upstream: "Context: " followed by the history as JSON, then
// "Prompt: " and the prompt when it is non-empty.
func BuildPrompt(history []parley.HistoryEntry, prompt string) (string, error) {
	if history == nil {
		history = []parley.HistoryEntry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(history); err != nil {
		return "", err
	}
	out := "Context: " + string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	if prompt != "" {
		out += "Prompt: " + prompt
	}
	return out, nil
}
