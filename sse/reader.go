// Package sse reads and writes the server-sent event framing used between
// the chat client and the relay: one "data: {"content": ...}" line per
// fragment, terminated by "data: [DONE]".
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/parley"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// frame is the JSON payload of a data line.
type frame struct {
	Content string `json:"content"`
}

// Interface compliance check.
var _ parley.FragmentStream = (*Reader)(nil)

// Reader implements [parley.FragmentStream] over a streamed response body.
//
// Bytes pass through a streaming UTF-8 decoder, so a multi-byte character
// split across reads is held back until complete and invalid bytes become
// U+FFFD. Lines without the data prefix, payloads that are not valid JSON
// and frames with empty content are skipped. After the [DONE] marker the
// body is drained but nothing more is emitted. An unterminated final line
// is discarded.
type Reader struct {
	body  io.ReadCloser
	lines *bufio.Reader
	state parley.StreamState
	done  bool
	err   error
}

// NewReader returns a Reader over body. The Reader owns body and closes it
// on Close.
func NewReader(body io.ReadCloser) *Reader {
	return &Reader{
		body:  body,
		lines: bufio.NewReader(transform.NewReader(body, unicode.UTF8.NewDecoder())),
		state: parley.StreamStateNew,
	}
}

// Next returns the next content fragment. Returns io.EOF when the body ends.
func (r *Reader) Next() (string, error) {
	switch r.state {
	case parley.StreamStateComplete:
		return "", io.EOF
	case parley.StreamStateError:
		return "", r.err
	case parley.StreamStateClosed:
		return "", fmt.Errorf("sse: %w", parley.ErrStreamClosed)
	}

	for {
		line, err := r.lines.ReadString('\n')
		if err == io.EOF {
			r.state = parley.StreamStateComplete
			return "", io.EOF
		}
		if err != nil {
			r.state = parley.StreamStateError
			r.err = fmt.Errorf("sse: %w", err)
			return "", r.err
		}
		r.state = parley.StreamStateStreaming

		if content, ok := r.parseLine(line); ok {
			return content, nil
		}
	}
}

// State returns the current stream state.
func (r *Reader) State() parley.StreamState {
	return r.state
}

// Close closes the underlying body.
func (r *Reader) Close() error {
	if r.state != parley.StreamStateComplete && r.state != parley.StreamStateError {
		r.state = parley.StreamStateClosed
	}
	return r.body.Close()
}

func (r *Reader) parseLine(line string) (string, bool) {
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok || r.done {
		return "", false
	}
	payload = strings.TrimSpace(payload)
	if payload == doneMarker {
		r.done = true
		return "", false
	}
	var f frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return "", false
	}
	if f.Content == "" {
		return "", false
	}
	return f.Content, true
}
