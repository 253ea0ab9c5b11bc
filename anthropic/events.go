package anthropic

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// eventReader assembles named SSE events from a response body.
type eventReader struct {
	scanner *bufio.Scanner
}

func newEventReader(body io.Reader) *eventReader {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &eventReader{scanner: sc}
}

// forEachText calls fn with the text of every text_delta until message_stop.
// A body that ends before message_stop is an error.
func (r *eventReader) forEachText(fn func(string) error) error {
	for {
		eventType, data, err := r.next()
		if err == io.EOF {
			return fmt.Errorf("anthropic: unexpected end of stream")
		}
		if err != nil {
			return err
		}

		switch eventType {
		case "content_block_delta":
			var evt sseContentBlockDelta
			if err := json.Unmarshal([]byte(data), &evt); err != nil {
				return fmt.Errorf("anthropic: failed to parse content_block_delta: %w", err)
			}
			if evt.Delta.Type != "text_delta" || evt.Delta.Text == "" {
				continue
			}
			if err := fn(evt.Delta.Text); err != nil {
				return err
			}
		case "message_stop":
			return nil
		case "error":
			var evt sseError
			if err := json.Unmarshal([]byte(data), &evt); err != nil {
				return fmt.Errorf("anthropic: failed to parse error event: %w", err)
			}
			return fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message)
		default:
			// message_start, ping, content_block_start/stop, message_delta and
			// unknown event types carry no text.
		}
	}
}

// next reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (r *eventReader) next() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			// Empty line signals end of event.
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			continue
		}

		if v, ok := strings.CutPrefix(line, "event: "); ok {
			eventType = v
		} else if v, ok := strings.CutPrefix(line, "data: "); ok {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(v)
		}
		// Ignore comments (lines starting with ':') and unknown fields.
	}

	if err := r.scanner.Err(); err != nil {
		return "", "", fmt.Errorf("anthropic: %w", err)
	}
	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}
