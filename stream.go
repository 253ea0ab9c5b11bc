package parley

import "context"

// StreamState indicates the current state of a FragmentStream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving fragments.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// String returns the lowercase name of the state.
func (s StreamState) String() string {
	switch s {
	case StreamStateNew:
		return "new"
	case StreamStateStreaming:
		return "streaming"
	case StreamStateComplete:
		return "complete"
	case StreamStateError:
		return "error"
	case StreamStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// FragmentStream uses a pull-based iterator pattern over the text fragments
// of one assistant reply. Cancellation flows through the context passed to
// Completer.Stream().
//
// Next returns fragments in arrival order; concatenating them reconstructs
// the reply. It returns io.EOF when the body ends normally. Transport errors
// come from Next's error return, never as a fragment.
type FragmentStream interface {
	Next() (string, error)
	State() StreamState
	Close() error
}

// ChatRequest is one exchange sent to the relay: the conversation so far,
// ending with the new user message, and the prompt itself.
type ChatRequest struct {
	Model   string // empty = client default
	History []HistoryEntry
	Prompt  string
}

// Completer opens a streaming reply for a ChatRequest.
type Completer interface {
	Stream(ctx context.Context, req ChatRequest) (FragmentStream, error)
}

// GenerateRequest is a single prompt sent to an upstream model.
type GenerateRequest struct {
	Model  string // upstream model ID; empty = generator default
	Prompt string
}

// Generator produces a reply from an upstream model, calling onDelta for each
// piece of text as it arrives. Returning an error from onDelta stops
// generation and is returned from Generate.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest, onDelta func(string) error) error
}
