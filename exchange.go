package parley

import "fmt"

// ExchangeState is the state of the one exchange a Controller may have in
// flight.
type ExchangeState int

const (
	ExchangeIdle      ExchangeState = iota // Ready for a submission.
	ExchangeAwaiting                       // Request sent, no fragment yet.
	ExchangeStreaming                      // At least one fragment received.
	ExchangeCompleted                      // Stream ended normally.
	ExchangeFailed                         // Request or stream failed.
)

// String returns the lowercase name of the state.
func (s ExchangeState) String() string {
	switch s {
	case ExchangeIdle:
		return "idle"
	case ExchangeAwaiting:
		return "awaiting"
	case ExchangeStreaming:
		return "streaming"
	case ExchangeCompleted:
		return "completed"
	case ExchangeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether a reply is still being received.
func (s ExchangeState) InFlight() bool {
	return s == ExchangeAwaiting || s == ExchangeStreaming
}

var exchangeTransitions = map[ExchangeState][]ExchangeState{
	ExchangeIdle:      {ExchangeAwaiting},
	ExchangeAwaiting:  {ExchangeStreaming, ExchangeCompleted, ExchangeFailed},
	ExchangeStreaming: {ExchangeStreaming, ExchangeCompleted, ExchangeFailed},
	ExchangeCompleted: {ExchangeIdle},
	ExchangeFailed:    {ExchangeIdle},
}

// CanTransition reports whether moving from s to next is allowed.
func (s ExchangeState) CanTransition(next ExchangeState) bool {
	for _, allowed := range exchangeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ExchangeState) transition(next ExchangeState) (ExchangeState, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("invalid exchange transition %s -> %s", s, next)
	}
	return next, nil
}
