package parley

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates input or a request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrEmptyInput indicates a submission with no non-whitespace text.
	ErrEmptyInput = fmt.Errorf("empty input: %w", ErrValidation)

	// ErrBusy indicates a submission while an exchange is still in flight.
	ErrBusy = errors.New("exchange in flight")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrClosed indicates a submission to a Controller after Close.
	ErrClosed = errors.New("controller closed")

	// ErrNotFound indicates the requested session or model does not exist.
	ErrNotFound = errors.New("not found")
)

// ErrorReply replaces the assistant message content when an exchange fails.
const ErrorReply = "Sorry, I encountered an error. Please try again."
