// Package apperr defines the error taxonomy shared by the learning engine.
//
// Callers classify failures with errors.Is against the sentinels below.
// Only ErrConflict is expected to be recoverable by retrying after the
// caller has re-read the current state.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports malformed arguments such as a negative
	// response time or an unknown strategy.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict reports an operation that is not allowed in the current
	// state, e.g. a second active session or a wrong-state transition.
	ErrConflict = errors.New("conflict")

	// ErrNotFound reports an unknown session or record id.
	ErrNotFound = errors.New("not found")
)

// InvalidInput returns an error wrapping ErrInvalidInput.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Conflict returns an error wrapping ErrConflict.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// NotFound returns an error wrapping ErrNotFound.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
