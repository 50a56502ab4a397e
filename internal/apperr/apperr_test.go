package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestHelpersWrapSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"invalid", InvalidInput("count %d", -1), ErrInvalidInput},
		{"conflict", Conflict("session %s", "abc"), ErrConflict},
		{"not found", NotFound("session %s", "abc"), ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.want)
			}
			wrapped := fmt.Errorf("load: %w", tt.err)
			if !errors.Is(wrapped, tt.want) {
				t.Errorf("wrapped error lost sentinel: %v", wrapped)
			}
		})
	}
}

func TestMessageIncludesDetail(t *testing.T) {
	err := Conflict("learner %s already has an active session", "l-1")
	want := "conflict: learner l-1 already has an active session"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
