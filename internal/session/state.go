package session

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
	StatusTimedOut   Status = "timed_out"
)

// Terminal reports whether no further transitions (other than completing an
// unscored timeout) are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusAbandoned, StatusTimedOut:
		return true
	}
	return false
}

// ParseStatus converts a stored status name back to a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNotStarted, StatusInProgress, StatusPaused,
		StatusCompleted, StatusAbandoned, StatusTimedOut:
		return st, nil
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

// Answer is the learner's latest response to one planned question.
type Answer struct {
	Correct      bool          `json:"correct"`
	ResponseTime time.Duration `json:"response_time_ns"`
	AnsweredAt   time.Time     `json:"answered_at"`
}

// Result is computed once when a session is finalized.
type Result struct {
	// Accuracy is CorrectCount / AnsweredCount.
	Accuracy float64 `json:"accuracy"`

	// Completion is AnsweredCount / len(Planned).
	Completion float64 `json:"completion"`

	// Score is on a 0-100 scale. For exams it equals Percentage.
	Score float64 `json:"score"`

	// Percentage is CorrectCount * 100 / len(Planned).
	Percentage float64 `json:"percentage"`

	// Grade is the exam letter grade; empty for other kinds.
	Grade string `json:"grade,omitempty"`

	// Points is the progression award for the session.
	Points int `json:"points"`

	// Awarded is set once Points have been added to the learner profile.
	Awarded bool `json:"awarded"`
}
