package spacedrep

import (
	"time"

	"github.com/abhisek/lernapp/internal/mastery"
)

// IsDue returns true if the record has no scheduled review or the review
// time has been reached.
func IsDue(r mastery.Record, now time.Time) bool {
	return r.NextReviewAt == nil || !now.Before(*r.NextReviewAt)
}

// OverdueDays returns how many days past due the record is. Returns 0 if not
// yet due or never scheduled.
func OverdueDays(r mastery.Record, now time.Time) float64 {
	if r.NextReviewAt == nil || now.Before(*r.NextReviewAt) {
		return 0
	}
	return now.Sub(*r.NextReviewAt).Hours() / 24.0
}

// DaysUntilReview returns the number of days until the next review.
// Returns 0 if already due.
func DaysUntilReview(r mastery.Record, now time.Time) int {
	if IsDue(r, now) {
		return 0
	}
	return int(r.NextReviewAt.Sub(now).Hours()/24.0) + 1
}

// ReviewStatus describes a record's review status for display.
type ReviewStatus string

const (
	ReviewNew     ReviewStatus = "new"
	ReviewNotDue  ReviewStatus = "not_due"
	ReviewDue     ReviewStatus = "due"
	ReviewOverdue ReviewStatus = "overdue"
)

// Status returns the review status. A record is overdue once it has been
// due for longer than half of its current interval.
func Status(r mastery.Record, now time.Time) ReviewStatus {
	if !r.Attempted() {
		return ReviewNew
	}
	if !IsDue(r, now) {
		return ReviewNotDue
	}
	grace := float64(r.IntervalDays) * 0.5
	if OverdueDays(r, now) > grace {
		return ReviewOverdue
	}
	return ReviewDue
}
