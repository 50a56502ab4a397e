package spacedrep

import (
	"math"
	"time"

	"github.com/abhisek/lernapp/internal/apperr"
	"github.com/abhisek/lernapp/internal/mastery"
)

// Outcome is a single answer fed into the scheduler.
type Outcome struct {
	Correct      bool
	ResponseTime time.Duration
}

// ApplyOutcome returns the record updated for one answer given at now.
// The input record is not modified. A negative response time is rejected;
// every other input is accepted.
func ApplyOutcome(r mastery.Record, o Outcome, now time.Time) (mastery.Record, error) {
	if o.ResponseTime < 0 {
		return r, apperr.InvalidInput("negative response time %s", o.ResponseTime)
	}
	secs := o.ResponseTime.Seconds()

	r.Attempts++
	at := now
	r.LastAttemptAt = &at
	r.TotalTimeSeconds += secs
	// Incremental mean.
	r.AvgResponseSeconds += (secs - r.AvgResponseSeconds) / float64(r.Attempts)

	if o.Correct {
		r.CorrectAttempts++
		r.CorrectStreak++
	} else {
		r.IncorrectAttempts++
		r.CorrectStreak = 0
	}

	r.Confidence = mastery.ConfidenceFor(r.SuccessRate(), r.CorrectStreak)
	r.Level = mastery.LevelForStreak(r.CorrectStreak, r.Attempted())

	if o.Correct {
		r.ReviewCount++
		switch r.ReviewCount {
		case 1:
			r.IntervalDays = FirstIntervalDays
		case 2:
			r.IntervalDays = SecondIntervalDays
		default:
			r.IntervalDays = int(math.Round(float64(r.IntervalDays) * r.EasinessFactor))
		}
		r.EasinessFactor = math.Max(mastery.MinEasinessFactor, r.EasinessFactor+EasinessGain)
	} else {
		r.IntervalDays = FailureIntervalDays
		r.ReviewCount = 0
		r.EasinessFactor = math.Max(mastery.MinEasinessFactor, r.EasinessFactor-EasinessPenalty)
	}
	if r.IntervalDays < 1 {
		r.IntervalDays = 1
	}

	next := now.AddDate(0, 0, r.IntervalDays)
	r.NextReviewAt = &next
	return r, nil
}
