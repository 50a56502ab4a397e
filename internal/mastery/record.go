package mastery

import (
	"math"
	"time"
)

// Defaults applied to a freshly created record.
const (
	InitialEasinessFactor = 2.5
	MinEasinessFactor     = 1.3
	InitialIntervalDays   = 1
)

// Confidence weights.
const (
	successWeight   = 0.7
	streakStep      = 0.1
	streakBonusCap  = 0.3
	maxConfidence   = 1.0
	weakSuccessRate = 0.6
)

// Record holds the spaced repetition state of one learner on one question.
// It is identified by (LearnerID, QuestionID).
type Record struct {
	LearnerID  string
	QuestionID string
	TopicID    string

	Attempts          int
	CorrectAttempts   int
	IncorrectAttempts int
	CorrectStreak     int

	Confidence float64
	Level      Level

	EasinessFactor float64
	IntervalDays   int
	ReviewCount    int

	LastAttemptAt *time.Time
	NextReviewAt  *time.Time

	AvgResponseSeconds float64
	TotalTimeSeconds   float64
}

// New returns a record with creation defaults.
func New(learnerID, questionID, topicID string) Record {
	return Record{
		LearnerID:      learnerID,
		QuestionID:     questionID,
		TopicID:        topicID,
		Level:          LevelNotStarted,
		EasinessFactor: InitialEasinessFactor,
		IntervalDays:   InitialIntervalDays,
	}
}

// Reset returns the record reinitialized to its creation defaults,
// keeping only its identity and topic.
func Reset(r Record) Record {
	return New(r.LearnerID, r.QuestionID, r.TopicID)
}

// SuccessRate returns CorrectAttempts / Attempts, or 0 when never attempted.
func (r Record) SuccessRate() float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.CorrectAttempts) / float64(r.Attempts)
}

// Attempted reports whether the learner has answered the question at least once.
func (r Record) Attempted() bool {
	return r.Attempts > 0
}

// IsWeak reports whether the question counts as a weakness: attempted with a
// success rate below 60%.
func (r Record) IsWeak() bool {
	return r.Attempts > 0 && r.SuccessRate() < weakSuccessRate
}

// ConfidenceFor computes the derived confidence in [0,1] from the success
// rate and the current streak.
func ConfidenceFor(successRate float64, streak int) float64 {
	bonus := math.Min(float64(streak)*streakStep, streakBonusCap)
	c := math.Min(maxConfidence, successRate*successWeight+bonus)
	if c < 0 {
		return 0
	}
	return c
}
