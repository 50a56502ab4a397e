package spacedrep

// Interval schedule for the first two successful reviews, in days.
// From the third success on, the interval grows by the easiness factor.
const (
	FirstIntervalDays  = 1
	SecondIntervalDays = 6
)

// Easiness factor adjustments.
const (
	EasinessGain    = 0.1
	EasinessPenalty = 0.2
)

// FailureIntervalDays is the interval applied after an incorrect answer.
const FailureIntervalDays = 1
