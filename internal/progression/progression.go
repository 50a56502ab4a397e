// Package progression converts session results into learner points and
// levels.
package progression

import "context"

const (
	pointsPerCorrect   = 10
	excellentBonus     = 100
	goodBonus          = 50
	excellentThreshold = 90.0
	goodThreshold      = 80.0
	examMultiplier     = 2

	pointsPerLevel = 1000
	MaxLevel       = 100
)

// Points returns the points earned by a finished session. The percentage
// bonus tiers are exclusive; the higher one wins. Exam sessions earn double.
func Points(correct int, percentage float64, exam bool) int {
	if correct < 0 {
		correct = 0
	}
	pts := correct * pointsPerCorrect
	switch {
	case percentage >= excellentThreshold:
		pts += excellentBonus
	case percentage >= goodThreshold:
		pts += goodBonus
	}
	if exam {
		pts *= examMultiplier
	}
	return pts
}

// Level returns the learner level for a running point total, capped at
// MaxLevel.
func Level(totalPoints int) int {
	if totalPoints < 0 {
		totalPoints = 0
	}
	return min(1+totalPoints/pointsPerLevel, MaxLevel)
}

// Profile is the learner-profile collaborator that stores point totals.
type Profile interface {
	// AddPoints adds points to the learner and returns the new total.
	AddPoints(ctx context.Context, learnerID string, points int) (int, error)

	// CurrentLevel returns the learner's level.
	CurrentLevel(ctx context.Context, learnerID string) (int, error)
}
