package mastery

import "fmt"

// Level represents a question's position in the mastery lifecycle.
// Levels are ordered; a higher value means stronger retention.
type Level int

const (
	LevelNotStarted Level = iota
	LevelLearning
	LevelFamiliar
	LevelProficient
	LevelMastered
)

var levelNames = [...]string{
	LevelNotStarted: "not_started",
	LevelLearning:   "learning",
	LevelFamiliar:   "familiar",
	LevelProficient: "proficient",
	LevelMastered:   "mastered",
}

// Levels lists every level in ascending order.
var Levels = []Level{LevelNotStarted, LevelLearning, LevelFamiliar, LevelProficient, LevelMastered}

func (l Level) String() string {
	if l < LevelNotStarted || l > LevelMastered {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel converts the persisted name back into a Level.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelNotStarted, fmt.Errorf("unknown mastery level %q", s)
}

// Streak thresholds for each level.
const (
	StreakForMastered   = 5
	StreakForProficient = 4
	StreakForFamiliar   = 3
)

// LevelForStreak derives the mastery level from the current correct streak.
// A streak of one or two stays in Learning; a broken streak drops back to
// Learning once the question has been attempted, never to NotStarted.
func LevelForStreak(streak int, attempted bool) Level {
	switch {
	case streak >= StreakForMastered:
		return LevelMastered
	case streak >= StreakForProficient:
		return LevelProficient
	case streak >= StreakForFamiliar:
		return LevelFamiliar
	case streak >= 1:
		return LevelLearning
	case attempted:
		return LevelLearning
	default:
		return LevelNotStarted
	}
}
