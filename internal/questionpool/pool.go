// Package questionpool describes the read-only question catalog the planner
// draws from. Question content lives elsewhere; the engine only sees ids,
// topics and difficulty tiers.
package questionpool

import (
	"context"
	"fmt"
)

// Difficulty represents a question's difficulty tier.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota + 1
	DifficultyMedium
	DifficultyHard
	DifficultyExpert
)

// AllDifficulties returns all tiers in ascending order.
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	case DifficultyExpert:
		return "expert"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// Valid reports whether d is one of the four known tiers.
func (d Difficulty) Valid() bool {
	return d >= DifficultyEasy && d <= DifficultyExpert
}

// ParseDifficulty converts a tier name back to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range AllDifficulties() {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

// Question is the slice of a question the engine cares about.
type Question struct {
	ID         string
	TopicID    string
	Difficulty Difficulty
}

// Filter narrows a pool query. Zero values mean "any".
type Filter struct {
	TopicID    string
	Difficulty Difficulty
}

// Matches reports whether q satisfies the filter.
func (f Filter) Matches(q Question) bool {
	if f.TopicID != "" && q.TopicID != f.TopicID {
		return false
	}
	if f.Difficulty != 0 && q.Difficulty != f.Difficulty {
		return false
	}
	return true
}

// Pool supplies candidate questions. Implementations must return each
// question id at most once per call.
type Pool interface {
	Query(ctx context.Context, f Filter) ([]Question, error)
}

// Lookup is implemented by pools that can resolve a single question by id.
// ok is false when the id is unknown.
type Lookup interface {
	Lookup(ctx context.Context, id string) (q Question, ok bool, err error)
}
