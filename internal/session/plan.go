package session

import (
	"fmt"

	"github.com/abhisek/lernapp/internal/questionpool"
)

// Kind is both the session type and the strategy used to plan its questions.
type Kind string

const (
	KindPractice Kind = "practice"
	KindReview   Kind = "review"
	KindWeakness Kind = "weakness_training"
	KindExam     Kind = "exam_simulation"
	KindQuick    Kind = "quick_test"
)

// AllKinds returns every session kind.
func AllKinds() []Kind {
	return []Kind{KindPractice, KindReview, KindWeakness, KindExam, KindQuick}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPractice, KindReview, KindWeakness, KindExam, KindQuick:
		return true
	}
	return false
}

// UpdatesMastery reports whether answers in this kind of session feed the
// spaced repetition schedule. Exam answers are scored snapshots only.
func (k Kind) UpdatesMastery() bool {
	return k != KindExam
}

// ParseKind accepts the canonical names plus the short CLI aliases.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "practice":
		return KindPractice, nil
	case "review":
		return KindReview, nil
	case "weakness", "weakness_training":
		return KindWeakness, nil
	case "exam", "exam_simulation":
		return KindExam, nil
	case "quick", "quick_test":
		return KindQuick, nil
	}
	return "", fmt.Errorf("unknown session kind %q", s)
}

// QuickTestCap is the maximum size of a quick test regardless of the
// requested count.
const QuickTestCap = 10

// Exam tier proportions in percent. Expert absorbs the truncation remainder.
var examShares = []struct {
	difficulty questionpool.Difficulty
	percent    int
}{
	{questionpool.DifficultyEasy, 30},
	{questionpool.DifficultyMedium, 40},
	{questionpool.DifficultyHard, 20},
}

// ExamQuotas splits count across difficulty tiers as 30/40/20/10 percent
// with integer truncation; the remainder goes to the expert tier so the
// quotas always sum to count.
func ExamQuotas(count int) map[questionpool.Difficulty]int {
	quotas := make(map[questionpool.Difficulty]int, 4)
	if count <= 0 {
		return quotas
	}
	assigned := 0
	for _, s := range examShares {
		n := count * s.percent / 100
		quotas[s.difficulty] = n
		assigned += n
	}
	quotas[questionpool.DifficultyExpert] = count - assigned
	return quotas
}

// Request describes the question set a caller wants planned.
type Request struct {
	LearnerID string
	Kind      Kind
	Count     int
	TopicID   string // optional
}

// Plan is the ordered, deduplicated question list for a session.
type Plan struct {
	Kind        Kind
	TopicID     string
	Requested   int
	Target      int // Requested after kind-specific caps
	QuestionIDs []string

	// Partial is set when the pool could not supply Target distinct questions.
	Partial bool
}
