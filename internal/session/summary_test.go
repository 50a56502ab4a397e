package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_PracticeScenario(t *testing.T) {
	r := Score(KindPractice, 10, 8, 6)
	assert.InDelta(t, 0.75, r.Accuracy, 1e-9)
	assert.InDelta(t, 0.8, r.Completion, 1e-9)
	assert.InDelta(t, 76.5, r.Score, 1e-9)
	assert.Empty(t, r.Grade)
	assert.Equal(t, 60, r.Points)
}

func TestScore_Exam(t *testing.T) {
	tests := []struct {
		planned, answered, correct int
		grade                      string
		points                     int
	}{
		{10, 10, 10, "A", (100 + 100) * 2},
		{10, 10, 9, "A", (90 + 100) * 2},
		{10, 9, 8, "B", (80 + 50) * 2},
		{10, 10, 7, "C", 70 * 2},
		{10, 6, 6, "D", 60 * 2},
		{10, 10, 3, "F", 30 * 2},
		{10, 0, 0, "F", 0},
	}
	for _, tt := range tests {
		r := Score(KindExam, tt.planned, tt.answered, tt.correct)
		assert.Equal(t, tt.grade, r.Grade, "correct=%d", tt.correct)
		assert.Equal(t, tt.points, r.Points, "correct=%d", tt.correct)
		assert.InDelta(t, r.Percentage, r.Score, 1e-9)
	}
}

func TestScore_NothingAnswered(t *testing.T) {
	r := Score(KindQuick, 5, 0, 0)
	assert.Zero(t, r.Score)
	assert.Zero(t, r.Points)
}
