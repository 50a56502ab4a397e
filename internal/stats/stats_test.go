package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lernapp/internal/mastery"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(topic, question string, correct, incorrect int, level mastery.Level, next time.Time) mastery.Record {
	r := mastery.New("l-1", question, topic)
	r.Attempts = correct + incorrect
	r.CorrectAttempts = correct
	r.IncorrectAttempts = incorrect
	r.Level = level
	r.Confidence = mastery.ConfidenceFor(r.SuccessRate(), 0)
	r.AvgResponseSeconds = 4
	r.TotalTimeSeconds = 4 * float64(r.Attempts)
	r.NextReviewAt = &next
	return r
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, nil, now)
	assert.Zero(t, s.Attempted)
	assert.Zero(t, s.Accuracy)
	assert.Zero(t, s.ResponseMedian)
	assert.Empty(t, s.Topics)
	assert.Len(t, s.Levels, len(mastery.Levels))
}

func TestCompute_Totals(t *testing.T) {
	records := []mastery.Record{
		record("algebra", "q1", 5, 0, mastery.LevelMastered, now.AddDate(0, 0, 10)),
		record("algebra", "q2", 1, 3, mastery.LevelLearning, now.Add(-time.Hour)),
		record("geometry", "q3", 2, 0, mastery.LevelLearning, now.AddDate(0, 0, 1)),
		mastery.New("l-1", "q4", "geometry"),
	}

	s := Compute(records, nil, now)

	assert.Equal(t, 4, s.Tracked)
	assert.Equal(t, 3, s.Attempted)
	assert.Equal(t, 1, s.Mastered)
	assert.Equal(t, 1, s.Due)
	assert.Equal(t, 1, s.Weak)
	assert.InDelta(t, 8.0/11.0, s.Accuracy, 1e-9)
	assert.Equal(t, 44*time.Second, s.TotalTime)
	assert.InDelta(t, 4.0, s.ResponseMean, 1e-9)
	assert.InDelta(t, 4.0, s.ResponseMedian, 1e-9)
	assert.InDelta(t, 4.0, s.ResponseP90, 1e-9)
	assert.Equal(t, 1, s.Levels[mastery.LevelMastered])
	assert.Equal(t, 2, s.Levels[mastery.LevelLearning])
	assert.Equal(t, 1, s.Levels[mastery.LevelNotStarted])

	require.Len(t, s.Topics, 2)
	assert.Equal(t, "algebra", s.Topics[0].TopicID)

	geo, ok := s.Topic("geometry")
	require.True(t, ok)
	assert.Equal(t, 2, geo.Questions)
	assert.Equal(t, 1, geo.Attempted)
	assert.InDelta(t, 1.0, geo.Accuracy, 1e-9)
	assert.InDelta(t, 0.7, geo.AvgConfidence, 1e-9)

	_, ok = s.Topic("calculus")
	assert.False(t, ok)
}

func TestCompute_TopicProgressAgainstPool(t *testing.T) {
	records := []mastery.Record{
		record("algebra", "q1", 5, 0, mastery.LevelMastered, now.AddDate(0, 0, 10)),
		record("algebra", "q2", 4, 0, mastery.LevelProficient, now.AddDate(0, 0, 6)),
		record("algebra", "q3", 1, 1, mastery.LevelLearning, now.Add(-time.Hour)),
	}
	sizes := map[string]int{"algebra": 10, "geometry": 4}

	s := Compute(records, sizes, now)
	require.Len(t, s.Topics, 2)

	alg, ok := s.Topic("algebra")
	require.True(t, ok)
	assert.Equal(t, 10, alg.Questions)
	assert.Equal(t, 3, alg.Attempted)
	assert.Equal(t, 1, alg.Proficient)
	assert.Equal(t, 1, alg.Mastered)
	assert.InDelta(t, 30.0, alg.CompletionPct, 1e-9)
	assert.InDelta(t, 10.0, alg.MasteryPct, 1e-9)

	geo, ok := s.Topic("geometry")
	require.True(t, ok, "pool topics without records are reported")
	assert.Equal(t, 4, geo.Questions)
	assert.Zero(t, geo.Attempted)
	assert.Zero(t, geo.CompletionPct)
	assert.Zero(t, geo.AvgConfidence)
}

func TestCompute_TopicSizeUnknownFallsBackToRecords(t *testing.T) {
	records := []mastery.Record{
		record("algebra", "q1", 5, 0, mastery.LevelMastered, now.AddDate(0, 0, 10)),
		record("algebra", "q2", 0, 2, mastery.LevelLearning, now),
	}

	alg, ok := Compute(records, nil, now).Topic("algebra")
	require.True(t, ok)
	assert.Equal(t, 2, alg.Questions)
	assert.InDelta(t, 100.0, alg.CompletionPct, 1e-9)
	assert.InDelta(t, 50.0, alg.MasteryPct, 1e-9)
}
