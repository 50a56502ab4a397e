package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/lernapp/internal/mastery"
	"github.com/abhisek/lernapp/internal/stats"
)

func TestWriteProgress(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	next := now.AddDate(0, 0, 6)

	a := mastery.New("l-1", "q2", "algebra")
	a.Attempts, a.CorrectAttempts, a.CorrectStreak = 2, 2, 2
	a.Level = mastery.LevelLearning
	a.NextReviewAt = &next
	b := mastery.New("l-1", "q1", "algebra")
	records := []mastery.Record{a, b}

	var buf bytes.Buffer
	require.NoError(t, WriteProgress(&buf, "l-1", records, stats.Compute(records, map[string]int{"algebra": 4}, now), now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ProgressSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Question", rows[0][0])
	assert.Equal(t, "q1", rows[1][0])
	assert.Equal(t, "not_started", rows[1][2])
	assert.Equal(t, "new", rows[1][11])
	assert.Equal(t, "q2", rows[2][0])
	assert.Equal(t, "2026-03-07", rows[2][10])
	assert.Equal(t, "not_due", rows[2][11])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Learner", "l-1"}, summary[0])
	assert.Equal(t, "Attempted", summary[3][0])
	assert.Equal(t, "1", summary[3][1])
	topic := summary[len(summary)-1]
	assert.Equal(t, "algebra", topic[0])
	assert.Equal(t, "4", topic[1])
	assert.Equal(t, "25", topic[4], "one of four pool questions attempted")
}
