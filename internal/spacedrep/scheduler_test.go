package spacedrep

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lernapp/internal/apperr"
	"github.com/abhisek/lernapp/internal/mastery"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func correct(rt time.Duration) Outcome { return Outcome{Correct: true, ResponseTime: rt} }
func wrong(rt time.Duration) Outcome   { return Outcome{Correct: false, ResponseTime: rt} }

func TestApplyOutcome_FirstCorrectAnswer(t *testing.T) {
	r, err := ApplyOutcome(mastery.New("l-1", "q-1", "t-1"), correct(5*time.Second), t0)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Attempts)
	assert.Equal(t, 1, r.CorrectAttempts)
	assert.Equal(t, 0, r.IncorrectAttempts)
	assert.Equal(t, 1, r.CorrectStreak)
	assert.Equal(t, 1, r.IntervalDays)
	assert.Equal(t, 1, r.ReviewCount)
	assert.InDelta(t, 0.8, r.Confidence, 1e-9)
	assert.Equal(t, mastery.LevelLearning, r.Level)
	assert.InDelta(t, 2.6, r.EasinessFactor, 1e-9)
	assert.InDelta(t, 5.0, r.AvgResponseSeconds, 1e-9)
	assert.InDelta(t, 5.0, r.TotalTimeSeconds, 1e-9)
	require.NotNil(t, r.LastAttemptAt)
	assert.True(t, r.LastAttemptAt.Equal(t0))
	require.NotNil(t, r.NextReviewAt)
	assert.True(t, r.NextReviewAt.Equal(t0.AddDate(0, 0, 1)))
}

func TestApplyOutcome_DoesNotMutateInput(t *testing.T) {
	in := mastery.New("l-1", "q-1", "")
	_, err := ApplyOutcome(in, correct(time.Second), t0)
	require.NoError(t, err)
	assert.Equal(t, mastery.New("l-1", "q-1", ""), in)
}

func TestApplyOutcome_IntervalProgression(t *testing.T) {
	r := mastery.New("l", "q", "")
	now := t0
	wantIntervals := []int{1, 6, 16, 45}
	wantEF := []float64{2.6, 2.7, 2.8, 2.9}
	for i, want := range wantIntervals {
		var err error
		r, err = ApplyOutcome(r, correct(3*time.Second), now)
		require.NoError(t, err)
		assert.Equal(t, want, r.IntervalDays, "interval after success %d", i+1)
		assert.InDelta(t, wantEF[i], r.EasinessFactor, 1e-9, "EF after success %d", i+1)
		assert.True(t, r.NextReviewAt.Equal(now.AddDate(0, 0, want)))
		now = *r.NextReviewAt
	}
}

func TestApplyOutcome_LevelClimbsWithStreak(t *testing.T) {
	r := mastery.New("l", "q", "")
	want := []mastery.Level{
		mastery.LevelLearning,
		mastery.LevelLearning,
		mastery.LevelFamiliar,
		mastery.LevelProficient,
		mastery.LevelMastered,
		mastery.LevelMastered,
	}
	for i, lvl := range want {
		var err error
		r, err = ApplyOutcome(r, correct(time.Second), t0)
		require.NoError(t, err)
		assert.Equal(t, lvl, r.Level, "after %d correct answers", i+1)
	}
}

func TestApplyOutcome_FailureResets(t *testing.T) {
	r := mastery.New("l", "q", "")
	for i := 0; i < 5; i++ {
		var err error
		r, err = ApplyOutcome(r, correct(time.Second), t0)
		require.NoError(t, err)
	}
	require.Equal(t, mastery.LevelMastered, r.Level)
	efBefore := r.EasinessFactor

	r, err := ApplyOutcome(r, wrong(2*time.Second), t0)
	require.NoError(t, err)
	assert.Equal(t, 0, r.CorrectStreak)
	assert.Equal(t, 1, r.IntervalDays)
	assert.Equal(t, 0, r.ReviewCount)
	assert.Equal(t, mastery.LevelLearning, r.Level)
	assert.InDelta(t, efBefore-0.2, r.EasinessFactor, 1e-9)
	assert.True(t, r.NextReviewAt.Equal(t0.AddDate(0, 0, 1)))
}

func TestApplyOutcome_FirstAnswerWrong(t *testing.T) {
	r, err := ApplyOutcome(mastery.New("l", "q", ""), wrong(4*time.Second), t0)
	require.NoError(t, err)
	assert.Equal(t, 1, r.IncorrectAttempts)
	assert.Equal(t, mastery.LevelLearning, r.Level)
	assert.Equal(t, 0.0, r.Confidence)
	assert.InDelta(t, 2.3, r.EasinessFactor, 1e-9)
}

func TestApplyOutcome_EasinessFloor(t *testing.T) {
	r := mastery.New("l", "q", "")
	for i := 0; i < 20; i++ {
		var err error
		r, err = ApplyOutcome(r, wrong(time.Second), t0)
		require.NoError(t, err)
	}
	assert.Equal(t, mastery.MinEasinessFactor, r.EasinessFactor)
}

func TestApplyOutcome_IncrementalMean(t *testing.T) {
	r := mastery.New("l", "q", "")
	for _, secs := range []int{2, 4, 9} {
		var err error
		r, err = ApplyOutcome(r, correct(time.Duration(secs)*time.Second), t0)
		require.NoError(t, err)
	}
	assert.InDelta(t, 5.0, r.AvgResponseSeconds, 1e-9)
	assert.InDelta(t, 15.0, r.TotalTimeSeconds, 1e-9)
}

func TestApplyOutcome_NegativeResponseTime(t *testing.T) {
	in := mastery.New("l", "q", "")
	out, err := ApplyOutcome(in, correct(-time.Second), t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Equal(t, in, out)
}

func TestApplyOutcome_InvariantsOverRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for seq := 0; seq < 50; seq++ {
		r := mastery.New("l", "q", "")
		now := t0
		for i := 0; i < 40; i++ {
			o := Outcome{
				Correct:      rng.Intn(3) > 0,
				ResponseTime: time.Duration(rng.Intn(30000)) * time.Millisecond,
			}
			prevStreak := r.CorrectStreak
			var err error
			r, err = ApplyOutcome(r, o, now)
			require.NoError(t, err)

			require.Equal(t, r.Attempts, r.CorrectAttempts+r.IncorrectAttempts)
			require.GreaterOrEqual(t, r.Confidence, 0.0)
			require.LessOrEqual(t, r.Confidence, 1.0)
			require.GreaterOrEqual(t, r.EasinessFactor, mastery.MinEasinessFactor)
			require.GreaterOrEqual(t, r.IntervalDays, 1)
			require.NotEqual(t, mastery.LevelNotStarted, r.Level)
			if o.Correct {
				require.Equal(t, prevStreak+1, r.CorrectStreak)
			} else {
				require.Equal(t, 0, r.CorrectStreak)
				require.Equal(t, 1, r.IntervalDays)
			}
			now = now.Add(time.Duration(rng.Intn(72)) * time.Hour)
		}
	}
}
