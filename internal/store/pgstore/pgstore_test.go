package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lernapp/internal/apperr"
	"github.com/abhisek/lernapp/internal/mastery"
	"github.com/abhisek/lernapp/internal/questionpool"
	"github.com/abhisek/lernapp/internal/session"
)

// openTestStore connects to LERNAPP_TEST_DATABASE_URL and empties every
// table. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LERNAPP_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LERNAPP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn, PoolConfig{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.Pool().Exec(ctx,
		`TRUNCATE mastery_records, sessions, profiles, questions, answer_events RESTART IDENTITY`)
	require.NoError(t, err)
	return s
}

func TestMasteryRepository(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Mastery()

	got, err := repo.Get(ctx, "l-1", "q1")
	require.NoError(t, err)
	assert.Nil(t, got)

	next := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	rec := mastery.New("l-1", "q1", "algebra")
	rec.Attempts, rec.CorrectAttempts = 1, 1
	rec.Level = mastery.LevelLearning
	rec.NextReviewAt = &next
	require.NoError(t, repo.Upsert(ctx, rec))
	require.NoError(t, repo.Upsert(ctx, mastery.New("l-1", "q2", "geometry")))

	got, err = repo.Get(ctx, "l-1", "q1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, mastery.LevelLearning, got.Level)
	assert.True(t, next.Equal(*got.NextReviewAt))

	n, err := repo.ResetTopic(ctx, "l-1", "algebra")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := repo.ListByLearner(ctx, "l-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, mastery.New("l-1", "q1", "algebra"), all[0])
	assert.Equal(t, "q2", all[1].QuestionID)
}

func TestSessionRepository_OneActivePerLearner(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Sessions()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first, err := session.New(session.Params{ID: "s-1", LearnerID: "l-1", Kind: session.KindPractice, Planned: []string{"a", "b"}}, false, now)
	require.NoError(t, err)
	require.NoError(t, first.Start(now))
	require.NoError(t, repo.Save(ctx, first))

	active, err := repo.HasActive(ctx, "l-1")
	require.NoError(t, err)
	assert.True(t, active)

	second, err := session.New(session.Params{ID: "s-2", LearnerID: "l-1", Kind: session.KindPractice, Planned: []string{"a"}}, false, now)
	require.NoError(t, err)
	err = repo.Save(ctx, second)
	assert.True(t, errors.Is(err, apperr.ErrConflict), "got %v", err)

	_, err = first.SubmitAnswer("a", session.Answer{Correct: true, ResponseTime: time.Second, AnsweredAt: now})
	require.NoError(t, err)
	require.NoError(t, first.Complete(now.Add(time.Minute)))
	require.NoError(t, repo.Save(ctx, first))

	loaded, err := repo.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, loaded.Status)
	assert.Equal(t, []string{"a", "b"}, loaded.Planned)
	require.NotNil(t, loaded.Result)
	assert.Equal(t, first.Result.Points, loaded.Result.Points)

	_, err = repo.Load(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestProfileAndQuestions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	total, err := s.Profiles().AddPoints(ctx, "l-1", 1200)
	require.NoError(t, err)
	assert.Equal(t, 1200, total)
	level, err := s.Profiles().CurrentLevel(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, 2, level)

	require.NoError(t, s.Questions().Put(ctx,
		questionpool.Question{ID: "a", TopicID: "algebra", Difficulty: questionpool.DifficultyEasy},
		questionpool.Question{ID: "b", TopicID: "algebra", Difficulty: questionpool.DifficultyHard},
	))
	hard, err := s.Questions().Query(ctx, questionpool.Filter{Difficulty: questionpool.DifficultyHard})
	require.NoError(t, err)
	require.Len(t, hard, 1)
	assert.Equal(t, "b", hard[0].ID)

	_, ok, err := s.Questions().Lookup(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAnswerLogRepository_History(t *testing.T) {
	log := openTestStore(t).Answers()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, q := range []string{"a", "b", "c"} {
		require.NoError(t, log.AppendAnswer(ctx, session.AnswerEvent{
			SessionID:    "s-1",
			LearnerID:    "l-1",
			QuestionID:   q,
			Kind:         session.KindReview,
			Correct:      i != 1,
			ResponseTime: 2 * time.Second,
			AnsweredAt:   at.Add(time.Duration(i) * time.Minute),
		}))
	}

	latest, err := log.History(ctx, "l-1", "", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "b", latest[0].QuestionID)
	assert.Equal(t, "c", latest[1].QuestionID)
	assert.False(t, latest[0].Correct)
	assert.Equal(t, session.KindReview, latest[1].Kind)
	assert.Equal(t, 2*time.Second, latest[1].ResponseTime)

	all, err := log.History(ctx, "l-1", "s-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	other, err := log.History(ctx, "l-1", "s-2", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}
