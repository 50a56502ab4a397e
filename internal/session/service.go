package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/lernapp/internal/apperr"
	"github.com/abhisek/lernapp/internal/mastery"
	"github.com/abhisek/lernapp/internal/progression"
	"github.com/abhisek/lernapp/internal/questionpool"
	"github.com/abhisek/lernapp/internal/spacedrep"
	"github.com/abhisek/lernapp/internal/stats"
)

// MasteryStore persists mastery records keyed by (learner, question).
type MasteryStore interface {
	// Get returns nil, nil when the learner has never answered the question.
	Get(ctx context.Context, learnerID, questionID string) (*mastery.Record, error)
	Upsert(ctx context.Context, r mastery.Record) error
	ListByLearner(ctx context.Context, learnerID string) ([]mastery.Record, error)
	// ResetTopic reinitializes the learner's records for a topic and
	// returns how many were affected.
	ResetTopic(ctx context.Context, learnerID, topicID string) (int, error)
}

// SessionStore persists sessions.
type SessionStore interface {
	HasActive(ctx context.Context, learnerID string) (bool, error)
	Save(ctx context.Context, s *Session) error
	// Load fails with apperr.ErrNotFound for unknown ids.
	Load(ctx context.Context, id string) (*Session, error)
	// ListIdle returns non-terminal sessions whose last activity is before
	// the given time.
	ListIdle(ctx context.Context, before time.Time) ([]*Session, error)
}

// AnswerEvent is one submitted answer, as recorded in the event log.
type AnswerEvent struct {
	SessionID    string
	LearnerID    string
	QuestionID   string
	Kind         Kind
	Correct      bool
	First        bool
	ResponseTime time.Duration
	AnsweredAt   time.Time
}

// EventLog records answer events for history and analytics.
type EventLog interface {
	AppendAnswer(ctx context.Context, e AnswerEvent) error
}

// Config tunes the service.
type Config struct {
	// IdleTimeout is the age after which a non-terminal session is swept.
	IdleTimeout time.Duration

	// TimeLimits maps a kind to the time limit of new sessions of that kind.
	TimeLimits map[Kind]time.Duration

	// SweepConcurrency bounds the sessions timed out in parallel.
	SweepConcurrency int
}

// DefaultConfig returns the defaults used when no configuration is loaded.
func DefaultConfig() Config {
	return Config{
		IdleTimeout: 24 * time.Hour,
		TimeLimits: map[Kind]time.Duration{
			KindExam:  90 * time.Minute,
			KindQuick: 15 * time.Minute,
		},
		SweepConcurrency: 4,
	}
}

// Deps are the collaborators of a Service. Events and Logger are optional.
type Deps struct {
	Pool     questionpool.Pool
	Mastery  MasteryStore
	Sessions SessionStore
	Profile  progression.Profile
	Events   EventLog
	Logger   *zap.Logger
	Rand     *rand.Rand
}

// Service orchestrates planning, session transitions and mastery updates.
// All mutations of one session are serialized, as are session creations of
// one learner.
type Service struct {
	pool     questionpool.Pool
	planner  *Planner
	mastery  MasteryStore
	sessions SessionStore
	profile  progression.Profile
	events   EventLog
	logger   *zap.Logger
	cfg      Config

	now   func() time.Time
	newID func() string

	learnerLocks keyedMutex
	sessionLocks keyedMutex
}

// NewService creates a service.
func NewService(deps Deps, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SweepConcurrency <= 0 {
		cfg.SweepConcurrency = 1
	}
	s := &Service{
		pool:     deps.Pool,
		planner:  NewPlanner(deps.Pool, deps.Mastery, deps.Rand),
		mastery:  deps.Mastery,
		sessions: deps.Sessions,
		profile:  deps.Profile,
		events:   deps.Events,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	return s
}

// SetClock overrides the time source. It must be called before the service
// is shared between goroutines.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.planner.SetClock(now)
}

// Planner returns the planner used for new sessions.
func (s *Service) Planner() *Planner {
	return s.planner
}

// CreateRequest describes a new session.
type CreateRequest struct {
	LearnerID string
	Kind      Kind
	Count     int
	TopicID   string
}

// Create plans and persists a new NotStarted session. It fails with
// ErrConflict when the learner already has an active session.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Session, *Plan, error) {
	if req.LearnerID == "" {
		return nil, nil, apperr.InvalidInput("learner id is required")
	}

	unlock := s.learnerLocks.Lock(req.LearnerID)
	defer unlock()

	active, err := s.sessions.HasActive(ctx, req.LearnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("check active session: %w", err)
	}
	if active {
		return nil, nil, apperr.Conflict("learner %s already has an active session", req.LearnerID)
	}

	plan, err := s.planner.Plan(ctx, Request{
		LearnerID: req.LearnerID,
		Kind:      req.Kind,
		Count:     req.Count,
		TopicID:   req.TopicID,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(plan.QuestionIDs) == 0 {
		return nil, plan, apperr.InvalidInput("no questions available for %s", req.Kind)
	}

	sess, err := New(Params{
		ID:        s.newID(),
		LearnerID: req.LearnerID,
		Kind:      req.Kind,
		TopicID:   req.TopicID,
		Planned:   plan.QuestionIDs,
		TimeLimit: s.cfg.TimeLimits[req.Kind],
	}, active, s.now())
	if err != nil {
		return nil, plan, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, plan, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("learner_id", sess.LearnerID),
		zap.String("kind", string(sess.Kind)),
		zap.Int("planned", len(sess.Planned)),
		zap.Bool("partial", plan.Partial),
	)
	return sess, plan, nil
}

// Get loads a session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.sessions.Load(ctx, id)
}

// Start starts a NotStarted session.
func (s *Service) Start(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		return sess.Start(now)
	})
}

// Pause pauses a running session.
func (s *Service) Pause(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		return sess.Pause(now)
	})
}

// Resume resumes a paused session. If its time limit has passed the session
// is returned TimedOut and scored.
func (s *Service) Resume(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		timedOut, err := sess.Resume(now)
		if timedOut {
			s.logger.Info("session timed out on resume", zap.String("session_id", sess.ID))
		}
		return err
	})
}

// Complete finalizes and scores a session, awarding its points. Completing
// a finalized session whose points were not yet awarded retries the award.
func (s *Service) Complete(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		if sess.AwardPending() {
			return nil
		}
		return sess.Complete(now)
	})
}

// Abandon ends a session without scoring it.
func (s *Service) Abandon(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		return sess.Abandon(now)
	})
}

// SubmitAnswer records an answer and, outside exams, feeds it to the
// learner's spaced repetition schedule. The returned record is nil for exam
// sessions.
func (s *Service) SubmitAnswer(ctx context.Context, id, questionID string, correct bool, responseTime time.Duration) (*Session, *mastery.Record, error) {
	if responseTime < 0 {
		return nil, nil, apperr.InvalidInput("negative response time %s", responseTime)
	}

	unlock := s.sessionLocks.Lock(id)
	defer unlock()

	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load session %s: %w", id, err)
	}
	now := s.now()
	first, err := sess.SubmitAnswer(questionID, Answer{
		Correct:      correct,
		ResponseTime: responseTime,
		AnsweredAt:   now,
	})
	if err != nil {
		return nil, nil, err
	}

	// The schedule is written before the session so a failed upsert leaves
	// the answer uncounted and the learner can resubmit it.
	var rec *mastery.Record
	if sess.Kind.UpdatesMastery() {
		updated, err := s.nextMastery(ctx, sess, questionID, correct, responseTime, now)
		if err != nil {
			return nil, nil, err
		}
		if err := s.mastery.Upsert(ctx, updated); err != nil {
			return nil, nil, fmt.Errorf("upsert mastery: %w", err)
		}
		rec = &updated
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("save session %s: %w", id, err)
	}

	if s.events != nil {
		ev := AnswerEvent{
			SessionID:    sess.ID,
			LearnerID:    sess.LearnerID,
			QuestionID:   questionID,
			Kind:         sess.Kind,
			Correct:      correct,
			First:        first,
			ResponseTime: responseTime,
			AnsweredAt:   now,
		}
		if err := s.events.AppendAnswer(ctx, ev); err != nil {
			s.logger.Warn("append answer event failed",
				zap.String("session_id", sess.ID), zap.Error(err))
		}
	}
	return sess, rec, nil
}

// nextMastery loads (or creates) the record for questionID and applies the
// outcome to it without persisting.
func (s *Service) nextMastery(ctx context.Context, sess *Session, questionID string, correct bool, rt time.Duration, now time.Time) (mastery.Record, error) {
	existing, err := s.mastery.Get(ctx, sess.LearnerID, questionID)
	if err != nil {
		return mastery.Record{}, fmt.Errorf("get mastery: %w", err)
	}
	var rec mastery.Record
	if existing != nil {
		rec = *existing
	} else {
		topic, err := s.topicOf(ctx, sess, questionID)
		if err != nil {
			return mastery.Record{}, err
		}
		rec = mastery.New(sess.LearnerID, questionID, topic)
	}
	return spacedrep.ApplyOutcome(rec, spacedrep.Outcome{Correct: correct, ResponseTime: rt}, now)
}

func (s *Service) topicOf(ctx context.Context, sess *Session, questionID string) (string, error) {
	lookup, ok := s.pool.(questionpool.Lookup)
	if !ok {
		return sess.TopicID, nil
	}
	q, found, err := lookup.Lookup(ctx, questionID)
	if err != nil {
		return "", fmt.Errorf("lookup question %s: %w", questionID, err)
	}
	if !found {
		return sess.TopicID, nil
	}
	return q.TopicID, nil
}

// SweepIdle times out every non-terminal session whose last activity is
// older than the idle timeout. It returns how many sessions were timed out.
func (s *Service) SweepIdle(ctx context.Context, now time.Time) (int, error) {
	if s.cfg.IdleTimeout <= 0 {
		return 0, nil
	}
	idle, err := s.sessions.ListIdle(ctx, now.Add(-s.cfg.IdleTimeout))
	if err != nil {
		return 0, fmt.Errorf("list idle sessions: %w", err)
	}

	var swept atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SweepConcurrency)
	for _, candidate := range idle {
		id := candidate.ID
		g.Go(func() error {
			_, err := s.mutateAt(ctx, id, now, func(sess *Session, now time.Time) error {
				return sess.TimeOut(now)
			})
			switch {
			case err == nil:
				swept.Add(1)
				return nil
			case errors.Is(err, apperr.ErrConflict):
				// Finished by its owner since the listing.
				return nil
			default:
				return fmt.Errorf("time out session %s: %w", id, err)
			}
		})
	}
	err = g.Wait()

	n := int(swept.Load())
	if n > 0 {
		s.logger.Info("idle sessions timed out", zap.Int("count", n))
	}
	return n, err
}

// DueReviews returns the learner's attempted records that are due at now,
// earliest first.
func (s *Service) DueReviews(ctx context.Context, learnerID string) ([]mastery.Record, error) {
	records, err := s.mastery.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list mastery records: %w", err)
	}
	now := s.now()
	var due []mastery.Record
	for _, r := range records {
		if r.Attempted() && spacedrep.IsDue(r, now) {
			due = append(due, r)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].NextReviewAt, due[j].NextReviewAt
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.Before(*b)
	})
	return due, nil
}

// ResetTopic returns the learner's records in a topic to their creation
// defaults.
func (s *Service) ResetTopic(ctx context.Context, learnerID, topicID string) (int, error) {
	if learnerID == "" || topicID == "" {
		return 0, apperr.InvalidInput("learner and topic ids are required")
	}
	n, err := s.mastery.ResetTopic(ctx, learnerID, topicID)
	if err != nil {
		return 0, fmt.Errorf("reset topic %s: %w", topicID, err)
	}
	s.logger.Info("topic progress reset",
		zap.String("learner_id", learnerID),
		zap.String("topic_id", topicID),
		zap.Int("records", n),
	)
	return n, nil
}

// Statistics summarizes the learner's mastery records. Topic progress is
// measured against the size of each topic's question pool.
func (s *Service) Statistics(ctx context.Context, learnerID string) (stats.Summary, []mastery.Record, error) {
	records, err := s.mastery.ListByLearner(ctx, learnerID)
	if err != nil {
		return stats.Summary{}, nil, fmt.Errorf("list mastery records: %w", err)
	}
	questions, err := s.pool.Query(ctx, questionpool.Filter{})
	if err != nil {
		return stats.Summary{}, nil, fmt.Errorf("query pool: %w", err)
	}
	sizes := make(map[string]int)
	for _, q := range questions {
		sizes[q.TopicID]++
	}
	return stats.Compute(records, sizes, s.now()), records, nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*Session, time.Time) error) (*Session, error) {
	return s.mutateAt(ctx, id, time.Time{}, fn)
}

// mutateAt loads the session under its lock, applies fn and saves it.
// A zero at means the service clock. Points are awarded while the session
// has a result that has not been awarded.
func (s *Service) mutateAt(ctx context.Context, id string, at time.Time, fn func(*Session, time.Time) error) (*Session, error) {
	unlock := s.sessionLocks.Lock(id)
	defer unlock()

	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if at.IsZero() {
		at = s.now()
	}

	from := sess.Status
	if err := fn(sess, at); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session %s: %w", id, err)
	}
	s.logger.Debug("session transition",
		zap.String("session_id", sess.ID),
		zap.String("from", string(from)),
		zap.String("to", string(sess.Status)),
	)

	if sess.AwardPending() {
		if err := s.award(ctx, sess); err != nil {
			return sess, err
		}
	}
	return sess, nil
}

func (s *Service) award(ctx context.Context, sess *Session) error {
	total, err := s.profile.AddPoints(ctx, sess.LearnerID, sess.Result.Points)
	if err != nil {
		return fmt.Errorf("award points for session %s: %w", sess.ID, err)
	}
	sess.Result.Awarded = true
	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save awarded session %s: %w", sess.ID, err)
	}
	s.logger.Info("session scored",
		zap.String("session_id", sess.ID),
		zap.String("status", string(sess.Status)),
		zap.Float64("score", sess.Result.Score),
		zap.Int("points", sess.Result.Points),
		zap.Int("total_points", total),
		zap.Int("level", progression.Level(total)),
	)
	return nil
}
