package session

import (
	"time"

	"github.com/abhisek/lernapp/internal/apperr"
)

// Session is one practice or exam run of a learner over a fixed, ordered
// list of questions. Methods are pure state transitions; persistence and
// locking belong to Service.
type Session struct {
	ID        string
	LearnerID string
	Kind      Kind
	TopicID   string

	// Planned is the ordered question list fixed at creation.
	Planned []string

	Status Status

	// Answers holds the latest answer per planned question.
	Answers map[string]Answer

	AnsweredCount int
	CorrectCount  int

	// TimeLimit bounds the time since start. Zero means unlimited.
	TimeLimit time.Duration

	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time

	// ResumedAt marks the start of the current running stretch. It is nil
	// while the session is not in progress.
	ResumedAt *time.Time

	// TimeSpent accumulates completed running stretches.
	TimeSpent time.Duration

	// Result is set once, when the session is finalized.
	Result *Result
}

// Params are the creation arguments of a session.
type Params struct {
	ID        string
	LearnerID string
	Kind      Kind
	TopicID   string
	Planned   []string
	TimeLimit time.Duration
}

// New creates a NotStarted session. activeExists must report whether the
// learner already has a non-terminal session; if so creation fails with
// ErrConflict.
func New(p Params, activeExists bool, now time.Time) (*Session, error) {
	if p.ID == "" || p.LearnerID == "" {
		return nil, apperr.InvalidInput("session and learner ids are required")
	}
	if !p.Kind.Valid() {
		return nil, apperr.InvalidInput("unknown session kind %q", p.Kind)
	}
	if len(p.Planned) == 0 {
		return nil, apperr.InvalidInput("session needs at least one planned question")
	}
	if p.TimeLimit < 0 {
		return nil, apperr.InvalidInput("negative time limit %s", p.TimeLimit)
	}
	seen := make(map[string]struct{}, len(p.Planned))
	for _, id := range p.Planned {
		if _, ok := seen[id]; ok {
			return nil, apperr.InvalidInput("question %s planned twice", id)
		}
		seen[id] = struct{}{}
	}
	if activeExists {
		return nil, apperr.Conflict("learner %s already has an active session", p.LearnerID)
	}

	planned := make([]string, len(p.Planned))
	copy(planned, p.Planned)

	return &Session{
		ID:        p.ID,
		LearnerID: p.LearnerID,
		Kind:      p.Kind,
		TopicID:   p.TopicID,
		Planned:   planned,
		Status:    StatusNotStarted,
		Answers:   make(map[string]Answer),
		TimeLimit: p.TimeLimit,
		CreatedAt: now,
	}, nil
}

// Start moves NotStarted to InProgress.
func (s *Session) Start(now time.Time) error {
	if s.Status != StatusNotStarted {
		return s.wrongState("start")
	}
	s.StartedAt = &now
	s.ResumedAt = &now
	s.Status = StatusInProgress
	return nil
}

// Pause moves InProgress to Paused and banks the running time.
func (s *Session) Pause(now time.Time) error {
	if s.Status != StatusInProgress {
		return s.wrongState("pause")
	}
	s.bankRunningTime(now)
	s.Status = StatusPaused
	return nil
}

// Resume moves Paused back to InProgress. A session whose time limit has
// elapsed is finalized as TimedOut instead; timedOut reports that case.
func (s *Session) Resume(now time.Time) (timedOut bool, err error) {
	if s.Status != StatusPaused {
		return false, s.wrongState("resume")
	}
	if s.Expired(now) {
		s.finalize(StatusTimedOut, now)
		return true, nil
	}
	s.ResumedAt = &now
	s.Status = StatusInProgress
	return false, nil
}

// SubmitAnswer records the answer to a planned question. Resubmitting an
// already answered question replaces the earlier answer without changing
// AnsweredCount. first reports whether this was the first answer.
func (s *Session) SubmitAnswer(questionID string, a Answer) (first bool, err error) {
	if s.Status != StatusInProgress {
		return false, s.wrongState("answer in")
	}
	if a.ResponseTime < 0 {
		return false, apperr.InvalidInput("negative response time %s", a.ResponseTime)
	}
	if !s.IsPlanned(questionID) {
		return false, apperr.InvalidInput("question %s is not part of session %s", questionID, s.ID)
	}

	prev, answered := s.Answers[questionID]
	s.Answers[questionID] = a

	if !answered {
		s.AnsweredCount++
	}
	switch {
	case !answered && a.Correct:
		s.CorrectCount++
	case answered && prev.Correct && !a.Correct:
		s.CorrectCount--
	case answered && !prev.Correct && a.Correct:
		s.CorrectCount++
	}
	return !answered, nil
}

// Complete finalizes the session as Completed. A TimedOut session that was
// never scored may still be completed.
func (s *Session) Complete(now time.Time) error {
	switch {
	case s.Status == StatusInProgress, s.Status == StatusPaused:
	case s.Status == StatusTimedOut && s.Result == nil:
	default:
		return s.wrongState("complete")
	}
	s.finalize(StatusCompleted, now)
	return nil
}

// Abandon ends a non-terminal session without scoring it.
func (s *Session) Abandon(now time.Time) error {
	if s.Status.Terminal() {
		return s.wrongState("abandon")
	}
	s.bankRunningTime(now)
	s.Status = StatusAbandoned
	s.EndedAt = &now
	return nil
}

// TimeOut ends a non-terminal session as TimedOut. It is used by the idle
// sweep.
func (s *Session) TimeOut(now time.Time) error {
	if s.Status.Terminal() {
		return s.wrongState("time out")
	}
	s.finalize(StatusTimedOut, now)
	return nil
}

// Expired reports whether the session's time limit has elapsed at now.
func (s *Session) Expired(now time.Time) bool {
	if s.TimeLimit <= 0 || s.StartedAt == nil {
		return false
	}
	return now.Sub(*s.StartedAt) >= s.TimeLimit
}

// IsPlanned reports whether questionID belongs to the session.
func (s *Session) IsPlanned(questionID string) bool {
	for _, id := range s.Planned {
		if id == questionID {
			return true
		}
	}
	return false
}

// AwardPending reports whether the session was scored but its points have
// not reached the learner profile yet.
func (s *Session) AwardPending() bool {
	return s.Result != nil && !s.Result.Awarded
}

// Active reports whether the session still blocks a new one for its learner.
func (s *Session) Active() bool {
	return !s.Status.Terminal()
}

// LastActivity returns the time the idle sweep measures from.
func (s *Session) LastActivity() time.Time {
	if s.StartedAt != nil {
		return *s.StartedAt
	}
	return s.CreatedAt
}

// Elapsed returns the running time including the current stretch.
func (s *Session) Elapsed(now time.Time) time.Duration {
	d := s.TimeSpent
	if s.ResumedAt != nil {
		d += now.Sub(*s.ResumedAt)
	}
	return d
}

func (s *Session) bankRunningTime(now time.Time) {
	if s.ResumedAt != nil {
		s.TimeSpent += now.Sub(*s.ResumedAt)
		s.ResumedAt = nil
	}
}

func (s *Session) finalize(status Status, now time.Time) {
	s.bankRunningTime(now)
	s.Status = status
	s.EndedAt = &now
	r := Score(s.Kind, len(s.Planned), s.AnsweredCount, s.CorrectCount)
	s.Result = &r
}

func (s *Session) wrongState(op string) error {
	return apperr.Conflict("cannot %s session %s in status %s", op, s.ID, s.Status)
}
