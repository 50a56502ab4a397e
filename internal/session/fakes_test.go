package session

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/lernapp/internal/apperr"
	"github.com/abhisek/lernapp/internal/mastery"
)

type memMastery struct {
	mu        sync.Mutex
	records   map[string]mastery.Record
	upsertErr error
}

func newMemMastery(rs ...mastery.Record) *memMastery {
	m := &memMastery{records: make(map[string]mastery.Record)}
	for _, r := range rs {
		m.records[r.LearnerID+"/"+r.QuestionID] = r
	}
	return m
}

func (m *memMastery) Get(_ context.Context, learnerID, questionID string) (*mastery.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[learnerID+"/"+questionID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memMastery) Upsert(_ context.Context, r mastery.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.records[r.LearnerID+"/"+r.QuestionID] = r
	return nil
}

func (m *memMastery) ListByLearner(_ context.Context, learnerID string) ([]mastery.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mastery.Record
	for _, r := range m.records {
		if r.LearnerID == learnerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (m *memMastery) ResetTopic(_ context.Context, learnerID, topicID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, r := range m.records {
		if r.LearnerID == learnerID && r.TopicID == topicID {
			m.records[k] = mastery.Reset(r)
			n++
		}
	}
	return n, nil
}

// memSessions stores copies so callers cannot share aggregate state. Each
// method locks on its own, so HasActive followed by Save is not atomic.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]Session)}
}

func (m *memSessions) HasActive(_ context.Context, learnerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.LearnerID == learnerID && s.Active() {
			return true, nil
		}
	}
	runtime.Gosched()
	return false, nil
}

func (m *memSessions) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *memSessions) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.NotFound("session %s", id)
	}
	c := cloneSession(&s)
	return &c, nil
}

func (m *memSessions) ListIdle(_ context.Context, before time.Time) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.Active() && s.LastActivity().Before(before) {
			c := cloneSession(&s)
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func cloneSession(s *Session) Session {
	c := *s
	c.Planned = append([]string(nil), s.Planned...)
	c.Answers = make(map[string]Answer, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	if s.Result != nil {
		r := *s.Result
		c.Result = &r
	}
	return c
}

// memProfile fails the next `failures` AddPoints calls.
type memProfile struct {
	mu       sync.Mutex
	points   map[string]int
	calls    int
	failures int
}

func newMemProfile() *memProfile {
	return &memProfile{points: make(map[string]int)}
}

func (p *memProfile) AddPoints(_ context.Context, learnerID string, points int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return 0, errors.New("profile unavailable")
	}
	p.calls++
	p.points[learnerID] += points
	return p.points[learnerID], nil
}

func (p *memProfile) CurrentLevel(_ context.Context, learnerID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return 1 + p.points[learnerID]/1000, nil
}

type memEvents struct {
	mu     sync.Mutex
	events []AnswerEvent
}

func (e *memEvents) AppendAnswer(_ context.Context, ev AnswerEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}
