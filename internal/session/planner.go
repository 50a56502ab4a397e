package session

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/lernapp/internal/apperr"
	"github.com/abhisek/lernapp/internal/mastery"
	"github.com/abhisek/lernapp/internal/questionpool"
	"github.com/abhisek/lernapp/internal/spacedrep"
)

// MasteryLookup lists a learner's mastery records.
type MasteryLookup interface {
	ListByLearner(ctx context.Context, learnerID string) ([]mastery.Record, error)
}

// Planner selects questions for a session according to its kind.
// It is safe for concurrent use.
type Planner struct {
	pool    questionpool.Pool
	mastery MasteryLookup

	mu  sync.Mutex // guards now and rng
	now func() time.Time
	rng *rand.Rand
}

// NewPlanner creates a planner. rng drives every shuffle; pass a seeded
// source for reproducible plans.
func NewPlanner(pool questionpool.Pool, lookup MasteryLookup, rng *rand.Rand) *Planner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{
		pool:    pool,
		mastery: lookup,
		now:     time.Now,
		rng:     rng,
	}
}

// SetClock overrides the time source used to decide what is due.
func (p *Planner) SetClock(now func() time.Time) {
	p.mu.Lock()
	p.now = now
	p.mu.Unlock()
}

func (p *Planner) clock() time.Time {
	p.mu.Lock()
	now := p.now
	p.mu.Unlock()
	return now()
}

// Plan builds the question list for req. A pool too small to reach the
// target yields a Partial plan, not an error.
func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	if req.Count <= 0 {
		return nil, apperr.InvalidInput("question count must be positive, got %d", req.Count)
	}
	if !req.Kind.Valid() {
		return nil, apperr.InvalidInput("unknown strategy %q", req.Kind)
	}

	target := req.Count
	if req.Kind == KindQuick {
		target = min(target, QuickTestCap)
	}

	available, err := p.pool.Query(ctx, questionpool.Filter{TopicID: req.TopicID})
	if err != nil {
		return nil, fmt.Errorf("query pool: %w", err)
	}

	var candidates []string
	switch req.Kind {
	case KindReview:
		candidates, err = p.reviewCandidates(ctx, req.LearnerID, available)
	case KindWeakness:
		candidates, err = p.weaknessCandidates(ctx, req.LearnerID, available)
	case KindExam:
		candidates, err = p.examCandidates(ctx, req.TopicID, target)
	default:
		candidates = p.shuffledIDs(available)
	}
	if err != nil {
		return nil, err
	}

	ids := takeUnique(candidates, target)
	ids = p.fill(ids, available, target)

	return &Plan{
		Kind:        req.Kind,
		TopicID:     req.TopicID,
		Requested:   req.Count,
		Target:      target,
		QuestionIDs: ids,
		Partial:     len(ids) < target,
	}, nil
}

// reviewCandidates returns due questions, most overdue first. Records never
// scheduled count as most overdue; ties go to the lowest confidence.
func (p *Planner) reviewCandidates(ctx context.Context, learnerID string, available []questionpool.Question) ([]string, error) {
	records, err := p.records(ctx, learnerID, available)
	if err != nil {
		return nil, err
	}
	now := p.clock()

	var due []mastery.Record
	for _, r := range records {
		if spacedrep.IsDue(r, now) {
			due = append(due, r)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].NextReviewAt, due[j].NextReviewAt
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		if due[i].Confidence != due[j].Confidence {
			return due[i].Confidence < due[j].Confidence
		}
		return due[i].QuestionID < due[j].QuestionID
	})
	return questionIDs(due), nil
}

// weaknessCandidates returns attempted questions below 60% success, weakest
// first.
func (p *Planner) weaknessCandidates(ctx context.Context, learnerID string, available []questionpool.Question) ([]string, error) {
	records, err := p.records(ctx, learnerID, available)
	if err != nil {
		return nil, err
	}

	var weak []mastery.Record
	for _, r := range records {
		if r.IsWeak() {
			weak = append(weak, r)
		}
	}

	sort.SliceStable(weak, func(i, j int) bool {
		ri, rj := weak[i].SuccessRate(), weak[j].SuccessRate()
		if ri != rj {
			return ri < rj
		}
		return weak[i].QuestionID < weak[j].QuestionID
	})
	return questionIDs(weak), nil
}

// examCandidates draws each difficulty tier separately so the plan follows
// the exam proportions. Tiers are emitted easiest first.
func (p *Planner) examCandidates(ctx context.Context, topicID string, target int) ([]string, error) {
	quotas := ExamQuotas(target)
	var out []string
	for _, d := range questionpool.AllDifficulties() {
		quota := quotas[d]
		if quota == 0 {
			continue
		}
		tier, err := p.pool.Query(ctx, questionpool.Filter{TopicID: topicID, Difficulty: d})
		if err != nil {
			return nil, fmt.Errorf("query %s tier: %w", d, err)
		}
		out = append(out, takeUnique(p.shuffledIDs(tier), quota)...)
	}
	return out, nil
}

// records returns the learner's records restricted to questions still in
// the (topic-filtered) pool.
func (p *Planner) records(ctx context.Context, learnerID string, available []questionpool.Question) ([]mastery.Record, error) {
	if learnerID == "" {
		return nil, apperr.InvalidInput("learner id is required")
	}
	all, err := p.mastery.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list mastery records: %w", err)
	}
	inPool := make(map[string]struct{}, len(available))
	for _, q := range available {
		inPool[q.ID] = struct{}{}
	}
	out := make([]mastery.Record, 0, len(all))
	for _, r := range all {
		if _, ok := inPool[r.QuestionID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// fill pads ids up to target with random pool questions not yet included.
// It draws once from the pool, so an exhausted pool ends the fill.
func (p *Planner) fill(ids []string, available []questionpool.Question, target int) []string {
	if len(ids) >= target {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, id := range p.shuffledIDs(available) {
		if len(ids) >= target {
			break
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// shuffledIDs returns the question ids in random order.
func (p *Planner) shuffledIDs(qs []questionpool.Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	p.mu.Lock()
	p.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	p.mu.Unlock()
	return ids
}

// takeUnique returns at most n ids, dropping duplicates and keeping order.
func takeUnique(ids []string, n int) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, min(len(ids), n))
	for _, id := range ids {
		if len(out) >= n {
			break
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func questionIDs(records []mastery.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.QuestionID
	}
	return ids
}
