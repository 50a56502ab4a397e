package questionpool

import (
	"context"
	"sort"
	"sync"
)

// MemoryPool is an in-process Pool, used by tests and by callers that load
// their catalog up front.
type MemoryPool struct {
	mu        sync.RWMutex
	questions map[string]Question
}

// NewMemoryPool creates a pool holding qs. Later duplicates of an id replace
// earlier ones.
func NewMemoryPool(qs ...Question) *MemoryPool {
	p := &MemoryPool{questions: make(map[string]Question, len(qs))}
	p.Add(qs...)
	return p
}

// Add inserts or replaces questions.
func (p *MemoryPool) Add(qs ...Question) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, q := range qs {
		p.questions[q.ID] = q
	}
}

// Get returns the question with the given id.
func (p *MemoryPool) Get(id string) (Question, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	q, ok := p.questions[id]
	return q, ok
}

// Len returns the number of questions in the pool.
func (p *MemoryPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.questions)
}

// Query returns matching questions sorted by id, so results are stable
// across calls.
func (p *MemoryPool) Query(_ context.Context, f Filter) ([]Question, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []Question
	for _, q := range p.questions {
		if f.Matches(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Lookup implements the Lookup interface.
func (p *MemoryPool) Lookup(_ context.Context, id string) (Question, bool, error) {
	q, ok := p.Get(id)
	return q, ok, nil
}
