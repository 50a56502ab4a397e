package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTarget struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeTarget) SweepIdle(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return len(f.calls), f.err
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	_, err := New(&fakeTarget{}, "every now and then", zap.NewNop())
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	target := &fakeTarget{}
	s, err := New(target, "@every 1m", zap.NewNop())
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []time.Time{fixed}, target.calls)

	target.err = errors.New("db down")
	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, target.err)
}

func TestStart_StopsOnCancel(t *testing.T) {
	s, err := New(&fakeTarget{}, "@every 1h", zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
