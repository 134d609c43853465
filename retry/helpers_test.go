package retry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aponysus/asyncguard/observe"
	"github.com/aponysus/asyncguard/policy"
)

// recordingSleeper replaces real waits with a log of requested delays.
type recordingSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
	return nil
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.sleeps...)
}

func newTestExecutor(t *testing.T, cfg policy.RetryConfig, opts ...ExecutorOption) (*Executor, *recordingSleeper) {
	t.Helper()
	exec := NewExecutor(append([]ExecutorOption{WithConfig(cfg)}, opts...)...)
	s := &recordingSleeper{}
	exec.sleep = s.sleep
	return exec, s
}

type testObserver struct {
	observe.BaseObserver

	mu        sync.Mutex
	starts    int
	attempts  []observe.AttemptRecord
	backoffs  []time.Duration
	successes int
	failures  int
	last      observe.Timeline
}

func (o *testObserver) OnStart(context.Context, policy.Key, policy.RetryConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts++
}

func (o *testObserver) OnAttempt(_ context.Context, _ policy.Key, rec observe.AttemptRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, rec)
}

func (o *testObserver) OnBackoff(_ context.Context, _ policy.Key, _ int, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.backoffs = append(o.backoffs, d)
}

func (o *testObserver) OnSuccess(_ context.Context, _ policy.Key, tl observe.Timeline) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.successes++
	o.last = tl
}

func (o *testObserver) OnFailure(_ context.Context, _ policy.Key, tl observe.Timeline) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
	o.last = tl
}

func equalDurations(a, b []time.Duration) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
