// Package guard binds a retried action to an observable state machine:
// Idle → Loading → Succeeded | Failed(message).
//
// A guard runs at most one sequence at a time. Trigger while Loading is a
// no-op, and every accepted trigger starts a fresh retry sequence from the
// first attempt and the initial delay.
package guard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/aponysus/asyncguard/classify"
	"github.com/aponysus/asyncguard/observe"
	"github.com/aponysus/asyncguard/policy"
	"github.com/aponysus/asyncguard/retry"
)

// Action is the guarded operation.
type Action[T any] func(ctx context.Context) (T, error)

// sequence is one accepted trigger. final is written before done is closed.
type sequence struct {
	num    uint64
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	final  State
	err    error
}

type change struct {
	ctx   context.Context
	tr    observe.Transition
	state State
	done  chan struct{}
}

// Guard is safe for concurrent use.
type Guard[T any] struct {
	action    retry.OperationValue[T]
	key       policy.Key
	exec      *retry.Executor
	onSuccess func(T)
	onChange  func(State)
	message   func(error) string
	hooks     []observe.TransitionObserver
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	seq      uint64
	current  *sequence // in flight and cancellable
	last     *sequence
	timeline observe.Timeline

	pending    []change
	delivering bool
}

// New creates a guard in PhaseIdle around action.
func New[T any](action Action[T], opts ...Option[T]) *Guard[T] {
	o := options[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.message == nil {
		o.message = DefaultMessage
	}
	if o.exec == nil {
		if len(o.retryOpts) > 0 || len(o.execOpts) > 0 {
			execOpts := append([]retry.ExecutorOption{
				retry.WithDefaults(o.retryOpts...),
				retry.WithLogger(o.logger),
			}, o.execOpts...)
			o.exec = retry.NewDefaultExecutor(execOpts...)
		} else {
			o.exec = retry.DefaultExecutor()
		}
	}
	if action == nil {
		action = func(context.Context) (T, error) {
			var zero T
			return zero, classify.NonRetryable(ErrNoAction)
		}
	}

	return &Guard[T]{
		action:    retry.OperationValue[T](action),
		key:       o.key,
		exec:      o.exec,
		onSuccess: o.onSuccess,
		onChange:  o.onChange,
		message:   o.message,
		hooks:     o.hooks,
		logger:    o.logger.With("key", o.key.String()),
		state:     idleState(),
	}
}

// Key returns the guard's operation key.
func (g *Guard[T]) Key() policy.Key { return g.key }

// State returns the current state.
func (g *Guard[T]) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Loading reports whether a sequence is in flight.
func (g *Guard[T]) Loading() bool {
	return g.State().Loading()
}

// Message returns the Failed message, or "" in any other phase.
func (g *Guard[T]) Message() string {
	return g.State().Message
}

// Err returns the terminal error of the last settled sequence.
func (g *Guard[T]) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil || g.current == g.last {
		return nil
	}
	return g.last.err
}

// Timeline returns the executor timeline of the last settled sequence.
func (g *Guard[T]) Timeline() (observe.Timeline, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timeline, g.timeline.ID != ""
}

// Trigger starts a new sequence unless one is already in flight, in which
// case it does nothing and returns false. The sequence runs on its own
// goroutine under ctx; cancelling ctx returns the guard to PhaseIdle.
func (g *Guard[T]) Trigger(ctx context.Context) bool {
	return g.start(ctx) != nil
}

// Retry is Trigger. It exists for callers rendering a retry affordance
// after a failure.
func (g *Guard[T]) Retry(ctx context.Context) bool {
	return g.Trigger(ctx)
}

// Run triggers a sequence and waits for it to settle.
func (g *Guard[T]) Run(ctx context.Context) (State, error) {
	s := g.start(ctx)
	if s == nil {
		return g.State(), ErrBusy
	}
	return g.wait(ctx, s)
}

// Wait blocks until the most recent sequence settles and returns the state
// it settled in. It returns immediately when no sequence was ever started.
func (g *Guard[T]) Wait(ctx context.Context) (State, error) {
	g.mu.Lock()
	s := g.last
	g.mu.Unlock()
	if s == nil {
		return g.State(), nil
	}
	return g.wait(ctx, s)
}

func (g *Guard[T]) wait(ctx context.Context, s *sequence) (State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-s.done:
		return s.final, nil
	case <-ctx.Done():
		return g.State(), ctx.Err()
	}
}

// Cancel abandons the in-flight sequence and returns the guard to
// PhaseIdle. No success callback fires for a cancelled sequence. It reports
// whether there was a sequence to cancel.
func (g *Guard[T]) Cancel() bool {
	g.mu.Lock()
	s := g.current
	if s == nil {
		g.mu.Unlock()
		return false
	}
	g.current = nil
	s.cancel()
	s.err = context.Canceled
	g.setLocked(s, idleState())
	g.mu.Unlock()

	g.logger.Debug("guard sequence cancelled", "sequence", s.id, "n", s.num)
	g.flush()
	return true
}

func (g *Guard[T]) start(ctx context.Context) *sequence {
	if ctx == nil {
		ctx = context.Background()
	}

	g.mu.Lock()
	if g.state.Loading() {
		g.mu.Unlock()
		g.logger.Debug("guard trigger ignored while loading")
		return nil
	}
	g.seq++
	runCtx, cancel := context.WithCancel(ctx)
	s := &sequence{
		num:    g.seq,
		id:     uuid.NewString(),
		ctx:    context.WithoutCancel(ctx),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	g.current = s
	g.last = s
	g.setLocked(s, loadingState())
	g.mu.Unlock()

	g.flush()
	go g.run(runCtx, s)
	return s
}

func (g *Guard[T]) run(ctx context.Context, s *sequence) {
	defer s.cancel()

	ctx, capture := observe.RecordTimeline(ctx)
	val, err := retry.DoValue(ctx, g.exec, g.key, g.action)

	g.mu.Lock()
	if g.current != s {
		// Cancelled; the result is discarded.
		g.mu.Unlock()
		return
	}
	// Past this point the sequence can no longer be cancelled. The guard
	// stays Loading until the success callback has returned.
	g.current = nil
	if tl := capture.Timeline(); tl != nil {
		g.timeline = *tl
	}
	g.mu.Unlock()

	var next State
	switch {
	case err == nil:
		if perr := g.succeed(val); perr != nil {
			err = perr
			next = failedState(g.message(perr))
		} else {
			next = succeededState()
		}
	case ctx.Err() != nil:
		next = idleState()
	default:
		next = failedState(g.message(err))
	}
	if err != nil && next.Failed() {
		g.logger.Warn("guard sequence failed", "sequence", s.id, "error", err)
	}

	g.mu.Lock()
	s.err = err
	g.setLocked(s, next)
	g.mu.Unlock()
	g.flush()
}

func (g *Guard[T]) succeed(val T) (err error) {
	if g.onSuccess == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("success callback panicked", "panic", r)
			err = &CallbackPanicError{Value: r}
		}
	}()
	g.onSuccess(val)
	return nil
}

// setLocked is the single mutation point for g.state. Any phase other than
// Loading settles s. Callers hold g.mu and call flush after unlocking.
func (g *Guard[T]) setLocked(s *sequence, next State) {
	prev := g.state
	g.state = next

	c := change{
		ctx:   context.Background(),
		state: next,
		tr: observe.Transition{
			From:    prev.Phase.String(),
			To:      next.Phase.String(),
			Message: next.Message,
		},
	}
	if s != nil {
		c.ctx = s.ctx
		c.tr.Sequence = s.id
		if !next.Loading() {
			s.final = next
			c.done = s.done
		}
	}
	g.pending = append(g.pending, c)
}

// flush delivers pending changes in order. Only one goroutine delivers at a
// time; changes queued by callbacks are picked up by the active deliverer.
func (g *Guard[T]) flush() {
	g.mu.Lock()
	if g.delivering {
		g.mu.Unlock()
		return
	}
	g.delivering = true
	for len(g.pending) > 0 {
		c := g.pending[0]
		g.pending = g.pending[1:]
		g.mu.Unlock()
		g.deliver(c)
		g.mu.Lock()
	}
	g.pending = nil
	g.delivering = false
	g.mu.Unlock()
}

func (g *Guard[T]) deliver(c change) {
	if c.done != nil {
		defer close(c.done)
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("guard change callback panicked", "panic", r, "to", c.tr.To)
		}
	}()

	for _, h := range g.hooks {
		h.OnTransition(c.ctx, g.key, c.tr)
	}
	if g.onChange != nil {
		g.onChange(c.state)
	}
}
