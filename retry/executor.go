package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aponysus/asyncguard/classify"
	"github.com/aponysus/asyncguard/internal"
	"github.com/aponysus/asyncguard/observe"
	"github.com/aponysus/asyncguard/policy"
	"github.com/aponysus/asyncguard/race"
	"github.com/aponysus/asyncguard/result"
)

type Operation func(ctx context.Context) error
type OperationValue[T any] func(ctx context.Context) (T, error)

// Executor runs operations through the timeout race with exponential backoff
// between failed attempts. It is safe for concurrent use; every call runs its
// own independent sequence.
type Executor struct {
	config     policy.RetryConfig
	policies   map[policy.Key]policy.RetryConfig
	observer   observe.Observer
	classifier classify.Classifier
	clock      func() time.Time
	sleep      func(context.Context, time.Duration) error
	newID      func() string
	logger     *slog.Logger
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Config applies to keys without an entry in Policies.
	Config     policy.RetryConfig
	Policies   map[policy.Key]policy.RetryConfig
	Observer   observe.Observer
	Classifier classify.Classifier
	Clock      func() time.Time
	Logger     *slog.Logger
}

// NewExecutorFromOptions creates an Executor from a config struct.
// Invalid configs are logged and replaced with policy.DefaultRetryConfig.
func NewExecutorFromOptions(opts ExecutorOptions) *Executor {
	e := &Executor{
		observer:   opts.Observer,
		classifier: opts.Classifier,
		clock:      opts.Clock,
		sleep:      sleepWithContext,
		newID:      uuid.NewString,
		logger:     opts.Logger,
		policies:   make(map[policy.Key]policy.RetryConfig, len(opts.Policies)),
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if internal.IsTypedNil(e.observer) {
		e.observer = observe.NoopObserver{}
	}
	if internal.IsTypedNil(e.classifier) {
		e.classifier = classify.Default{}
	}
	if e.clock == nil {
		e.clock = time.Now
	}

	e.config = e.normalize(policy.Key{}, opts.Config)
	for key, cfg := range opts.Policies {
		e.policies[key] = e.normalize(key, cfg)
	}

	return e
}

func (e *Executor) normalize(key policy.Key, cfg policy.RetryConfig) policy.RetryConfig {
	n, err := cfg.Normalize()
	if err != nil {
		e.logger.Warn("invalid retry config, using defaults", "key", key.String(), "error", err)
		return policy.DefaultRetryConfig()
	}
	return n
}

// Config returns the executor's fallback config.
func (e *Executor) Config() policy.RetryConfig {
	return e.config
}

// ConfigFor returns the config used for key.
func (e *Executor) ConfigFor(key policy.Key) policy.RetryConfig {
	if cfg, ok := e.policies[key]; ok {
		return cfg
	}
	return e.config
}

// Do executes op under the config for key.
func (e *Executor) Do(ctx context.Context, key policy.Key, op Operation) error {
	_, err := DoValue(ctx, e, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoWithTimeline executes op and returns the recorded Timeline.
func (e *Executor) DoWithTimeline(ctx context.Context, key policy.Key, op Operation) (observe.Timeline, error) {
	_, tl, err := DoValueWithTimeline(ctx, e, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return tl, err
}

// DoValue executes op and returns its value from the first successful attempt.
//
// Terminal failure after the attempt budget is spent is an
// *ExhaustedRetriesError wrapping the last attempt's error. Sequences that
// end early (caller context done, non-retryable error, panic) return that
// error directly.
func DoValue[T any](ctx context.Context, exec *Executor, key policy.Key, op OperationValue[T]) (T, error) {
	val, _, err := doValue(ctx, exec, key, op)
	return val, err
}

// DoValueWithTimeline is DoValue that also returns the recorded Timeline.
func DoValueWithTimeline[T any](ctx context.Context, exec *Executor, key policy.Key, op OperationValue[T]) (T, observe.Timeline, error) {
	return doValue(ctx, exec, key, op)
}

// Run is DoValue returning a result.Result.
func Run[T any](ctx context.Context, exec *Executor, key policy.Key, op OperationValue[T]) result.Result[T] {
	return result.FromPair(DoValue(ctx, exec, key, op))
}

func doValue[T any](ctx context.Context, exec *Executor, key policy.Key, op OperationValue[T]) (T, observe.Timeline, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	if exec == nil {
		exec = DefaultExecutor()
	}

	capture, _ := observe.TimelineCaptureFromContext(ctx)
	cfg := exec.ConfigFor(key)

	tl := observe.Timeline{
		Key:        key,
		ID:         exec.newID(),
		Config:     cfg,
		Start:      exec.clock(),
		Attributes: make(map[string]string),
		Attempts:   make([]observe.AttemptRecord, 0, min(cfg.MaxAttempts, 16)),
	}
	exec.observer.OnStart(ctx, key, cfg)

	finish := func(err error) {
		tl.End = exec.clock()
		tl.FinalErr = err
		if err == nil {
			exec.observer.OnSuccess(ctx, key, tl)
		} else {
			exec.observer.OnFailure(ctx, key, tl)
		}
		if capture != nil {
			snapshot := tl
			observe.StoreTimelineCapture(capture, &snapshot)
		}
	}

	// Nested executor calls inside op must not publish into our capture.
	opCtx := observe.WithoutTimelineCapture(ctx)
	raced := race.Operation[T](op)

	delay := cfg.InitialDelay
	var waited time.Duration
	var lastErr error

	remaining := cfg.MaxAttempts
	for attempt := 0; remaining > 0; attempt++ {
		if err := ctx.Err(); err != nil {
			tl.Attributes["abort_reason"] = exec.classify(err).Reason
			finish(err)
			return zero, tl, err
		}
		remaining--

		attemptCtx := observe.WithAttemptInfo(opCtx, observe.AttemptInfo{
			Key:       key,
			CallID:    tl.ID,
			Attempt:   attempt,
			Remaining: remaining,
		})

		start := exec.clock()
		val, err := race.Run(attemptCtx, cfg.Timeout, raced).Unwrap()
		if err != nil && ctx.Err() != nil {
			// Cancellation is decided by the caller's context, not by what
			// the action's error wraps.
			err = ctx.Err()
		}
		out := exec.classify(err)

		rec := observe.AttemptRecord{
			Attempt:   attempt,
			StartTime: start,
			EndTime:   exec.clock(),
			Outcome:   out,
			Err:       err,
			Backoff:   waited,
		}
		tl.Attempts = append(tl.Attempts, rec)
		exec.observer.OnAttempt(ctx, key, rec)

		if out.Kind == classify.OutcomeSuccess {
			finish(nil)
			return val, tl, nil
		}

		lastErr = err
		if out.Kind != classify.OutcomeRetryable {
			tl.Attributes["abort_reason"] = out.Reason
			finish(err)
			return zero, tl, err
		}
		if remaining == 0 {
			break
		}

		exec.observer.OnBackoff(ctx, key, attempt+1, delay)
		if err := exec.sleep(ctx, delay); err != nil {
			tl.Attributes["abort_reason"] = exec.classify(err).Reason
			finish(err)
			return zero, tl, err
		}
		waited = delay
		delay = policy.NextDelay(delay, cfg.MaxDelay)
	}

	err := &ExhaustedRetriesError{Key: key, Attempts: len(tl.Attempts), Last: lastErr}
	finish(err)
	return zero, tl, err
}

// classify maps an attempt error to an outcome. A nil error is always a
// success; a misbehaving classifier aborts the sequence instead of crashing it.
func (e *Executor) classify(err error) (out classify.Outcome) {
	if err == nil {
		return classify.Outcome{Kind: classify.OutcomeSuccess, Reason: classify.ReasonSuccess}
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("classifier panicked", "panic", r)
			out = classify.Outcome{Kind: classify.OutcomeAbort, Reason: "panic_in_classifier"}
		}
	}()

	out = e.classifier.Classify(err)
	switch out.Kind {
	case classify.OutcomeRetryable, classify.OutcomeAbort:
	default:
		// Success for a non-nil error, or an unknown kind, is not trusted.
		return classify.Outcome{Kind: classify.OutcomeAbort, Reason: "unknown_outcome"}
	}
	if out.Reason == "" {
		if out.Kind == classify.OutcomeRetryable {
			out.Reason = classify.ReasonRetryableError
		} else {
			out.Reason = "abort"
		}
	}
	return out
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
