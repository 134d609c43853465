package guard

import (
	"log/slog"

	"github.com/aponysus/asyncguard/observe"
	"github.com/aponysus/asyncguard/policy"
	"github.com/aponysus/asyncguard/retry"
)

type options[T any] struct {
	key       policy.Key
	exec      *retry.Executor
	retryOpts []policy.Option
	execOpts  []retry.ExecutorOption
	onSuccess func(T)
	onChange  func(State)
	message   func(error) string
	hooks     []observe.TransitionObserver
	logger    *slog.Logger
}

// Option configures a Guard.
type Option[T any] func(*options[T])

// WithKey names the guarded operation ("namespace.name"). The key selects
// per-key executor policies and labels logs, metrics and traces.
func WithKey[T any](key string) Option[T] {
	return func(o *options[T]) {
		o.key = policy.ParseKey(key)
	}
}

// WithExecutor runs sequences on exec instead of retry.DefaultExecutor.
func WithExecutor[T any](exec *retry.Executor) Option[T] {
	return func(o *options[T]) {
		o.exec = exec
	}
}

// WithRetry gives the guard a private executor built from policy options.
// Ignored when WithExecutor is also set.
func WithRetry[T any](opts ...policy.Option) Option[T] {
	return func(o *options[T]) {
		o.retryOpts = append(o.retryOpts, opts...)
	}
}

// WithExecutorOptions adds options to the private executor created for
// WithRetry, such as an observer or classifier.
func WithExecutorOptions[T any](opts ...retry.ExecutorOption) Option[T] {
	return func(o *options[T]) {
		o.execOpts = append(o.execOpts, opts...)
	}
}

// WithOnSuccess sets the callback invoked with the value of each successful
// sequence, before the guard enters PhaseSucceeded.
func WithOnSuccess[T any](fn func(T)) Option[T] {
	return func(o *options[T]) {
		o.onSuccess = fn
	}
}

// WithOnChange sets the render callback. Changes are delivered one at a time
// in transition order. The callback may call Trigger, Retry or Cancel but
// must not block on Run or Wait.
func WithOnChange[T any](fn func(State)) Option[T] {
	return func(o *options[T]) {
		o.onChange = fn
	}
}

// WithMessage overrides how a terminal error becomes the Failed message.
func WithMessage[T any](fn func(error) string) Option[T] {
	return func(o *options[T]) {
		o.message = fn
	}
}

// WithTransitionHook registers an observer for every state change.
func WithTransitionHook[T any](h observe.TransitionObserver) Option[T] {
	return func(o *options[T]) {
		if h != nil {
			o.hooks = append(o.hooks, h)
		}
	}
}

// WithLogger sets the logger for guard diagnostics. Defaults to slog.Default.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(o *options[T]) {
		o.logger = l
	}
}

// DefaultMessage reports the last attempt's failure message for exhausted
// sequences and the error's own message otherwise.
func DefaultMessage(err error) string {
	if err == nil {
		return ""
	}
	return retry.Cause(err).Error()
}
