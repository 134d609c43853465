package retry

import (
	"github.com/aponysus/asyncguard/classify"
	"github.com/aponysus/asyncguard/observe"
	"github.com/aponysus/asyncguard/policy"
)

// DefaultOption allows customizing the default executor.
// It is an alias for ExecutorOption for ergonomics.
type DefaultOption = ExecutorOption

// NewDefaultExecutor creates an Executor with the documented defaults.
//
// Defaults:
// - Config: 3 attempts, 1s initial delay doubling per retry, 15s per-attempt timeout.
// - Classifier: classify.Default.
// - Observer: NoopObserver.
func NewDefaultExecutor(opts ...DefaultOption) *Executor {
	defaultOpts := []ExecutorOption{
		WithConfig(policy.DefaultRetryConfig()),
		WithClassifier(classify.Default{}),
		WithObserver(observe.NoopObserver{}),
	}
	defaultOpts = append(defaultOpts, opts...)
	return NewExecutor(defaultOpts...)
}
