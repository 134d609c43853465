// Package asyncguard is the short path through the library: string keys and
// the global default executor.
package asyncguard

import (
	"context"

	"github.com/aponysus/asyncguard/guard"
	"github.com/aponysus/asyncguard/observe"
	"github.com/aponysus/asyncguard/policy"
	"github.com/aponysus/asyncguard/result"
	"github.com/aponysus/asyncguard/retry"
)

// Key is the structured form of an operation key.
type Key = policy.Key

// ParseKey parses "namespace.name" into a Key.
func ParseKey(s string) Key { return policy.ParseKey(s) }

// Init sets the global default executor. It only takes effect before the
// first call that uses the default executor and reports whether it did.
func Init(exec *retry.Executor) bool {
	return retry.SetGlobal(exec)
}

// Do executes op using the default executor and the config for key.
func Do(ctx context.Context, key string, op retry.Operation) error {
	return retry.DefaultExecutor().Do(ctx, policy.ParseKey(key), op)
}

// DoValue executes op using the default executor and the config for key.
func DoValue[T any](ctx context.Context, key string, op retry.OperationValue[T]) (T, error) {
	return retry.DoValue(ctx, retry.DefaultExecutor(), policy.ParseKey(key), op)
}

// DoWithTimeline executes op using the default executor and returns the Timeline.
func DoWithTimeline(ctx context.Context, key string, op retry.Operation) (observe.Timeline, error) {
	return retry.DefaultExecutor().DoWithTimeline(ctx, policy.ParseKey(key), op)
}

// DoValueWithTimeline executes op using the default executor and returns the Timeline.
func DoValueWithTimeline[T any](ctx context.Context, key string, op retry.OperationValue[T]) (T, observe.Timeline, error) {
	return retry.DoValueWithTimeline(ctx, retry.DefaultExecutor(), policy.ParseKey(key), op)
}

// Run executes op and returns its outcome as a Result.
func Run[T any](ctx context.Context, key string, op retry.OperationValue[T]) result.Result[T] {
	return retry.Run(ctx, retry.DefaultExecutor(), policy.ParseKey(key), op)
}

// NewGuard creates a guard for key on the default executor.
func NewGuard[T any](key string, action guard.Action[T], opts ...guard.Option[T]) *guard.Guard[T] {
	base := []guard.Option[T]{
		guard.WithKey[T](key),
		guard.WithExecutor[T](retry.DefaultExecutor()),
	}
	return guard.New(action, append(base, opts...)...)
}
