// Package race runs an operation against a deadline timer and reports
// whichever settles first.
//
// The losing operation is not forcibly stopped. Its context is cancelled when
// the race resolves, and operations that honor ctx will return early; those
// that ignore it keep running in the background until they finish, and their
// eventual result is discarded.
package race

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/aponysus/asyncguard/result"
)

// DefaultTimeout applies when Run is called with a non-positive timeout.
const DefaultTimeout = 15 * time.Second

// Operation is a unit of asynchronous work raced against a deadline.
type Operation[T any] func(ctx context.Context) (T, error)

type settled[T any] struct {
	val T
	err error
}

// Run starts op and a timer of the given duration and returns the outcome
// of whichever finishes first.
//
// A timer win yields a *TimeoutError, an operation error yields an
// *ActionError, and a panic inside op yields an *ActionError wrapping a
// *PanicError. If ctx ends first, the failure carries ctx.Err().
func Run[T any](ctx context.Context, timeout time.Duration, op Operation[T]) result.Result[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := ctx.Err(); err != nil {
		return result.Failure[T](err)
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so the operation goroutine never blocks on a race nobody is
	// listening to anymore.
	done := make(chan settled[T], 1)
	go func() {
		var out settled[T]
		defer func() {
			if r := recover(); r != nil {
				out = settled[T]{err: &PanicError{Value: r, Stack: debug.Stack()}}
			}
			done <- out
		}()
		out.val, out.err = op(opCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return result.Failure[T](&ActionError{Err: out.err})
		}
		return result.Success(out.val)
	case <-timer.C:
		return result.Failure[T](&TimeoutError{Timeout: timeout})
	case <-ctx.Done():
		return result.Failure[T](ctx.Err())
	}
}
