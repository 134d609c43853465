// Package result provides Result, a two-variant outcome value used instead of
// panics or sentinel zero values for expected failures.
package result

import "errors"

var (
	// ErrNilError is carried by a failure that was constructed with a nil error.
	ErrNilError = errors.New("asyncguard: failure constructed with nil error")
	// ErrEmpty is reported by the zero Result, which was never constructed.
	ErrEmpty = errors.New("asyncguard: empty result")
)

// Result is either a success carrying a value or a failure carrying an error.
//
// The zero Result reads as a failure carrying ErrEmpty, so a Result never
// reports both a value and an error, nor neither.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Success returns a successful Result holding v.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Failure returns a failed Result holding err. A nil err is replaced with ErrNilError.
func Failure[T any](err error) Result[T] {
	if err == nil {
		err = ErrNilError
	}
	return Result[T]{err: err}
}

// FromPair converts a conventional (value, error) pair.
func FromPair[T any](v T, err error) Result[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

// IsSuccess reports whether r holds a value.
func (r Result[T]) IsSuccess() bool { return r.ok }

// IsFailure reports whether r holds an error.
func (r Result[T]) IsFailure() bool { return !r.ok }

// Value returns the success value. The boolean is false for failures, in
// which case the returned value is the zero T.
func (r Result[T]) Value() (T, bool) {
	if !r.ok {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Err returns the failure error, or nil for successes.
func (r Result[T]) Err() error {
	if r.ok {
		return nil
	}
	if r.err == nil {
		return ErrEmpty
	}
	return r.err
}

// Unwrap returns the Result as a conventional (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	v, _ := r.Value()
	return v, r.Err()
}

// ValueOr returns the success value or fallback.
func (r Result[T]) ValueOr(fallback T) T {
	if r.ok {
		return r.value
	}
	return fallback
}

// Match calls exactly one of onSuccess or onFailure. Nil callbacks are skipped.
func (r Result[T]) Match(onSuccess func(T), onFailure func(error)) {
	if r.ok {
		if onSuccess != nil {
			onSuccess(r.value)
		}
		return
	}
	if onFailure != nil {
		onFailure(r.Err())
	}
}
