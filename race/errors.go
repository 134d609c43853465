package race

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout matches any *TimeoutError via errors.Is.
var ErrTimeout = errors.New("asyncguard: attempt timed out")

// TimeoutError reports that the deadline elapsed before the operation settled.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("asyncguard: attempt timed out after %s", e.Timeout)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// ActionError carries the error returned by the raced operation itself.
// Its message is the operation's own message.
type ActionError struct {
	Err error
}

func (e *ActionError) Error() string {
	if e == nil || e.Err == nil {
		return "asyncguard: action failed"
	}
	return e.Err.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// PanicError is a panic recovered from the operation goroutine.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("asyncguard: panic in action: %v", e.Value)
}

// IsTimeout reports whether err is, or wraps, a *TimeoutError.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
