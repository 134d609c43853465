package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aponysus/asyncguard/race"
)

// Classifier decides whether an attempt error should be retried.
type Classifier interface {
	Classify(err error) Outcome
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(err error) Outcome

func (f ClassifierFunc) Classify(err error) Outcome { return f(err) }

// Default retries timeouts and action errors, including action errors that
// wrap context.Canceled. It aborts on errors marked NonRetryable, on bare
// context errors from the caller, and on recovered panics. A panicking
// action is therefore invoked once, not MaxAttempts times; supply a
// ClassifierFunc returning OutcomeRetryable for *race.PanicError to retry it.
type Default struct{}

func (Default) Classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess, Reason: ReasonSuccess}
	}
	if IsNonRetryable(err) {
		return Outcome{Kind: OutcomeAbort, Reason: ReasonNonRetryable}
	}
	var pe *race.PanicError
	if errors.As(err, &pe) {
		return Outcome{Kind: OutcomeAbort, Reason: ReasonPanic}
	}
	if race.IsTimeout(err) {
		return Outcome{Kind: OutcomeRetryable, Reason: ReasonTimeout}
	}
	var ae *race.ActionError
	if errors.As(err, &ae) {
		return Outcome{Kind: OutcomeRetryable, Reason: ReasonActionError}
	}
	// Bare context errors come from the caller's context, not the action.
	if errors.Is(err, context.Canceled) {
		return Outcome{Kind: OutcomeAbort, Reason: ReasonContextCanceled}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Kind: OutcomeAbort, Reason: ReasonContextDeadlineExceeded}
	}
	return Outcome{Kind: OutcomeRetryable, Reason: ReasonRetryableError}
}

// NonRetryableError marks an error that must end the sequence immediately.
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// NonRetryable wraps err so Default aborts instead of retrying. Nil stays nil.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsNonRetryable reports whether err carries a NonRetryable mark.
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}
