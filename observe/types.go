package observe

import (
	"context"
	"time"

	"github.com/aponysus/asyncguard/classify"
	"github.com/aponysus/asyncguard/policy"
)

// AttemptRecord describes a single attempt execution.
type AttemptRecord struct {
	Attempt   int
	StartTime time.Time
	EndTime   time.Time

	Outcome classify.Outcome
	Err     error

	Backoff time.Duration // backoff before this attempt
}

// Duration is the wall time the attempt's race took.
func (r AttemptRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Timeline is the structured record of a single call and all of its attempts.
type Timeline struct {
	Key    policy.Key
	ID     string
	Config policy.RetryConfig
	Start  time.Time
	End    time.Time

	// Attributes holds call-level metadata (config source, abort reasons, etc.).
	Attributes map[string]string

	Attempts []AttemptRecord
	FinalErr error
}

func (tl Timeline) Duration() time.Duration {
	return tl.End.Sub(tl.Start)
}

// TotalBackoff sums the backoff waited before every attempt.
func (tl Timeline) TotalBackoff() time.Duration {
	var total time.Duration
	for _, a := range tl.Attempts {
		total += a.Backoff
	}
	return total
}

func (tl Timeline) Succeeded() bool {
	return tl.FinalErr == nil && len(tl.Attempts) > 0
}

// Observer receives lifecycle callbacks for a single call.
type Observer interface {
	OnStart(ctx context.Context, key policy.Key, cfg policy.RetryConfig)
	OnAttempt(ctx context.Context, key policy.Key, rec AttemptRecord)
	// OnBackoff fires before the executor waits delay ahead of attempt.
	OnBackoff(ctx context.Context, key policy.Key, attempt int, delay time.Duration)

	OnSuccess(ctx context.Context, key policy.Key, tl Timeline)
	OnFailure(ctx context.Context, key policy.Key, tl Timeline)
}

// Transition describes a guard moving between phases.
type Transition struct {
	From     string
	To       string
	Message  string
	Sequence string
}

// TransitionObserver receives guard state changes.
type TransitionObserver interface {
	OnTransition(ctx context.Context, key policy.Key, tr Transition)
}
