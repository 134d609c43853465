package observe

import (
	"context"
	"time"

	"github.com/aponysus/asyncguard/policy"
)

// NoopObserver implements Observer with no-op methods.
type NoopObserver struct{}

func (NoopObserver) OnStart(context.Context, policy.Key, policy.RetryConfig)   {}
func (NoopObserver) OnAttempt(context.Context, policy.Key, AttemptRecord)      {}
func (NoopObserver) OnBackoff(context.Context, policy.Key, int, time.Duration) {}
func (NoopObserver) OnSuccess(context.Context, policy.Key, Timeline)           {}
func (NoopObserver) OnFailure(context.Context, policy.Key, Timeline)           {}
func (NoopObserver) OnTransition(context.Context, policy.Key, Transition)      {}
