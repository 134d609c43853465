package observe

import (
	"context"
	"time"

	"github.com/aponysus/asyncguard/internal"
	"github.com/aponysus/asyncguard/policy"
)

// BaseObserver implements Observer with no-op methods.
//
// Users can embed BaseObserver to implement only the callbacks they need.
type BaseObserver struct{}

func (BaseObserver) OnStart(context.Context, policy.Key, policy.RetryConfig)   {}
func (BaseObserver) OnAttempt(context.Context, policy.Key, AttemptRecord)      {}
func (BaseObserver) OnBackoff(context.Context, policy.Key, int, time.Duration) {}
func (BaseObserver) OnSuccess(context.Context, policy.Key, Timeline)           {}
func (BaseObserver) OnFailure(context.Context, policy.Key, Timeline)           {}
func (BaseObserver) OnTransition(context.Context, policy.Key, Transition)      {}

// MultiObserver fans out events to multiple observers. Nil entries are skipped.
type MultiObserver struct {
	Observers []Observer
}

func (m MultiObserver) OnStart(ctx context.Context, key policy.Key, cfg policy.RetryConfig) {
	for _, o := range m.Observers {
		if !internal.IsTypedNil(o) {
			o.OnStart(ctx, key, cfg)
		}
	}
}

func (m MultiObserver) OnAttempt(ctx context.Context, key policy.Key, rec AttemptRecord) {
	for _, o := range m.Observers {
		if !internal.IsTypedNil(o) {
			o.OnAttempt(ctx, key, rec)
		}
	}
}

func (m MultiObserver) OnBackoff(ctx context.Context, key policy.Key, attempt int, delay time.Duration) {
	for _, o := range m.Observers {
		if !internal.IsTypedNil(o) {
			o.OnBackoff(ctx, key, attempt, delay)
		}
	}
}

func (m MultiObserver) OnSuccess(ctx context.Context, key policy.Key, tl Timeline) {
	for _, o := range m.Observers {
		if !internal.IsTypedNil(o) {
			o.OnSuccess(ctx, key, tl)
		}
	}
}

func (m MultiObserver) OnFailure(ctx context.Context, key policy.Key, tl Timeline) {
	for _, o := range m.Observers {
		if !internal.IsTypedNil(o) {
			o.OnFailure(ctx, key, tl)
		}
	}
}

// OnTransition forwards to every member that also implements TransitionObserver.
func (m MultiObserver) OnTransition(ctx context.Context, key policy.Key, tr Transition) {
	for _, o := range m.Observers {
		if internal.IsTypedNil(o) {
			continue
		}
		if to, ok := o.(TransitionObserver); ok {
			to.OnTransition(ctx, key, tr)
		}
	}
}
