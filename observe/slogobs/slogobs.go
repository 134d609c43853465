// Package slogobs logs executor and guard events with log/slog.
package slogobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/aponysus/asyncguard/classify"
	"github.com/aponysus/asyncguard/observe"
	"github.com/aponysus/asyncguard/policy"
)

// Observer writes debug records for attempts and backoff, a warning per
// failed attempt, info on success and an error on terminal failure.
type Observer struct {
	logger *slog.Logger
}

var (
	_ observe.Observer           = (*Observer)(nil)
	_ observe.TransitionObserver = (*Observer)(nil)
)

// New returns an observer logging to logger, or slog.Default when nil.
func New(logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{logger: logger}
}

func (o *Observer) OnStart(ctx context.Context, key policy.Key, cfg policy.RetryConfig) {
	o.logger.LogAttrs(ctx, slog.LevelDebug, "call started",
		slog.String("key", key.String()),
		slog.Int("max_attempts", cfg.MaxAttempts),
		slog.Duration("initial_delay", cfg.InitialDelay),
		slog.Duration("timeout", cfg.Timeout),
	)
}

func (o *Observer) OnAttempt(ctx context.Context, key policy.Key, rec observe.AttemptRecord) {
	attrs := []slog.Attr{
		slog.String("key", key.String()),
		slog.Int("attempt", rec.Attempt),
		slog.String("outcome", rec.Outcome.Kind.String()),
		slog.String("reason", rec.Outcome.Reason),
		slog.Duration("duration", rec.Duration()),
	}
	if rec.Outcome.Kind == classify.OutcomeSuccess {
		o.logger.LogAttrs(ctx, slog.LevelDebug, "attempt succeeded", attrs...)
		return
	}
	attrs = append(attrs, slog.Any("error", rec.Err))
	o.logger.LogAttrs(ctx, slog.LevelWarn, "attempt failed", attrs...)
}

func (o *Observer) OnBackoff(ctx context.Context, key policy.Key, attempt int, delay time.Duration) {
	o.logger.LogAttrs(ctx, slog.LevelDebug, "backing off",
		slog.String("key", key.String()),
		slog.Int("next_attempt", attempt),
		slog.Duration("delay", delay),
	)
}

func (o *Observer) OnSuccess(ctx context.Context, key policy.Key, tl observe.Timeline) {
	o.logger.LogAttrs(ctx, slog.LevelInfo, "call succeeded", timelineAttrs(key, tl)...)
}

func (o *Observer) OnFailure(ctx context.Context, key policy.Key, tl observe.Timeline) {
	attrs := append(timelineAttrs(key, tl), slog.Any("error", tl.FinalErr))
	if reason := tl.Attributes["abort_reason"]; reason != "" {
		attrs = append(attrs, slog.String("abort_reason", reason))
	}
	o.logger.LogAttrs(ctx, slog.LevelError, "call failed", attrs...)
}

func (o *Observer) OnTransition(ctx context.Context, key policy.Key, tr observe.Transition) {
	attrs := []slog.Attr{
		slog.String("key", key.String()),
		slog.String("from", tr.From),
		slog.String("to", tr.To),
		slog.String("sequence", tr.Sequence),
	}
	if tr.Message != "" {
		attrs = append(attrs, slog.String("message", tr.Message))
	}
	o.logger.LogAttrs(ctx, slog.LevelInfo, "guard transition", attrs...)
}

func timelineAttrs(key policy.Key, tl observe.Timeline) []slog.Attr {
	return []slog.Attr{
		slog.String("key", key.String()),
		slog.String("call_id", tl.ID),
		slog.Int("attempts", len(tl.Attempts)),
		slog.Duration("duration", tl.Duration()),
		slog.Duration("backoff", tl.TotalBackoff()),
	}
}
