// Package otelobs records retry sequences as OpenTelemetry spans.
//
// Spans are emitted when a sequence finishes, back-dated with the timeline's
// timestamps: one span per call with a child span per attempt.
package otelobs

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aponysus/asyncguard/classify"
	"github.com/aponysus/asyncguard/observe"
	"github.com/aponysus/asyncguard/policy"
)

// TracerName is the instrumentation scope used for spans.
const TracerName = "github.com/aponysus/asyncguard"

// Observer turns finished timelines into spans and guard transitions into
// span events on the caller's active span.
type Observer struct {
	observe.BaseObserver
	tracer trace.Tracer
}

var _ observe.TransitionObserver = (*Observer)(nil)

// New returns an observer using a tracer from tp.
func New(tp trace.TracerProvider) *Observer {
	return &Observer{tracer: tp.Tracer(TracerName)}
}

func (o *Observer) OnSuccess(ctx context.Context, key policy.Key, tl observe.Timeline) {
	o.record(ctx, key, tl)
}

func (o *Observer) OnFailure(ctx context.Context, key policy.Key, tl observe.Timeline) {
	o.record(ctx, key, tl)
}

func (o *Observer) OnTransition(ctx context.Context, key policy.Key, tr observe.Transition) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("asyncguard.key", key.String()),
		attribute.String("asyncguard.guard.from", tr.From),
		attribute.String("asyncguard.guard.to", tr.To),
		attribute.String("asyncguard.guard.sequence", tr.Sequence),
	}
	if tr.Message != "" {
		attrs = append(attrs, attribute.String("asyncguard.guard.message", tr.Message))
	}
	span.AddEvent("guard.transition", trace.WithAttributes(attrs...))
}

func (o *Observer) record(ctx context.Context, key policy.Key, tl observe.Timeline) {
	name := key.String()
	if name == "" {
		name = "call"
	}

	ctx, span := o.tracer.Start(ctx, "asyncguard "+name,
		trace.WithTimestamp(tl.Start),
		trace.WithAttributes(
			attribute.String("asyncguard.key", key.String()),
			attribute.String("asyncguard.call_id", tl.ID),
			attribute.Int("asyncguard.max_attempts", tl.Config.MaxAttempts),
			attribute.Int64("asyncguard.timeout_ms", tl.Config.Timeout.Milliseconds()),
			attribute.Int("asyncguard.attempts", len(tl.Attempts)),
			attribute.Int64("asyncguard.backoff_ms", tl.TotalBackoff().Milliseconds()),
		),
	)

	for _, rec := range tl.Attempts {
		_, as := o.tracer.Start(ctx, "attempt",
			trace.WithTimestamp(rec.StartTime),
			trace.WithAttributes(
				attribute.Int("asyncguard.attempt", rec.Attempt),
				attribute.String("asyncguard.outcome", rec.Outcome.Kind.String()),
				attribute.String("asyncguard.reason", rec.Outcome.Reason),
				attribute.Int64("asyncguard.backoff_ms", rec.Backoff.Milliseconds()),
			),
		)
		if rec.Outcome.Kind != classify.OutcomeSuccess && rec.Err != nil {
			as.RecordError(rec.Err)
			as.SetStatus(codes.Error, rec.Outcome.Reason)
		}
		as.End(trace.WithTimestamp(rec.EndTime))
	}

	if tl.FinalErr != nil {
		span.RecordError(tl.FinalErr)
		span.SetStatus(codes.Error, tl.FinalErr.Error())
		if reason := tl.Attributes["abort_reason"]; reason != "" {
			span.SetAttributes(attribute.String("asyncguard.abort_reason", reason))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(tl.End))
}
