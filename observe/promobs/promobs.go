// Package promobs exports executor and guard activity as Prometheus metrics.
package promobs

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aponysus/asyncguard/observe"
	"github.com/aponysus/asyncguard/policy"
)

const defaultNamespace = "asyncguard"

// Observer records metrics labelled by operation key.
type Observer struct {
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	calls           *prometheus.CounterVec
	inFlight        *prometheus.GaugeVec
	backoff         *prometheus.CounterVec
	transitions     *prometheus.CounterVec
}

var (
	_ observe.Observer           = (*Observer)(nil)
	_ observe.TransitionObserver = (*Observer)(nil)
)

type options struct {
	namespace string
	buckets   []float64
}

// Option configures an Observer.
type Option func(*options)

// WithNamespace replaces the "asyncguard" metric prefix.
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithBuckets sets the attempt duration histogram buckets.
func WithBuckets(b []float64) Option {
	return func(o *options) { o.buckets = b }
}

// New registers the observer's collectors with reg, or with
// prometheus.DefaultRegisterer when reg is nil. It panics if the collectors
// are already registered.
func New(reg prometheus.Registerer, opts ...Option) *Observer {
	o := options{namespace: defaultNamespace, buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Observer{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: o.namespace,
				Name:      "attempts_total",
				Help:      "Total number of attempts by outcome",
			},
			[]string{"key", "outcome"},
		),
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: o.namespace,
				Name:      "attempt_duration_seconds",
				Help:      "Attempt duration in seconds, including timed out attempts",
				Buckets:   o.buckets,
			},
			[]string{"key"},
		),
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: o.namespace,
				Name:      "calls_total",
				Help:      "Total number of retry sequences by result",
			},
			[]string{"key", "result"},
		),
		inFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: o.namespace,
				Name:      "calls_in_flight",
				Help:      "Number of retry sequences currently running",
			},
			[]string{"key"},
		),
		backoff: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: o.namespace,
				Name:      "backoff_seconds_total",
				Help:      "Total time scheduled for backoff between attempts",
			},
			[]string{"key"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: o.namespace,
				Name:      "guard_transitions_total",
				Help:      "Total number of guard state transitions by target phase",
			},
			[]string{"key", "to"},
		),
	}
}

func (o *Observer) OnStart(_ context.Context, key policy.Key, _ policy.RetryConfig) {
	o.inFlight.WithLabelValues(key.String()).Inc()
}

func (o *Observer) OnAttempt(_ context.Context, key policy.Key, rec observe.AttemptRecord) {
	k := key.String()
	o.attempts.WithLabelValues(k, rec.Outcome.Kind.String()).Inc()
	o.attemptDuration.WithLabelValues(k).Observe(rec.Duration().Seconds())
}

func (o *Observer) OnBackoff(_ context.Context, key policy.Key, _ int, delay time.Duration) {
	o.backoff.WithLabelValues(key.String()).Add(delay.Seconds())
}

func (o *Observer) OnSuccess(_ context.Context, key policy.Key, _ observe.Timeline) {
	o.finish(key, "success")
}

func (o *Observer) OnFailure(_ context.Context, key policy.Key, tl observe.Timeline) {
	result := "exhausted"
	if tl.Attributes["abort_reason"] != "" {
		result = "aborted"
	}
	o.finish(key, result)
}

func (o *Observer) OnTransition(_ context.Context, key policy.Key, tr observe.Transition) {
	o.transitions.WithLabelValues(key.String(), tr.To).Inc()
}

func (o *Observer) finish(key policy.Key, result string) {
	k := key.String()
	o.inFlight.WithLabelValues(k).Dec()
	o.calls.WithLabelValues(k, result).Inc()
}
