package retry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aponysus/asyncguard/policy"
)

func TestNewExecutor_Defaults(t *testing.T) {
	exec := NewExecutor()
	cfg := exec.Config()
	if cfg != policy.DefaultRetryConfig() {
		t.Fatalf("Config()=%+v, want defaults", cfg)
	}
	if exec.observer == nil || exec.classifier == nil || exec.clock == nil || exec.logger == nil {
		t.Fatalf("expected defaults for observer, classifier, clock and logger")
	}
}

func TestWithPolicy_ConfigFor(t *testing.T) {
	exec := NewExecutor(
		WithDefaults(policy.MaxAttempts(2)),
		WithPolicy("payments.Charge", policy.MaxAttempts(5), policy.InitialDelay(50*time.Millisecond)),
	)

	got := exec.ConfigFor(policy.Key{Namespace: "payments", Name: "Charge"})
	if got.MaxAttempts != 5 || got.InitialDelay != 50*time.Millisecond {
		t.Fatalf("ConfigFor(payments.Charge)=%+v", got)
	}
	if fallback := exec.ConfigFor(policy.Key{Name: "other"}); fallback.MaxAttempts != 2 {
		t.Fatalf("fallback MaxAttempts=%d, want 2", fallback.MaxAttempts)
	}
}

func TestWithPolicies_NormalizesEntries(t *testing.T) {
	exec := NewExecutor(WithPolicies(map[string]policy.RetryConfig{
		"svc.A": {MaxAttempts: 4},
	}))
	got := exec.ConfigFor(policy.ParseKey("svc.A"))
	if got.MaxAttempts != 4 || got.InitialDelay != policy.DefaultInitialDelay || got.Timeout != policy.DefaultTimeout {
		t.Fatalf("ConfigFor(svc.A)=%+v", got)
	}
}

func TestNewExecutor_InvalidConfigFallsBack(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	exec := NewExecutor(
		WithLogger(logger),
		WithConfig(policy.RetryConfig{MaxAttempts: -1}),
	)
	if exec.Config() != policy.DefaultRetryConfig() {
		t.Fatalf("Config()=%+v, want defaults", exec.Config())
	}
	if !strings.Contains(buf.String(), "invalid retry config") {
		t.Fatalf("expected warning log, got %q", buf.String())
	}
}

func TestNewExecutor_NilOptionIgnored(t *testing.T) {
	exec := NewExecutor(nil, WithDefaults(policy.NoRetry()))
	if exec.Config().MaxAttempts != 1 {
		t.Fatalf("MaxAttempts=%d, want 1", exec.Config().MaxAttempts)
	}
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	exec := NewExecutor(WithClock(func() time.Time { return fixed }))
	if !exec.clock().Equal(fixed) {
		t.Fatalf("clock not applied")
	}
}

func TestNewDefaultExecutor_AcceptsOverrides(t *testing.T) {
	exec := NewDefaultExecutor(WithDefaults(policy.MaxAttempts(7)))
	if exec.Config().MaxAttempts != 7 {
		t.Fatalf("MaxAttempts=%d, want 7", exec.Config().MaxAttempts)
	}
}
