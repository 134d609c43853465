package policy

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestRetryConfigNormalize_Defaults(t *testing.T) {
	n, err := RetryConfig{}.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != DefaultRetryConfig() {
		t.Fatalf("normalized=%+v, want %+v", n, DefaultRetryConfig())
	}
	if n.MaxAttempts != 3 || n.InitialDelay != time.Second || n.Timeout != 15*time.Second || n.MaxDelay != 0 {
		t.Fatalf("unexpected defaults: %+v", n)
	}
}

func TestRetryConfigNormalize_KeepsExplicitValues(t *testing.T) {
	in := RetryConfig{MaxAttempts: 50, InitialDelay: 5 * time.Millisecond, Timeout: time.Minute}
	n, err := in.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No attempt ceiling: large budgets are allowed.
	if n != in {
		t.Fatalf("normalized=%+v, want %+v", n, in)
	}
}

func TestRetryConfigNormalize_MaxDelayBelowInitial(t *testing.T) {
	n, err := RetryConfig{InitialDelay: time.Second, MaxDelay: time.Millisecond}.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.MaxDelay != time.Second {
		t.Fatalf("MaxDelay=%v, want clamp to 1s", n.MaxDelay)
	}
}

func TestRetryConfigNormalize_RejectsNegatives(t *testing.T) {
	cases := []struct {
		cfg   RetryConfig
		field string
	}{
		{cfg: RetryConfig{MaxAttempts: -1}, field: "max_attempts"},
		{cfg: RetryConfig{InitialDelay: -time.Second}, field: "initial_delay"},
		{cfg: RetryConfig{Timeout: -time.Second}, field: "timeout"},
		{cfg: RetryConfig{MaxDelay: -time.Second}, field: "max_delay"},
	}

	for _, tc := range cases {
		_, err := tc.cfg.Normalize()
		var ne *NormalizeError
		if !errors.As(err, &ne) {
			t.Fatalf("%+v: err=%v, want *NormalizeError", tc.cfg, err)
		}
		if ne.Field != tc.field {
			t.Fatalf("field=%q, want %q", ne.Field, tc.field)
		}
	}
}

func TestNormalizeError_Error(t *testing.T) {
	err := &NormalizeError{Field: "max_attempts", Value: "-1"}
	if got := err.Error(); got != `asyncguard: invalid retry config: max_attempts="-1" must not be negative` {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("NormalizeError must match ErrInvalidConfig")
	}
	var nilErr *NormalizeError
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil message=%q", nilErr.Error())
	}
}

func TestNextDelay(t *testing.T) {
	cases := []struct {
		current, max, want time.Duration
	}{
		{current: 0, want: 0},
		{current: -time.Second, want: 0},
		{current: time.Second, want: 2 * time.Second},
		{current: time.Second, max: 1500 * time.Millisecond, want: 1500 * time.Millisecond},
		{current: time.Duration(math.MaxInt64/2 + 1), want: time.Duration(math.MaxInt64)},
		{current: time.Duration(math.MaxInt64), want: time.Duration(math.MaxInt64)},
	}

	for _, tc := range cases {
		if got := NextDelay(tc.current, tc.max); got != tc.want {
			t.Fatalf("NextDelay(%v, %v)=%v, want %v", tc.current, tc.max, got, tc.want)
		}
	}
}

func TestSchedule(t *testing.T) {
	cases := []struct {
		name string
		cfg  RetryConfig
		want []time.Duration
	}{
		{name: "single_attempt", cfg: RetryConfig{MaxAttempts: 1, InitialDelay: time.Second}, want: nil},
		{name: "three_attempts", cfg: RetryConfig{MaxAttempts: 3, InitialDelay: time.Second}, want: []time.Duration{time.Second, 2 * time.Second}},
		{name: "five_attempts", cfg: RetryConfig{MaxAttempts: 5, InitialDelay: 10 * time.Millisecond}, want: []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond, 80 * time.Millisecond}},
		{name: "capped", cfg: RetryConfig{MaxAttempts: 4, InitialDelay: time.Second, MaxDelay: 3 * time.Second}, want: []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.cfg.Schedule()
			if len(got) != len(tc.want) {
				t.Fatalf("Schedule()=%v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("Schedule()=%v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestSum(t *testing.T) {
	if got := Sum([]time.Duration{time.Second, 2 * time.Second}); got != 3*time.Second {
		t.Fatalf("Sum=%v, want 3s", got)
	}
	huge := time.Duration(math.MaxInt64)
	if got := Sum([]time.Duration{huge, huge}); got != huge {
		t.Fatalf("Sum overflow=%v, want saturation", got)
	}
}
