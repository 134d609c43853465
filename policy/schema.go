package policy

import (
	"math"
	"strconv"
	"time"

	"github.com/aponysus/asyncguard/race"
)

// Defaults applied to unset RetryConfig fields.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 1 * time.Second
	DefaultTimeout      = race.DefaultTimeout
)

// RetryConfig controls a retry sequence.
type RetryConfig struct {
	// MaxAttempts counts total tries, the first one included.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	// InitialDelay is the wait after the first failed attempt. It doubles
	// after every subsequent failure.
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay" env:"INITIAL_DELAY"`
	// Timeout bounds each individual attempt.
	Timeout time.Duration `json:"timeout" yaml:"timeout" env:"TIMEOUT"`
	// MaxDelay caps the backoff delay. Zero leaves growth unbounded.
	MaxDelay time.Duration `json:"max_delay,omitempty" yaml:"max_delay,omitempty" env:"MAX_DELAY"`
}

// DefaultRetryConfig returns 3 attempts, 1s initial delay and a 15s per-attempt timeout.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Timeout:      DefaultTimeout,
	}
}

// Normalize fills unset fields with defaults and rejects negative values.
func (c RetryConfig) Normalize() (RetryConfig, error) {
	n := c

	switch {
	case n.MaxAttempts == 0:
		n.MaxAttempts = DefaultMaxAttempts
	case n.MaxAttempts < 0:
		return RetryConfig{}, &NormalizeError{Field: "max_attempts", Value: strconv.Itoa(n.MaxAttempts)}
	}

	switch {
	case n.InitialDelay == 0:
		n.InitialDelay = DefaultInitialDelay
	case n.InitialDelay < 0:
		return RetryConfig{}, &NormalizeError{Field: "initial_delay", Value: n.InitialDelay.String()}
	}

	switch {
	case n.Timeout == 0:
		n.Timeout = DefaultTimeout
	case n.Timeout < 0:
		return RetryConfig{}, &NormalizeError{Field: "timeout", Value: n.Timeout.String()}
	}

	if n.MaxDelay < 0 {
		return RetryConfig{}, &NormalizeError{Field: "max_delay", Value: n.MaxDelay.String()}
	}
	if n.MaxDelay > 0 && n.MaxDelay < n.InitialDelay {
		n.MaxDelay = n.InitialDelay
	}

	return n, nil
}

// NextDelay doubles current, saturating at the largest Duration and
// honoring max when it is positive.
func NextDelay(current, max time.Duration) time.Duration {
	if current <= 0 {
		return 0
	}
	next := current * 2
	if current > math.MaxInt64/2 {
		next = time.Duration(math.MaxInt64)
	}
	if max > 0 && next > max {
		return max
	}
	return next
}

// Schedule returns the backoff delays a permanently failing sequence waits
// through: MaxAttempts-1 entries starting at InitialDelay.
func (c RetryConfig) Schedule() []time.Duration {
	if c.MaxAttempts <= 1 {
		return nil
	}
	out := make([]time.Duration, 0, c.MaxAttempts-1)
	delay := c.InitialDelay
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	for i := 1; i < c.MaxAttempts; i++ {
		out = append(out, delay)
		delay = NextDelay(delay, c.MaxDelay)
	}
	return out
}

// Sum returns the total backoff of the schedule, saturating on overflow.
func Sum(delays []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range delays {
		if total > time.Duration(math.MaxInt64)-d {
			return time.Duration(math.MaxInt64)
		}
		total += d
	}
	return total
}
