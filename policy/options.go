package policy

import "time"

// Option mutates a RetryConfig under construction.
type Option func(*RetryConfig)

// New builds a normalized RetryConfig from the defaults and opts. An invalid
// result falls back to DefaultRetryConfig.
func New(opts ...Option) RetryConfig {
	c := DefaultRetryConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	n, err := c.Normalize()
	if err != nil {
		return DefaultRetryConfig()
	}
	return n
}

// MaxAttempts sets the total number of tries, the first one included.
func MaxAttempts(n int) Option {
	return func(c *RetryConfig) { c.MaxAttempts = n }
}

// InitialDelay sets the wait after the first failed attempt.
func InitialDelay(d time.Duration) Option {
	return func(c *RetryConfig) { c.InitialDelay = d }
}

// Timeout bounds each individual attempt.
func Timeout(d time.Duration) Option {
	return func(c *RetryConfig) { c.Timeout = d }
}

// MaxDelay caps backoff growth.
func MaxDelay(d time.Duration) Option {
	return func(c *RetryConfig) { c.MaxDelay = d }
}

// NoRetry runs a single attempt.
func NoRetry() Option {
	return MaxAttempts(1)
}

// Merge overlays the non-zero fields of override onto c.
func Merge(override RetryConfig) Option {
	return func(c *RetryConfig) {
		if override.MaxAttempts != 0 {
			c.MaxAttempts = override.MaxAttempts
		}
		if override.InitialDelay != 0 {
			c.InitialDelay = override.InitialDelay
		}
		if override.Timeout != 0 {
			c.Timeout = override.Timeout
		}
		if override.MaxDelay != 0 {
			c.MaxDelay = override.MaxDelay
		}
	}
}
