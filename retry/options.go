package retry

import (
	"log/slog"
	"time"

	"github.com/aponysus/asyncguard/classify"
	"github.com/aponysus/asyncguard/observe"
	"github.com/aponysus/asyncguard/policy"
)

type executorConfig struct {
	opts ExecutorOptions
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*executorConfig)

// NewExecutor creates an Executor; unset options take their defaults.
func NewExecutor(opts ...ExecutorOption) *Executor {
	cfg := &executorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return NewExecutorFromOptions(cfg.opts)
}

// WithConfig sets the config used for keys without their own policy.
func WithConfig(c policy.RetryConfig) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.opts.Config = c
	}
}

// WithDefaults builds the fallback config from policy options.
func WithDefaults(opts ...policy.Option) ExecutorOption {
	return WithConfig(policy.New(opts...))
}

// WithPolicy adds a config for a string key (e.g. "svc.Method").
func WithPolicy(key string, opts ...policy.Option) ExecutorOption {
	return WithPolicyKey(policy.ParseKey(key), opts...)
}

// WithPolicyKey adds a config for a structured key.
func WithPolicyKey(key policy.Key, opts ...policy.Option) ExecutorOption {
	return func(cfg *executorConfig) {
		if cfg.opts.Policies == nil {
			cfg.opts.Policies = make(map[policy.Key]policy.RetryConfig)
		}
		cfg.opts.Policies[key] = policy.New(opts...)
	}
}

// WithPolicies adds configs keyed by "namespace.name" strings.
func WithPolicies(configs map[string]policy.RetryConfig) ExecutorOption {
	return func(cfg *executorConfig) {
		if cfg.opts.Policies == nil {
			cfg.opts.Policies = make(map[policy.Key]policy.RetryConfig, len(configs))
		}
		for k, c := range configs {
			cfg.opts.Policies[policy.ParseKey(k)] = c
		}
	}
}

// WithObserver sets the observer.
func WithObserver(o observe.Observer) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.opts.Observer = o
	}
}

// WithClassifier sets the attempt classifier.
func WithClassifier(c classify.Classifier) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.opts.Classifier = c
	}
}

// WithClock sets the clock function used for timelines.
func WithClock(f func() time.Time) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.opts.Clock = f
	}
}

// WithLogger sets the logger for executor diagnostics.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.opts.Logger = l
	}
}
