// Package config loads asyncguard settings from a YAML file, an optional
// .env file and ASYNCGUARD_* environment variables.
//
// Precedence, highest first: process environment, .env entries for
// variables not already set, the YAML file, built-in defaults.
package config

//go:generate go run ../scripts/gen_reference.go -root ..

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aponysus/asyncguard/policy"
	"github.com/aponysus/asyncguard/retry"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ASYNCGUARD_"

// Config is the full set of recognized settings.
type Config struct {
	Retry    policy.RetryConfig            `yaml:"retry" envPrefix:"RETRY_"`
	Policies map[string]policy.RetryConfig `yaml:"policies,omitempty"`
	Log      LogConfig                     `yaml:"log" envPrefix:"LOG_"`
	Metrics  MetricsConfig                 `yaml:"metrics" envPrefix:"METRICS_"`
	Tracing  TracingConfig                 `yaml:"tracing" envPrefix:"TRACING_"`
}

// LogConfig selects the slog handler and level.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is text, json or tint.
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr serves /metrics when non-empty, e.g. ":2112".
	Addr string `yaml:"addr,omitempty" env:"ADDR"`
}

// TracingConfig toggles the stdout trace exporter.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// Options controls where Load reads from.
type Options struct {
	// Path is the YAML file. Empty skips the file.
	Path string
	// EnvFile is loaded with godotenv when it exists. Empty skips it.
	EnvFile string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Retry: policy.DefaultRetryConfig(),
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path and applies environment overrides,
// loading ".env" first when present.
func Load(path string) (*Config, error) {
	return LoadWithOptions(Options{Path: path, EnvFile: ".env"})
}

// LoadWithOptions is Load with explicit sources.
func LoadWithOptions(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load env file %s: %w", opts.EnvFile, err)
		}
	}

	cfg := Default()
	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.Path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg after expanding ${VAR} references.
func Parse(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}
	return nil
}

// Normalize fills retry defaults and validates every section.
func (c *Config) Normalize() error {
	r, err := c.Retry.Normalize()
	if err != nil {
		return fmt.Errorf("config: retry: %w", err)
	}
	c.Retry = r

	for name, p := range c.Policies {
		if strings.TrimSpace(name) == "" {
			return errors.New("config: policies: empty key")
		}
		n, err := p.Normalize()
		if err != nil {
			return fmt.Errorf("config: policies.%s: %w", name, err)
		}
		c.Policies[name] = n
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "":
		c.Log.Format = "text"
	case "text", "json", "tint":
		c.Log.Format = strings.ToLower(c.Log.Format)
	default:
		return fmt.Errorf("config: log.format: unknown format %q", c.Log.Format)
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log.level: %w", err)
	}
	return lvl, nil
}

// ExecutorOptions converts the retry sections into executor options.
func (c *Config) ExecutorOptions() []retry.ExecutorOption {
	opts := []retry.ExecutorOption{retry.WithConfig(c.Retry)}
	if len(c.Policies) > 0 {
		opts = append(opts, retry.WithPolicies(c.Policies))
	}
	return opts
}

// PolicyKeys returns the configured per-key policy names in sorted order.
func (c *Config) PolicyKeys() []string {
	keys := make([]string, 0, len(c.Policies))
	for k := range c.Policies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return out, nil
}
