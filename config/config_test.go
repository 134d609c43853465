package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aponysus/asyncguard/policy"
	"github.com/aponysus/asyncguard/retry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWithOptions(Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, 15*time.Second, cfg.Retry.Timeout)
	assert.Zero(t, cfg.Retry.MaxDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv("TEST_ASYNCGUARD_TIMEOUT", "2s")
	path := writeFile(t, "asyncguard.yaml", `
retry:
  max_attempts: 5
  initial_delay: 250ms
  timeout: ${TEST_ASYNCGUARD_TIMEOUT}
  max_delay: 4s
policies:
  payments.Charge:
    max_attempts: 2
log:
  level: debug
  format: json
metrics:
  addr: ":2112"
tracing:
  enabled: true
`)

	cfg, err := LoadWithOptions(Options{Path: path})
	require.NoError(t, err)

	assert.Equal(t, policy.RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 250 * time.Millisecond,
		Timeout:      2 * time.Second,
		MaxDelay:     4 * time.Second,
	}, cfg.Retry)

	charge := cfg.Policies["payments.Charge"]
	assert.Equal(t, 2, charge.MaxAttempts)
	assert.Equal(t, policy.DefaultInitialDelay, charge.InitialDelay)

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":2112", cfg.Metrics.Addr)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, []string{"payments.Charge"}, cfg.PolicyKeys())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "asyncguard.yaml", `
retry:
  max_attempts: 5
log:
  level: debug
`)
	t.Setenv("ASYNCGUARD_RETRY_MAX_ATTEMPTS", "7")
	t.Setenv("ASYNCGUARD_RETRY_INITIAL_DELAY", "10ms")
	t.Setenv("ASYNCGUARD_LOG_LEVEL", "warn")
	t.Setenv("ASYNCGUARD_TRACING_ENABLED", "true")

	cfg, err := LoadWithOptions(Options{Path: path})
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Retry.InitialDelay)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoad_DotEnv(t *testing.T) {
	envFile := writeFile(t, ".env", "ASYNCGUARD_METRICS_ADDR=:9999\n")
	t.Cleanup(func() { os.Unsetenv("ASYNCGUARD_METRICS_ADDR") })

	cfg, err := LoadWithOptions(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	_, err := LoadWithOptions(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"negative_attempts": "retry:\n  max_attempts: -1\n",
		"negative_policy":   "policies:\n  a.b:\n    timeout: -1s\n",
		"bad_level":         "log:\n  level: loud\n",
		"bad_format":        "log:\n  format: xml\n",
		"bad_yaml":          "retry: [\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "bad.yaml", content)
			_, err := LoadWithOptions(Options{Path: path})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config:")
		})
	}

	_, err := LoadWithOptions(Options{Path: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("ASYNCGUARD_RETRY_TIMEOUT", "soon")
	_, err := LoadWithOptions(Options{})
	assert.ErrorContains(t, err, "parse env")
}

func TestConfig_ExecutorOptions(t *testing.T) {
	cfg := Default()
	cfg.Retry.MaxAttempts = 4
	cfg.Policies = map[string]policy.RetryConfig{"svc.op": {MaxAttempts: 9}}
	require.NoError(t, cfg.Normalize())

	exec := retry.NewExecutor(cfg.ExecutorOptions()...)
	assert.Equal(t, 4, exec.Config().MaxAttempts)
	assert.Equal(t, 9, exec.ConfigFor(policy.ParseKey("svc.op")).MaxAttempts)
}

func TestConfig_MarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Retry.MaxDelay = 30 * time.Second

	out, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "initial_delay: 1s")
	assert.Contains(t, string(out), "max_delay: 30s")

	parsed := Default()
	require.NoError(t, Parse(out, parsed))
	require.NoError(t, parsed.Normalize())
	assert.Equal(t, cfg.Retry, parsed.Retry)
}
