package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aponysus/asyncguard/config"
	"github.com/aponysus/asyncguard/guard"
	"github.com/aponysus/asyncguard/observe"
	"github.com/aponysus/asyncguard/observe/otelobs"
	"github.com/aponysus/asyncguard/observe/promobs"
	"github.com/aponysus/asyncguard/observe/slogobs"
	"github.com/aponysus/asyncguard/retry"
)

type runFlags struct {
	key          string
	failures     int
	latency      time.Duration
	message      string
	interactive  bool
	autoRetry    int
	attempts     int
	initialDelay time.Duration
	timeout      time.Duration
	maxDelay     time.Duration
}

func newRunCmd(root *rootFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulated flaky action through a guard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGuard(cmd, root, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.key, "key", "guardctl.demo", "operation key (namespace.name)")
	f.IntVar(&flags.failures, "failures", 2, "number of calls that fail before the action succeeds")
	f.DurationVar(&flags.latency, "latency", 0, "latency of every call; above the timeout it times out")
	f.StringVar(&flags.message, "message", "network down", "error message of failing calls")
	f.BoolVar(&flags.interactive, "interactive", false, "prompt for a manual retry after a terminal failure")
	f.IntVar(&flags.autoRetry, "auto-retry", 0, "manual retries issued without prompting after terminal failures")
	f.IntVar(&flags.attempts, "attempts", 0, "override retry.max_attempts")
	f.DurationVar(&flags.initialDelay, "initial-delay", 0, "override retry.initial_delay")
	f.DurationVar(&flags.timeout, "timeout", 0, "override retry.timeout")
	f.DurationVar(&flags.maxDelay, "max-delay", 0, "override retry.max_delay")
	return cmd
}

func runGuard(cmd *cobra.Command, root *rootFlags, flags *runFlags) error {
	cfg, err := config.LoadWithOptions(config.Options{Path: root.cfgPath, EnvFile: root.envFile})
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, cfg, flags); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	logger := newLogger(cfg, cmd.ErrOrStderr(), root.debug)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	observers := []observe.Observer{slogobs.New(logger), promobs.New(reg)}

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Tracing.Enabled {
		tp, shutdown, err := otelobs.SetupStdout("guardctl", cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
		observers = append(observers, otelobs.New(tp))
	}

	multi := observe.MultiObserver{Observers: observers}
	exec := retry.NewExecutor(append(cfg.ExecutorOptions(),
		retry.WithObserver(multi),
		retry.WithLogger(logger),
	)...)

	action := &flakyAction{failures: flags.failures, latency: flags.latency, message: flags.message}
	g := guard.New(action.Do,
		guard.WithKey[string](flags.key),
		guard.WithExecutor[string](exec),
		guard.WithLogger[string](logger),
		guard.WithTransitionHook[string](multi),
		guard.WithOnChange[string](func(s guard.State) {
			fmt.Fprintf(out, "state: %s\n", s)
		}),
		guard.WithOnSuccess(func(v string) {
			fmt.Fprintf(out, "result: %s\n", v)
		}),
	)

	cfgFor := exec.ConfigFor(g.Key())
	logger.Info("guard starting",
		"key", g.Key().String(),
		"max_attempts", cfgFor.MaxAttempts,
		"initial_delay", cfgFor.InitialDelay,
		"timeout", cfgFor.Timeout,
	)

	prompt := bufio.NewScanner(cmd.InOrStdin())
	retries := flags.autoRetry
	for {
		st, err := g.Run(ctx)
		if err != nil {
			return err
		}
		switch st.Phase {
		case guard.PhaseSucceeded:
			return nil
		case guard.PhaseIdle:
			return ctx.Err()
		}

		switch {
		case retries > 0:
			retries--
			fmt.Fprintln(out, "retrying")
		case flags.interactive && askRetry(out, prompt):
		default:
			return fmt.Errorf("guard failed: %s", st.Message)
		}
	}
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config, flags *runFlags) error {
	f := cmd.Flags()
	if f.Changed("attempts") {
		cfg.Retry.MaxAttempts = flags.attempts
	}
	if f.Changed("initial-delay") {
		cfg.Retry.InitialDelay = flags.initialDelay
	}
	if f.Changed("timeout") {
		cfg.Retry.Timeout = flags.timeout
	}
	if f.Changed("max-delay") {
		cfg.Retry.MaxDelay = flags.maxDelay
	}
	return cfg.Normalize()
}

func askRetry(w io.Writer, in *bufio.Scanner) bool {
	fmt.Fprint(w, "retry? [y/N]: ")
	if !in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(in.Text()))
	return answer == "y" || answer == "yes"
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics available", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	return srv
}
