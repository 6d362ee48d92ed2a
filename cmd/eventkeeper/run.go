package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"gatherly/eventkeeper/pkg/cli"
	"gatherly/eventkeeper/pkg/config"
	"gatherly/eventkeeper/pkg/server"
	"gatherly/eventkeeper/pkg/telemetry/health"
	"gatherly/eventkeeper/pkg/telemetry/metrics"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runFlags struct {
	listenAddress string
	once          bool
	format        string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run retention batches",
	Long: `Run retention batches on the configured cron schedule.

While running, an ops server exposes /metrics, /healthz, /readyz and /version.
Readiness fails when the store is unreachable or the last successful batch is
older than two schedule intervals.

With --once a single batch runs in the foreground and its report is printed.
The exit code is 0 on success, 3 when some commands failed and 1 when the
batch could not run at all.

Examples:
  # Run with the schedule from the config file
  eventkeeper run --config /etc/eventkeeper/config.yaml

  # Override the ops server address
  eventkeeper run --listen 0.0.0.0:9090

  # Run one batch and print a JSON report
  eventkeeper run --once --format json`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override ops server listen address")
	runCmd.Flags().BoolVar(&runFlags.once, "once", false, "run a single batch and exit")
	runCmd.Flags().StringVarP(&runFlags.format, "format", "f", "text", "report format for --once: text, json, csv")
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}

	logger, err := setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.Close()

	if runFlags.once {
		return runOnce(ctx, a, cmd.OutOrStdout(), runFlags.format)
	}

	printBanner(cmd.OutOrStdout(), cfg)

	g, gctx := errgroup.WithContext(ctx)

	srv := server.New(cfg.Server, newOpsRouter(a), logger)
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if err := a.runner.Start(gctx); err != nil {
		stop()
		_ = g.Wait()
		return cli.NewConfigError(cfgFile, err)
	}
	defer a.runner.Stop()

	if cfg.Retention.ReloadOnChange && cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, config.DefaultDebounceInterval, logger)
		if err != nil {
			logger.Warn("config reload disabled", "error", err)
		} else {
			g.Go(func() error {
				return watcher.Watch(gctx, a.reload, nil)
			})
			defer func() { _ = watcher.Stop() }()
		}
	}

	if next := a.runner.NextRun(); next != nil {
		logger.Info("next retention run scheduled", "at", next.UTC())
	}

	err = g.Wait()
	logger.Info("eventkeeper stopped")
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// runOnce executes one batch and prints its report.
func runOnce(ctx context.Context, a *app, w io.Writer, format string) error {
	formatter, err := cli.NewFormatterFor(format)
	if err != nil {
		return err
	}

	report, runErr := a.runner.Run(ctx)
	if report != nil {
		if err := formatter.FormatTo(w, runReportTable{report}); err != nil {
			return err
		}
	}

	if runErr == nil {
		return nil
	}
	if report != nil && report.Status == metrics.StatusPartial {
		return cli.NewPartialError("run", runErr)
	}
	return cli.NewCommandError("run", runErr)
}

// newOpsRouter mounts metrics and health endpoints.
func newOpsRouter(a *app) http.Handler {
	checker := health.New(health.DefaultCheckTimeout)
	checker.RegisterCheck("store", health.PingCheck(a.store))
	if maxAge, ok := freshnessWindow(a.cfg.Retention.Schedule, time.Now()); ok {
		grace := maxAge + a.cfg.Retention.BatchTimeout
		checker.RegisterCheck("retention", health.FreshnessCheck(a.runner.LastSuccess, maxAge, grace, nil))
	}

	routes := server.Routes{
		Health:    checker,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	}
	if a.cfg.Telemetry.Metrics.Enabled {
		routes.Metrics = a.metrics.Handler()
		routes.MetricsPath = a.cfg.Telemetry.Metrics.Path
	}
	return server.NewRouter(routes, a.logger)
}

// freshnessWindow returns two intervals of schedule, measured from the next
// activation after now. Runs older than that have been missed at least once.
func freshnessWindow(schedule string, now time.Time) (time.Duration, bool) {
	if schedule == "" {
		return 0, false
	}
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return 0, false
	}
	first := sched.Next(now.UTC())
	second := sched.Next(first)
	if first.IsZero() || second.IsZero() {
		return 0, false
	}
	return 2 * second.Sub(first), true
}

func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Eventkeeper %s\n", Version)
	fmt.Fprintf(w, "✓ Store: %s\n", cfg.Store.Backend)
	fmt.Fprintf(w, "✓ Notifier: %s\n", cfg.Notifier.Backend)
	if cfg.Retention.Schedule != "" {
		fmt.Fprintf(w, "✓ Schedule: %s (UTC)\n", cfg.Retention.Schedule)
	} else {
		fmt.Fprintln(w, "  Schedule: none (use run --once)")
	}
	fmt.Fprintf(w, "✓ Notification lead: %d days\n", cfg.Retention.NotificationLeadDays)
	fmt.Fprintf(w, "✓ Ops server: http://%s\n", cfg.Server.ListenAddress)
}
