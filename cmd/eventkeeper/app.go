package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gatherly/eventkeeper/pkg/config"
	"gatherly/eventkeeper/pkg/executor"
	"gatherly/eventkeeper/pkg/lifecycle"
	"gatherly/eventkeeper/pkg/notify"
	"gatherly/eventkeeper/pkg/retention"
	"gatherly/eventkeeper/pkg/store"
	"gatherly/eventkeeper/pkg/telemetry/metrics"
	"gatherly/eventkeeper/pkg/telemetry/tracing"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    store.Store
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	planner  *retention.Planner
	executor *executor.Executor
	runner   *retention.Runner

	closers []func()
}

// newPlanner builds the retention policy described by cfg.
func newPlanner(cfg *config.Config) *retention.Planner {
	policy := retention.Policy{
		NotificationLead: time.Duration(cfg.Retention.NotificationLeadDays) * 24 * time.Hour,
		Resolver:         lifecycle.Resolver{DefaultDuration: cfg.Retention.DefaultEventDuration},
	}
	return retention.NewPlanner(retention.NewCalculator(policy))
}

func newRunnerConfig(cfg *config.Config) retention.RunnerConfig {
	return retention.RunnerConfig{
		Schedule:       cfg.Retention.Schedule,
		BatchTimeout:   cfg.Retention.BatchTimeout,
		SweepWallPosts: cfg.Retention.SweepWallPosts,
	}
}

// newApp opens the store and wires the notifier, executor and runner.
// Close must be called on success.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
		planner: newPlanner(cfg),
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracer = tracer
	a.closers = append(a.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Tracing.Timeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	})

	s, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, func() {
		if err := s.Close(); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	})

	notifier, closeNotifier, err := notify.New(cfg.Notifier, a.metrics, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}
	a.closers = append(a.closers, closeNotifier)

	a.executor = executor.New(s, notifier,
		executor.WithCalculator(a.planner.Calculator()),
		executor.WithMetrics(a.metrics),
		executor.WithLogger(logger),
		executor.WithDefaultGracePeriod(cfg.Retention.DefaultGracePeriodDays),
	)

	a.runner = retention.NewRunner(s, a.executor, newRunnerConfig(cfg),
		retention.WithPlanner(a.planner),
		retention.WithMetrics(a.metrics),
		retention.WithTracer(tracer),
		retention.WithLogger(logger),
	)

	return a, nil
}

// reload applies a changed configuration to the running scheduler. Store,
// notifier and server settings need a restart, and so does enabling a
// schedule that was empty at startup.
func (a *app) reload(cfg *config.Config) {
	a.runner.UpdatePolicy(newPlanner(cfg))
	if cfg.Retention.Schedule == "" {
		a.runner.Stop()
		a.logger.Warn("retention schedule removed, scheduled runs stopped")
		return
	}
	if err := a.runner.Reschedule(cfg.Retention.Schedule); err != nil {
		a.logger.Error("failed to apply reloaded schedule", "schedule", cfg.Retention.Schedule, "error", err)
		return
	}
	a.logger.Info("retention policy reloaded",
		"schedule", cfg.Retention.Schedule,
		"notification_lead_days", cfg.Retention.NotificationLeadDays,
	)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
