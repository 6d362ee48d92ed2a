// Package telemetry groups the observability packages used by eventkeeper.
//
// # Components
//
//   - logging: slog setup with run_id, event_id and command from context
//   - metrics: Prometheus counters and histograms for retention runs
//   - tracing: OpenTelemetry spans per run, phase and command
//   - health: liveness, readiness and run freshness endpoints
//
// # Usage
//
//	logger, _ := logging.Setup(logging.Config{Level: "info", Format: "json"})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing)
//
//	ctx, span := tracer.Start(ctx, "retention.run")
//	defer span.End()
package telemetry
