// Package metrics provides Prometheus metrics for the retention engine.
//
// # Metrics
//
//   - runs_total{status}: retention runs by outcome ("success", "partial", "error")
//   - run_duration_seconds: wall time of a retention run
//   - events_scanned: events listed by the most recent run
//   - planned_commands{command}: size of each list in the most recent plan
//   - last_success_timestamp_seconds: unix time of the last fully successful run
//   - commands_total{command,result}: executor outcomes ("applied", "skipped", "failed")
//   - wall_posts_deleted_total: wall posts purged by the sweeper
//   - notices_total{backend,result}: retention notices handed to the notifier
//
// Every name is prefixed with the configured namespace and subsystem
// (default "gatherly_eventkeeper_").
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordCommand("archive", "applied")
//	router.Handle("/metrics", collector.Handler())
//
// A nil *Collector is valid and records nothing, so components can take one
// unconditionally.
package metrics
