package metrics

import (
	"time"

	"gatherly/eventkeeper/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcome labels.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"
)

// Command result labels.
const (
	ResultApplied = "applied"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Collector owns the metric registry and records retention metrics.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	runMetrics     *RunMetrics
	commandMetrics *CommandMetrics
}

// NewCollector creates a collector registering on registry. A nil registry
// gets a fresh private one, so collectors never collide in tests.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RunDurationBuckets) == 0 {
		cfg.RunDurationBuckets = config.DefaultRunDurationBuckets
	}

	return &Collector{
		config:         cfg,
		registry:       registry,
		runMetrics:     NewRunMetrics(cfg, registry),
		commandMetrics: NewCommandMetrics(cfg, registry),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordRun records a finished retention run.
//
// Parameters:
//   - status: StatusSuccess, StatusPartial or StatusError
//   - duration: wall time of the run
//   - eventsScanned: events listed during planning
func (c *Collector) RecordRun(status string, duration time.Duration, eventsScanned int) {
	if !c.enabled() {
		return
	}

	c.runMetrics.RecordRun(status, duration, eventsScanned)
}

// RecordPlan records the size of each planned command list.
func (c *Collector) RecordPlan(notify, archive, remove int) {
	if !c.enabled() {
		return
	}

	c.runMetrics.RecordPlan(notify, archive, remove)
}

// RecordCommand records one executor outcome.
//
// Parameters:
//   - command: "sync_completed", "notify", "archive", "delete" or "delete_wall_posts"
//   - result: ResultApplied, ResultSkipped or ResultFailed
func (c *Collector) RecordCommand(command, result string) {
	if !c.enabled() {
		return
	}

	c.commandMetrics.RecordCommand(command, result)
}

// RecordWallPostsDeleted adds n to the purged wall post counter.
func (c *Collector) RecordWallPostsDeleted(n int) {
	if !c.enabled() || n <= 0 {
		return
	}

	c.commandMetrics.RecordWallPostsDeleted(n)
}

// RecordNotice records a notifier hand-off.
func (c *Collector) RecordNotice(backend, result string) {
	if !c.enabled() {
		return
	}

	c.commandMetrics.RecordNotice(backend, result)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
