package metrics

import (
	"time"

	"gatherly/eventkeeper/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics tracks retention batch runs.
type RunMetrics struct {
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	eventsScanned   prometheus.Gauge
	plannedCommands *prometheus.GaugeVec
	lastSuccess     prometheus.Gauge
}

// NewRunMetrics creates and registers run metrics with the provided registry.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total number of retention runs by outcome",
			},
			[]string{"status"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of retention runs in seconds",
				Buckets:   cfg.RunDurationBuckets,
			},
		),

		eventsScanned: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "events_scanned",
				Help:      "Number of events examined by the most recent run",
			},
		),

		plannedCommands: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "planned_commands",
				Help:      "Number of commands in the most recent plan",
			},
			[]string{"command"},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix timestamp of the last fully successful run",
			},
		),
	}

	registry.MustRegister(
		rm.runsTotal,
		rm.runDuration,
		rm.eventsScanned,
		rm.plannedCommands,
		rm.lastSuccess,
	)

	return rm
}

// RecordRun records the outcome of one run.
func (rm *RunMetrics) RecordRun(status string, duration time.Duration, eventsScanned int) {
	rm.runsTotal.WithLabelValues(status).Inc()
	rm.runDuration.Observe(duration.Seconds())
	rm.eventsScanned.Set(float64(eventsScanned))
	if status == StatusSuccess {
		rm.lastSuccess.SetToCurrentTime()
	}
}

// RecordPlan records the planned list sizes.
func (rm *RunMetrics) RecordPlan(notify, archive, remove int) {
	rm.plannedCommands.WithLabelValues("notify").Set(float64(notify))
	rm.plannedCommands.WithLabelValues("archive").Set(float64(archive))
	rm.plannedCommands.WithLabelValues("delete").Set(float64(remove))
}
