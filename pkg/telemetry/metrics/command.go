package metrics

import (
	"gatherly/eventkeeper/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CommandMetrics tracks executor side effects.
type CommandMetrics struct {
	commandsTotal    *prometheus.CounterVec
	wallPostsDeleted prometheus.Counter
	noticesTotal     *prometheus.CounterVec
}

// NewCommandMetrics creates and registers command metrics with the provided registry.
func NewCommandMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CommandMetrics {
	cm := &CommandMetrics{
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "commands_total",
				Help:      "Total number of retention commands by command and result",
			},
			[]string{"command", "result"},
		),

		wallPostsDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "wall_posts_deleted_total",
				Help:      "Total number of wall posts purged by retention",
			},
		),

		noticesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "notices_total",
				Help:      "Total number of retention notices handed off by backend and result",
			},
			[]string{"backend", "result"},
		),
	}

	registry.MustRegister(
		cm.commandsTotal,
		cm.wallPostsDeleted,
		cm.noticesTotal,
	)

	return cm
}

// RecordCommand increments commands_total.
func (cm *CommandMetrics) RecordCommand(command, result string) {
	cm.commandsTotal.WithLabelValues(command, result).Inc()
}

// RecordWallPostsDeleted adds n purged wall posts.
func (cm *CommandMetrics) RecordWallPostsDeleted(n int) {
	cm.wallPostsDeleted.Add(float64(n))
}

// RecordNotice increments notices_total.
func (cm *CommandMetrics) RecordNotice(backend, result string) {
	cm.noticesTotal.WithLabelValues(backend, result).Inc()
}
