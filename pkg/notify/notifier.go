package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gatherly/eventkeeper/pkg/config"
	"gatherly/eventkeeper/pkg/telemetry/metrics"
)

// Backend names.
const (
	BackendLog   = "log"
	BackendKafka = "kafka"
)

// Notice tells an organizer that an event's data will be archived.
type Notice struct {
	EventID             string    `json:"event_id"`
	OrganizerID         string    `json:"organizer_id,omitempty"`
	Title               string    `json:"title,omitempty"`
	ArchivalDate        time.Time `json:"archival_date"`
	DataRetentionMonths int       `json:"data_retention_months"`
	SentAt              time.Time `json:"sent_at"`
}

// Notifier hands off retention notices. A returned error means the notice
// was not accepted and should be retried.
type Notifier interface {
	NotifyRetention(ctx context.Context, n Notice) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notice) error

// NotifyRetention calls f.
func (f Func) NotifyRetention(ctx context.Context, n Notice) error {
	return f(ctx, n)
}

// LogNotifier logs notices.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify.log")}
}

// NotifyRetention logs the notice at info level.
func (l *LogNotifier) NotifyRetention(ctx context.Context, n Notice) error {
	l.logger.InfoContext(ctx, "retention notice",
		"event_id", n.EventID,
		"organizer_id", n.OrganizerID,
		"title", n.Title,
		"archival_date", n.ArchivalDate,
		"data_retention_months", n.DataRetentionMonths,
	)
	return nil
}

// instrumented records the outcome of every hand-off.
type instrumented struct {
	next    Notifier
	backend string
	metrics *metrics.Collector
}

// Instrument wraps n so that each notice is counted by backend and result.
func Instrument(n Notifier, backend string, m *metrics.Collector) Notifier {
	if m == nil {
		return n
	}
	return &instrumented{next: n, backend: backend, metrics: m}
}

func (i *instrumented) NotifyRetention(ctx context.Context, n Notice) error {
	err := i.next.NotifyRetention(ctx, n)
	if err != nil {
		i.metrics.RecordNotice(i.backend, metrics.ResultFailed)
		return err
	}
	i.metrics.RecordNotice(i.backend, metrics.ResultApplied)
	return nil
}

// New creates the notifier selected by cfg.Backend. The returned close
// function releases backend resources.
func New(cfg config.NotifierConfig, m *metrics.Collector, logger *slog.Logger) (Notifier, func(), error) {
	switch cfg.Backend {
	case BackendLog, "":
		return Instrument(NewLogNotifier(logger), BackendLog, m), func() {}, nil
	case BackendKafka:
		k, err := NewKafkaNotifier(cfg.Kafka, logger)
		if err != nil {
			return nil, nil, err
		}
		return Instrument(k, BackendKafka, m), k.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported notifier backend %q", cfg.Backend)
	}
}
