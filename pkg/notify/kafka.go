package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"gatherly/eventkeeper/pkg/config"
	"gatherly/eventkeeper/pkg/telemetry/tracing"
)

// Producer is the part of *kgo.Client the notifier uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaNotifier produces notices to a Kafka topic.
type KafkaNotifier struct {
	producer Producer
	topic    string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewKafkaNotifier creates a franz-go client for cfg.Brokers. The client
// connects lazily; the first produce surfaces connection errors.
func NewKafkaNotifier(cfg config.KafkaConfig, logger *slog.Logger) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka notifier: no brokers configured")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.SASL.Mechanism == "plain" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.SASL.User,
			Pass: cfg.SASL.Password,
		}.AsMechanism()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka notifier: %w", err)
	}
	return NewKafkaNotifierWithProducer(client, cfg.Topic, cfg.ProduceTimeout, logger), nil
}

// NewKafkaNotifierWithProducer wraps an existing producer.
func NewKafkaNotifierWithProducer(p Producer, topic string, timeout time.Duration, logger *slog.Logger) *KafkaNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaNotifier{
		producer: p,
		topic:    topic,
		timeout:  timeout,
		logger:   logger.With("component", "notify.kafka", "topic", topic),
	}
}

// NotifyRetention produces n and waits for the broker acknowledgement.
func (k *KafkaNotifier) NotifyRetention(ctx context.Context, n Notice) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}

	carrier := make(map[string]string)
	tracing.InjectToMap(ctx, carrier)
	headers := make([]kgo.RecordHeader, 0, len(carrier))
	for key, v := range carrier {
		headers = append(headers, kgo.RecordHeader{Key: key, Value: []byte(v)})
	}

	record := &kgo.Record{
		Topic:   k.topic,
		Key:     []byte(n.EventID),
		Value:   value,
		Headers: headers,
	}

	if k.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	if err := k.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce retention notice for %s: %w", n.EventID, err)
	}

	k.logger.DebugContext(ctx, "retention notice produced", "event_id", n.EventID)
	return nil
}

// Close flushes and closes the client.
func (k *KafkaNotifier) Close() {
	k.producer.Close()
}
