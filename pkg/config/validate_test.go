package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{
			name:   "memory backend",
			modify: func(c *Config) { c.Store.Backend = "memory" },
		},
		{
			name:      "unknown backend",
			modify:    func(c *Config) { c.Store.Backend = "mongo" },
			wantField: "store.backend",
		},
		{
			name:      "unknown sqlite driver",
			modify:    func(c *Config) { c.Store.SQLite.Driver = "pg" },
			wantField: "store.sqlite.driver",
		},
		{
			name:      "postgres without dsn",
			modify:    func(c *Config) { c.Store.Backend = "postgres" },
			wantField: "store.postgres.dsn",
		},
		{
			name:   "empty schedule disables cron",
			modify: func(c *Config) { c.Retention.Schedule = "" },
		},
		{
			name:      "bad schedule",
			modify:    func(c *Config) { c.Retention.Schedule = "61 * * * *" },
			wantField: "retention.schedule",
		},
		{
			name:      "grace period too long",
			modify:    func(c *Config) { c.Retention.DefaultGracePeriodDays = 366 },
			wantField: "retention.default_grace_period_days",
		},
		{
			name:      "negative event duration",
			modify:    func(c *Config) { c.Retention.DefaultEventDuration = -time.Hour },
			wantField: "retention.default_event_duration",
		},
		{
			name:      "kafka without brokers",
			modify:    func(c *Config) { c.Notifier.Backend = "kafka" },
			wantField: "notifier.kafka.brokers",
		},
		{
			name: "sasl plain without user",
			modify: func(c *Config) {
				c.Notifier.Backend = "kafka"
				c.Notifier.Kafka.Brokers = []string{"localhost:9092"}
				c.Notifier.Kafka.SASL.Mechanism = "plain"
			},
			wantField: "notifier.kafka.sasl.user",
		},
		{
			name: "unknown sasl mechanism",
			modify: func(c *Config) {
				c.Notifier.Backend = "kafka"
				c.Notifier.Kafka.Brokers = []string{"localhost:9092"}
				c.Notifier.Kafka.SASL.Mechanism = "gssapi"
			},
			wantField: "notifier.kafka.sasl.mechanism",
		},
		{
			name:      "unknown notifier",
			modify:    func(c *Config) { c.Notifier.Backend = "smtp" },
			wantField: "notifier.backend",
		},
		{
			name:      "listen address without port",
			modify:    func(c *Config) { c.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name:      "bad log level",
			modify:    func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "unsorted buckets",
			modify:    func(c *Config) { c.Telemetry.Metrics.RunDurationBuckets = []float64{5, 1} },
			wantField: "telemetry.metrics.run_duration_buckets",
		},
		{
			name:      "tracing without endpoint",
			modify:    func(c *Config) { c.Telemetry.Tracing.Enabled = true },
			wantField: "telemetry.tracing.endpoint",
		},
		{
			name:      "sample ratio out of range",
			modify:    func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			wantField: "telemetry.tracing.sample_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}

			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors %v do not mention %q", verr.Errors, tt.wantField)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "store.backend", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: store.backend: bad" {
		t.Errorf("Error() = %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "x"},
		{Field: "b", Message: "y"},
	}}
	if got := multi.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: y") {
		t.Errorf("Error() = %q", got)
	}
}
