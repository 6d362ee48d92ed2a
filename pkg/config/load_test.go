package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eventkeeper.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Store.Backend != DefaultStoreBackend {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, DefaultStoreBackend)
	}
	if cfg.Retention.Schedule != DefaultRetentionSchedule {
		t.Errorf("Retention.Schedule = %q, want %q", cfg.Retention.Schedule, DefaultRetentionSchedule)
	}
	if cfg.Retention.DefaultGracePeriodDays != DefaultGracePeriodDays {
		t.Errorf("DefaultGracePeriodDays = %d, want %d", cfg.Retention.DefaultGracePeriodDays, DefaultGracePeriodDays)
	}
	if cfg.Retention.DefaultEventDuration != 3*time.Hour {
		t.Errorf("DefaultEventDuration = %v, want 3h", cfg.Retention.DefaultEventDuration)
	}
	if !cfg.Store.SQLite.WALMode || !cfg.Retention.SweepWallPosts || !cfg.Telemetry.Metrics.Enabled {
		t.Error("boolean defaults not applied")
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: memory
retention:
  schedule: "*/15 * * * *"
  notification_lead_days: 14
  sweep_wall_posts: false
telemetry:
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Retention.Schedule != "*/15 * * * *" {
		t.Errorf("Retention.Schedule = %q", cfg.Retention.Schedule)
	}
	if cfg.Retention.NotificationLeadDays != 14 {
		t.Errorf("NotificationLeadDays = %d, want 14", cfg.Retention.NotificationLeadDays)
	}
	if cfg.Retention.SweepWallPosts {
		t.Error("SweepWallPosts should be disabled by the file")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("Metrics.Enabled should be disabled by the file")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		missing bool
	}{
		{name: "missing file", missing: true},
		{name: "malformed yaml", content: "store: [unterminated"},
		{name: "invalid backend", content: "store:\n  backend: mongo\n"},
		{name: "invalid schedule", content: "retention:\n  schedule: \"every day\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "absent.yaml")
			if !tt.missing {
				path = writeConfig(t, tt.content)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig() expected error, got nil")
			}
		})
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: sqlite\n")

	t.Setenv("EVENTKEEPER_STORE_BACKEND", "postgres")
	t.Setenv("EVENTKEEPER_STORE_POSTGRES_DSN", "postgres://localhost/events")
	t.Setenv("EVENTKEEPER_RETENTION_BATCH_TIMEOUT", "90s")
	t.Setenv("EVENTKEEPER_NOTIFIER_BACKEND", "kafka")
	t.Setenv("EVENTKEEPER_NOTIFIER_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("EVENTKEEPER_TELEMETRY_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Store.Backend != "postgres" {
		t.Errorf("Store.Backend = %q, want postgres", cfg.Store.Backend)
	}
	if cfg.Store.Postgres.DSN != "postgres://localhost/events" {
		t.Errorf("Postgres.DSN = %q", cfg.Store.Postgres.DSN)
	}
	if cfg.Retention.BatchTimeout != 90*time.Second {
		t.Errorf("BatchTimeout = %v, want 90s", cfg.Retention.BatchTimeout)
	}
	if len(cfg.Notifier.Kafka.Brokers) != 2 || cfg.Notifier.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Notifier.Kafka.Brokers)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("EVENTKEEPER_STORE_BACKEND", "memory")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	t.Setenv("EVENTKEEPER_RETENTION_DEFAULT_GRACE_PERIOD_DAYS", "400")

	_, err := LoadConfigWithEnvOverrides("")
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if verr.Errors[0].Field != "retention.default_grace_period_days" {
		t.Errorf("Field = %q", verr.Errors[0].Field)
	}
}

func TestSingleton(t *testing.T) {
	SetConfig(nil)
	if GetConfig() != nil {
		t.Fatal("GetConfig() should be nil after SetConfig(nil)")
	}

	defer func() {
		if recover() == nil {
			t.Error("MustGetConfig() should panic without configuration")
		}
	}()

	cfg := NewDefault()
	SetConfig(cfg)
	if GetConfig() != cfg {
		t.Error("GetConfig() did not return the stored configuration")
	}

	SetConfig(nil)
	MustGetConfig()
}
