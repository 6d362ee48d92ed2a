package secrets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gatherly/eventkeeper/pkg/config"
)

const testPrefix = "EVENTKEEPER_TEST_SECRET_"

func TestManager_ProviderPriority(t *testing.T) {
	tmpDir := t.TempDir()
	writeSecret(t, tmpDir, "shared", "from-file", 0o600)
	t.Setenv(testPrefix+"SHARED", "from-env")
	t.Setenv(testPrefix+"ENV_ONLY", "env-value")

	m, err := New(config.SecretsConfig{EnvPrefix: testPrefix, Dir: tmpDir}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if v, err := m.GetSecret(ctx, "shared"); err != nil || v != "from-file" {
		t.Errorf("shared = %q, %v; want from-file", v, err)
	}
	if v, err := m.GetSecret(ctx, "env-only"); err != nil || v != "env-value" {
		t.Errorf("env-only = %q, %v; want env-value", v, err)
	}
	if _, err := m.GetSecret(ctx, "nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("nowhere error = %v, want ErrNotFound", err)
	}
}

func TestManager_ProviderErrorStopsLookup(t *testing.T) {
	tmpDir := t.TempDir()
	writeSecret(t, tmpDir, "loose", "value", 0o644)
	t.Setenv(testPrefix+"LOOSE", "env-value")

	m, err := New(config.SecretsConfig{EnvPrefix: testPrefix, Dir: tmpDir}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = m.GetSecret(context.Background(), "loose")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want permission error", err)
	}
}

func TestManager_ResolveReferences(t *testing.T) {
	t.Setenv(testPrefix+"USER", "alice")
	t.Setenv(testPrefix+"PASS", "hunter2")
	m := NewManager([]Provider{NewEnvProvider(testPrefix)}, nil)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no references", "postgres://localhost/events", "postgres://localhost/events", false},
		{"single", "${secret:user}", "alice", false},
		{"embedded", "postgres://${secret:user}:${secret:pass}@db/events", "postgres://alice:hunter2@db/events", false},
		{"missing kept", "${secret:user}:${secret:missing}", "alice:${secret:missing}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ResolveReferences(context.Background(), tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestManager_ResolveConfig(t *testing.T) {
	t.Setenv(testPrefix+"PG_DSN", "postgres://db/events")
	t.Setenv(testPrefix+"KAFKA_USER", "producer")
	m := NewManager([]Provider{NewEnvProvider(testPrefix)}, nil)

	cfg := config.NewDefault()
	cfg.Store.Postgres.DSN = "${secret:pg-dsn}"
	cfg.Notifier.Kafka.SASL.User = "${secret:kafka-user}"
	cfg.Notifier.Kafka.SASL.Password = "plain-text"

	if err := m.ResolveConfig(context.Background(), cfg); err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}
	if cfg.Store.Postgres.DSN != "postgres://db/events" {
		t.Errorf("dsn = %q", cfg.Store.Postgres.DSN)
	}
	if cfg.Notifier.Kafka.SASL.User != "producer" {
		t.Errorf("user = %q", cfg.Notifier.Kafka.SASL.User)
	}
	if cfg.Notifier.Kafka.SASL.Password != "plain-text" {
		t.Errorf("password = %q", cfg.Notifier.Kafka.SASL.Password)
	}

	cfg.Notifier.Kafka.SASL.Password = "${secret:kafka-password}"
	err := m.ResolveConfig(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "notifier.kafka.sasl.password") {
		t.Errorf("error = %v, want field name", err)
	}
}

func TestRedactSecretName(t *testing.T) {
	tests := map[string]string{
		"key":            "***",
		"pg-dsn":         "pg...sn",
		"kafka-password": "ka...rd",
	}
	for in, want := range tests {
		if got := redactSecretName(in); got != want {
			t.Errorf("redactSecretName(%q) = %q, want %q", in, got, want)
		}
	}
}
