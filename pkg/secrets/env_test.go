package secrets

import (
	"context"
	"errors"
	"testing"
)

func TestEnvProvider_GetSecret(t *testing.T) {
	t.Setenv("EVENTKEEPER_SECRET_PG_DSN", "postgres://u:p@db/events")

	provider := NewEnvProvider("EVENTKEEPER_SECRET_")

	value, err := provider.GetSecret(context.Background(), "pg-dsn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "postgres://u:p@db/events" {
		t.Errorf("expected DSN, got '%s'", value)
	}
}

func TestEnvProvider_GetSecret_NotFound(t *testing.T) {
	t.Setenv("EVENTKEEPER_SECRET_EMPTY", "")
	provider := NewEnvProvider("EVENTKEEPER_SECRET_")

	for _, name := range []string{"nonexistent-key", "empty"} {
		_, err := provider.GetSecret(context.Background(), name)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetSecret(%q) error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestEnvProvider_SecretNameConversion(t *testing.T) {
	tests := []struct {
		secretName string
		envVarName string
	}{
		{"kafka-password", "EVENTKEEPER_SECRET_KAFKA_PASSWORD"},
		{"kafka_user", "EVENTKEEPER_SECRET_KAFKA_USER"},
		{"Mixed-Case", "EVENTKEEPER_SECRET_MIXED_CASE"},
	}

	provider := NewEnvProvider("EVENTKEEPER_SECRET_")
	for _, tt := range tests {
		t.Run(tt.secretName, func(t *testing.T) {
			t.Setenv(tt.envVarName, "value")

			value, err := provider.GetSecret(context.Background(), tt.secretName)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if value != "value" {
				t.Errorf("got %q", value)
			}
		})
	}
}
