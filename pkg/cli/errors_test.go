package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	cause := errors.New("retention.notification_lead_days must be positive")

	err := NewConfigError("/etc/eventkeeper.yaml", cause)
	if !strings.Contains(err.Error(), "/etc/eventkeeper.yaml") {
		t.Errorf("Error() = %q, want path", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("ConfigError should unwrap to its cause")
	}

	noPath := NewConfigError("", cause)
	if got, want := noPath.Error(), "config error: "+cause.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCommandError(t *testing.T) {
	cause := errors.New("store unavailable")
	err := NewCommandError("run", cause)

	if got, want := err.Error(), "command run failed: store unavailable"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("CommandError should unwrap to its cause")
	}
	if err.Partial {
		t.Error("NewCommandError should not be partial")
	}
	if !NewPartialError("run", cause).Partial {
		t.Error("NewPartialError should be partial")
	}
}

func TestExitCode(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", cause, ExitFailure},
		{"config error", NewConfigError("cfg.yaml", cause), ExitConfigError},
		{"wrapped config error", fmt.Errorf("startup: %w", NewConfigError("", cause)), ExitConfigError},
		{"command error", NewCommandError("run", cause), ExitFailure},
		{"partial run", NewPartialError("run", cause), ExitPartialRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
