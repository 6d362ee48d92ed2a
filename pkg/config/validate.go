package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "store.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any rule fails. All errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateNotifier(&cfg.Notifier)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateStore validates store configuration.
func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.path",
				Message: "path is required for sqlite backend",
			})
		}
		if cfg.SQLite.Driver != "sqlite3" && cfg.SQLite.Driver != "sqlite" {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q (must be 'sqlite3' or 'sqlite')", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.max_open_conns",
				Message: "max open connections must be at least 1",
			})
		}
		if cfg.SQLite.MaxIdleConns < 0 || cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.max_idle_conns",
				Message: "max idle connections must be between 0 and max_open_conns",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.busy_timeout",
				Message: "busy timeout must be non-negative",
			})
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			errs = append(errs, FieldError{
				Field:   "store.postgres.dsn",
				Message: "dsn is required for postgres backend",
			})
		}
		if cfg.Postgres.MaxConns < 1 {
			errs = append(errs, FieldError{
				Field:   "store.postgres.max_conns",
				Message: "max connections must be at least 1",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "store.backend",
			Message: fmt.Sprintf("invalid backend %q (must be 'memory', 'sqlite', or 'postgres')", cfg.Backend),
		})
	}

	return errs
}

// validateRetention validates retention configuration.
func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "retention.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	if cfg.BatchTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.batch_timeout",
			Message: "batch timeout must be non-negative",
		})
	}

	if cfg.NotificationLeadDays < 1 {
		errs = append(errs, FieldError{
			Field:   "retention.notification_lead_days",
			Message: "notification lead must be at least 1 day",
		})
	}

	if cfg.DefaultGracePeriodDays < 1 || cfg.DefaultGracePeriodDays > 365 {
		errs = append(errs, FieldError{
			Field:   "retention.default_grace_period_days",
			Message: "grace period must be between 1 and 365 days",
		})
	}

	if cfg.DefaultEventDuration <= 0 {
		errs = append(errs, FieldError{
			Field:   "retention.default_event_duration",
			Message: "default event duration must be positive",
		})
	}

	return errs
}

// validateNotifier validates notifier configuration.
func validateNotifier(cfg *NotifierConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "log":
	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 {
			errs = append(errs, FieldError{
				Field:   "notifier.kafka.brokers",
				Message: "at least one broker is required for kafka backend",
			})
		}
		if cfg.Kafka.Topic == "" {
			errs = append(errs, FieldError{
				Field:   "notifier.kafka.topic",
				Message: "topic is required for kafka backend",
			})
		}
		if cfg.Kafka.ProduceTimeout <= 0 {
			errs = append(errs, FieldError{
				Field:   "notifier.kafka.produce_timeout",
				Message: "produce timeout must be positive",
			})
		}
		switch cfg.Kafka.SASL.Mechanism {
		case "":
		case "plain":
			if cfg.Kafka.SASL.User == "" {
				errs = append(errs, FieldError{
					Field:   "notifier.kafka.sasl.user",
					Message: "user is required for sasl mechanism plain",
				})
			}
		default:
			errs = append(errs, FieldError{
				Field:   "notifier.kafka.sasl.mechanism",
				Message: fmt.Sprintf("invalid mechanism %q (must be '' or 'plain')", cfg.Kafka.SASL.Mechanism),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "notifier.backend",
			Message: fmt.Sprintf("invalid backend %q (must be 'log' or 'kafka')", cfg.Backend),
		})
	}

	return errs
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address: %v", err),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be non-negative",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be non-negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be 'debug', 'info', 'warn', or 'error')", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be 'json' or 'text')", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	for i := 1; i < len(cfg.Metrics.RunDurationBuckets); i++ {
		if cfg.Metrics.RunDurationBuckets[i] <= cfg.Metrics.RunDurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.run_duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
