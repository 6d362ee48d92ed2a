// Package config provides configuration management for eventkeeper.
//
// Configuration is read from a YAML file, completed with defaults and then
// overridden from the environment.
//
// # Configuration Precedence
//
// Later sources override earlier ones:
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. EVENTKEEPER_* environment variables
//  4. Validation (fails fast if invalid)
//
// Environment variable names mirror the YAML path, upper-cased and joined
// with underscores:
//
//   - EVENTKEEPER_STORE_BACKEND overrides store.backend
//   - EVENTKEEPER_STORE_POSTGRES_DSN overrides store.postgres.dsn
//   - EVENTKEEPER_RETENTION_SCHEDULE overrides retention.schedule
//   - EVENTKEEPER_NOTIFIER_KAFKA_BROKERS overrides notifier.kafka.brokers (comma separated)
//
// # Example Configuration
//
//	store:
//	  backend: sqlite
//	  sqlite:
//	    path: /var/lib/eventkeeper/events.db
//
//	retention:
//	  schedule: "0 3 * * *"
//	  notification_lead_days: 30
//	  default_grace_period_days: 30
//
//	notifier:
//	  backend: kafka
//	  kafka:
//	    brokers: ["kafka-1:9092"]
//	    topic: event-retention-notices
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//
// # Reloading
//
// Watcher observes the configuration file with fsnotify and invokes a
// callback with the freshly loaded Config after writes settle. Invalid
// files are reported through the error callback and the previous
// configuration stays in effect.
package config
