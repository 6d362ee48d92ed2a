package config

import "time"

// Default values for configuration fields.
const (
	// Store defaults
	DefaultStoreBackend         = "sqlite"
	DefaultSQLitePath           = "data/eventkeeper.db"
	DefaultSQLiteDriver         = "sqlite3"
	DefaultSQLiteMaxOpenConns   = 10
	DefaultSQLiteMaxIdleConns   = 5
	DefaultSQLiteWALMode        = true
	DefaultSQLiteBusyTimeout    = 5 * time.Second
	DefaultPostgresMaxConns     = int32(10)
	DefaultPostgresConnTimeout  = 10 * time.Second
	DefaultRetentionSchedule    = "0 3 * * *"
	DefaultRetentionTimeout     = 10 * time.Minute
	DefaultNotificationLeadDays = 30
	DefaultGracePeriodDays      = 30
	DefaultEventDuration        = 3 * time.Hour
	DefaultSweepWallPosts       = true

	// Notifier defaults
	DefaultNotifierBackend     = "log"
	DefaultKafkaTopic          = "event-retention-notices"
	DefaultKafkaClientID       = "eventkeeper"
	DefaultKafkaProduceTimeout = 10 * time.Second

	// Secrets defaults
	DefaultSecretsEnvPrefix = "EVENTKEEPER_SECRET_"

	// Server defaults
	DefaultServerListenAddress   = "127.0.0.1:9090"
	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerShutdownTimeout = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "gatherly"
	DefaultMetricsSubsystem   = "eventkeeper"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "eventkeeper"
	DefaultTracingTimeout     = 10 * time.Second
)

// DefaultRunDurationBuckets are the default histogram buckets for run durations.
var DefaultRunDurationBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900}

// NewDefault returns a configuration with every default applied. Loading
// unmarshals YAML on top of it, so booleans that default to true can still be
// switched off explicitly.
func NewDefault() *Config {
	cfg := &Config{}
	cfg.Retention.Schedule = DefaultRetentionSchedule
	cfg.Store.SQLite.WALMode = DefaultSQLiteWALMode
	cfg.Retention.SweepWallPosts = DefaultSweepWallPosts
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Boolean fields
// are left alone; NewDefault seeds them before unmarshalling.
func ApplyDefaults(cfg *Config) {
	// Store defaults
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Store.SQLite.Driver == "" {
		cfg.Store.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Store.SQLite.MaxOpenConns == 0 {
		cfg.Store.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Store.SQLite.MaxIdleConns == 0 {
		cfg.Store.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Store.SQLite.BusyTimeout == 0 {
		cfg.Store.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Store.Postgres.MaxConns == 0 {
		cfg.Store.Postgres.MaxConns = DefaultPostgresMaxConns
	}
	if cfg.Store.Postgres.ConnectTimeout == 0 {
		cfg.Store.Postgres.ConnectTimeout = DefaultPostgresConnTimeout
	}

	// Retention defaults
	if cfg.Retention.BatchTimeout == 0 {
		cfg.Retention.BatchTimeout = DefaultRetentionTimeout
	}
	if cfg.Retention.NotificationLeadDays == 0 {
		cfg.Retention.NotificationLeadDays = DefaultNotificationLeadDays
	}
	if cfg.Retention.DefaultGracePeriodDays == 0 {
		cfg.Retention.DefaultGracePeriodDays = DefaultGracePeriodDays
	}
	if cfg.Retention.DefaultEventDuration == 0 {
		cfg.Retention.DefaultEventDuration = DefaultEventDuration
	}

	// Notifier defaults
	if cfg.Notifier.Backend == "" {
		cfg.Notifier.Backend = DefaultNotifierBackend
	}
	if cfg.Notifier.Kafka.Topic == "" {
		cfg.Notifier.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Notifier.Kafka.ClientID == "" {
		cfg.Notifier.Kafka.ClientID = DefaultKafkaClientID
	}
	if cfg.Notifier.Kafka.ProduceTimeout == 0 {
		cfg.Notifier.Kafka.ProduceTimeout = DefaultKafkaProduceTimeout
	}

	// Secrets defaults
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultServerListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RunDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RunDurationBuckets = append([]float64(nil), DefaultRunDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
