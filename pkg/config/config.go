package config

import "time"

// Config is the root configuration for the meridian service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Audit    AuditConfig    `yaml:"audit"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Profiles ProfilesConfig `yaml:"profiles"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the host:port the server binds to.
	ListenAddress string `yaml:"listen_address"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig configures the operational SQLite store.
type StorageConfig struct {
	// Path is the database file path. ":memory:" or "memory" selects
	// the in-memory backend.
	Path string `yaml:"path"`

	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// AuditConfig configures the calculation audit trail.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`

	// RetentionDays is how long audit records are kept. 0 keeps
	// them forever.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for retention pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}

// SweepConfig configures the background calculation sweep.
type SweepConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Schedule  string `yaml:"schedule"`
	BatchSize int    `yaml:"batch_size"`
}

// ProfilesConfig configures file-based profile seeding.
type ProfilesConfig struct {
	// Path is a YAML file or directory of YAML files to sync into
	// the store at startup. Empty disables seeding.
	Path string `yaml:"path"`

	// Watch re-syncs profiles when the files change.
	Watch bool `yaml:"watch"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}
