package config

import "time"

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/meridian.db"
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = 5 * time.Second
	}

	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "data/audit.db"
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = 90
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = "0 3 * * *"
	}

	if cfg.Sweep.Schedule == "" {
		cfg.Sweep.Schedule = "*/5 * * * *"
	}
	if cfg.Sweep.BatchSize == 0 {
		cfg.Sweep.BatchSize = 100
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "meridian"
	}
}

// Default returns a configuration with every default applied. Audit,
// sweep and metrics are enabled out of the box.
func Default() *Config {
	cfg := &Config{
		Audit:   AuditConfig{Enabled: true},
		Sweep:   SweepConfig{Enabled: true},
		Metrics: MetricsConfig{Enabled: true},
	}
	ApplyDefaults(cfg)
	return cfg
}
