package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults and
// environment overrides, and validates the result. Environment
// variables use the MERIDIAN_SECTION_FIELD convention, for example
// MERIDIAN_SERVER_LISTEN_ADDRESS, and always win over the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("MERIDIAN_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("MERIDIAN_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	if val := os.Getenv("MERIDIAN_STORAGE_PATH"); val != "" {
		cfg.Storage.Path = val
	}

	if val := os.Getenv("MERIDIAN_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_AUDIT_PATH"); val != "" {
		cfg.Audit.Path = val
	}
	if val := os.Getenv("MERIDIAN_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.RetentionDays = i
		}
	}

	if val := os.Getenv("MERIDIAN_SWEEP_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Sweep.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_SWEEP_SCHEDULE"); val != "" {
		cfg.Sweep.Schedule = val
	}
	if val := os.Getenv("MERIDIAN_SWEEP_BATCH_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Sweep.BatchSize = i
		}
	}

	if val := os.Getenv("MERIDIAN_PROFILES_PATH"); val != "" {
		cfg.Profiles.Path = val
	}
	if val := os.Getenv("MERIDIAN_PROFILES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Profiles.Watch = b
		}
	}

	if val := os.Getenv("MERIDIAN_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("MERIDIAN_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	if val := os.Getenv("MERIDIAN_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}
