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
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "storage:\n  path: /tmp/test.db\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddress != ":8080" {
		t.Errorf("default listen address not applied: %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("default read timeout not applied: %v", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Path != "/tmp/test.db" {
		t.Errorf("file value not kept: %q", cfg.Storage.Path)
	}
	if cfg.Sweep.Schedule != "*/5 * * * *" || cfg.Sweep.BatchSize != 100 {
		t.Errorf("sweep defaults not applied: %+v", cfg.Sweep)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults not applied: %+v", cfg.Logging)
	}
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: ":9090"
  read_timeout: 5s
audit:
  enabled: true
  retention_days: 30
sweep:
  enabled: true
  schedule: "*/10 * * * *"
  batch_size: 25
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddress != ":9090" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server values not loaded: %+v", cfg.Server)
	}
	if !cfg.Audit.Enabled || cfg.Audit.RetentionDays != 30 {
		t.Errorf("audit values not loaded: %+v", cfg.Audit)
	}
	if cfg.Sweep.Schedule != "*/10 * * * *" || cfg.Sweep.BatchSize != 25 {
		t.Errorf("sweep values not loaded: %+v", cfg.Sweep)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MERIDIAN_SERVER_LISTEN_ADDRESS", ":7070")
	t.Setenv("MERIDIAN_SWEEP_BATCH_SIZE", "7")
	t.Setenv("MERIDIAN_LOGGING_LEVEL", "warn")

	path := writeConfig(t, "server:\n  listen_address: \":9090\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddress != ":7070" {
		t.Errorf("env override lost to file value: %q", cfg.Server.ListenAddress)
	}
	if cfg.Sweep.BatchSize != 7 {
		t.Errorf("batch size override not applied: %d", cfg.Sweep.BatchSize)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level override not applied: %q", cfg.Logging.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeConfig(t, "server: [not a map")
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "empty listen address",
			mutate: func(c *Config) { c.Server.ListenAddress = "" },
			field:  "server.listen_address",
		},
		{
			name:   "empty storage path",
			mutate: func(c *Config) { c.Storage.Path = "" },
			field:  "storage.path",
		},
		{
			name:   "bad sweep schedule",
			mutate: func(c *Config) { c.Sweep.Schedule = "whenever" },
			field:  "sweep.schedule",
		},
		{
			name:   "bad prune schedule",
			mutate: func(c *Config) { c.Audit.PruneSchedule = "often" },
			field:  "audit.prune_schedule",
		},
		{
			name:   "negative retention",
			mutate: func(c *Config) { c.Audit.RetentionDays = -1 },
			field:  "audit.retention_days",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "loud" },
			field:  "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.field, verr.Errors)
			}
		})
	}

	if err := Validate(Default()); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}}
	msg := err.Error()
	if msg == "" || msg == "configuration validation failed" {
		t.Errorf("expected detailed message, got %q", msg)
	}
}
