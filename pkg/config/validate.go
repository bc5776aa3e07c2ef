package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted path to the field, e.g. "server.listen_address".
	Field string

	// Message is a human-readable error message.
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects all field errors found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

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

// Validate checks the configuration and returns a ValidationError when
// any rule fails. All errors are collected, not just the first.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Server.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{"server.shutdown_timeout", "must not be negative"})
	}

	if cfg.Storage.Path == "" {
		errs = append(errs, FieldError{"storage.path", "must not be empty"})
	}

	if cfg.Audit.Enabled {
		if cfg.Audit.Path == "" {
			errs = append(errs, FieldError{"audit.path", "must not be empty when audit is enabled"})
		}
		if cfg.Audit.RetentionDays < 0 {
			errs = append(errs, FieldError{"audit.retention_days", "must not be negative"})
		}
		if cfg.Audit.PruneSchedule != "" {
			if _, err := cron.ParseStandard(cfg.Audit.PruneSchedule); err != nil {
				errs = append(errs, FieldError{"audit.prune_schedule",
					fmt.Sprintf("invalid cron expression: %v", err)})
			}
		}
	}

	if cfg.Sweep.Enabled {
		if cfg.Sweep.Schedule != "" {
			if _, err := cron.ParseStandard(cfg.Sweep.Schedule); err != nil {
				errs = append(errs, FieldError{"sweep.schedule",
					fmt.Sprintf("invalid cron expression: %v", err)})
			}
		}
		if cfg.Sweep.BatchSize < 0 {
			errs = append(errs, FieldError{"sweep.batch_size", "must not be negative"})
		}
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		errs = append(errs, FieldError{"logging.level",
			fmt.Sprintf("unknown level %q", cfg.Logging.Level)})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "":
	default:
		errs = append(errs, FieldError{"logging.format",
			fmt.Sprintf("unknown format %q", cfg.Logging.Format)})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
