package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in plain text format.
	FormatText LogFormat = "text"
)

// Config contains configuration for the logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level" json:"level"`

	// Format is the output format ("json" or "text").
	Format string `yaml:"format" json:"format"`

	// AddSource includes file and line number in logs.
	AddSource bool `yaml:"add_source" json:"add_source"`

	// Writer is the output writer. Defaults to os.Stdout.
	Writer io.Writer `yaml:"-" json:"-"`
}

// New builds a slog.Logger from the configuration. Unknown levels or
// formats are rejected rather than silently defaulted.
func New(cfg *Config) (*slog.Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch LogFormat(strings.ToLower(cfg.Format)) {
	case FormatJSON, "":
		handler = slog.NewJSONHandler(writer, opts)
	case FormatText:
		handler = slog.NewTextHandler(writer, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(handler), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
