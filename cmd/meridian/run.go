package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"parcelhq/meridian/pkg/audit"
	"parcelhq/meridian/pkg/config"
	"parcelhq/meridian/pkg/server"
	"parcelhq/meridian/pkg/server/handlers"
	"parcelhq/meridian/pkg/shipping/engine"
	"parcelhq/meridian/pkg/shipping/source"
	"parcelhq/meridian/pkg/storage"
	"parcelhq/meridian/pkg/sweep"
	"parcelhq/meridian/pkg/telemetry/logging"
	"parcelhq/meridian/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the meridian server",
	Long: `Start the meridian server with the specified configuration.

The server exposes the shipping profile API, runs the background
calculation sweep, and records every calculation to the audit trail.

Examples:
  # Start with default config
  meridian run

  # Start with custom config
  meridian run --config /etc/meridian/config.yaml

  # Override listen address
  meridian run --listen 0.0.0.0:8080

  # Validate config without starting the server
  meridian run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(&logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	collector := metrics.NewCollector(&metrics.Config{
		Enabled:   cfg.Metrics.Enabled,
		Namespace: cfg.Metrics.Namespace,
	}, nil)

	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		recorder, err = audit.NewRecorder(&audit.Config{Path: cfg.Audit.Path}, logger)
		if err != nil {
			return fmt.Errorf("failed to open audit database: %w", err)
		}
		defer recorder.Close()

		pruner := audit.NewPruner(recorder, &audit.RetentionConfig{
			RetentionDays: cfg.Audit.RetentionDays,
			PruneSchedule: cfg.Audit.PruneSchedule,
		}, logger)
		if err := pruner.Start(ctx); err != nil {
			return fmt.Errorf("failed to start audit retention: %w", err)
		}
		defer pruner.Stop()
	}

	eng := engine.New(logger)

	if cfg.Profiles.Path != "" {
		if err := startProfileSource(ctx, cfg, store, logger); err != nil {
			return err
		}
	}

	if cfg.Sweep.Enabled {
		sweeper := sweep.New(store, eng, recorder, collector, &sweep.Config{
			Schedule:  cfg.Sweep.Schedule,
			BatchSize: cfg.Sweep.BatchSize,
		}, logger)
		if err := sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start sweep: %w", err)
		}
		defer sweeper.Stop()
	}

	srv := server.New(&cfg.Server, &handlers.Dependencies{
		Store:     store,
		Engine:    eng,
		Recorder:  recorder,
		Collector: collector,
		Logger:    logger,
	}, logger)

	return srv.Start(ctx)
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.Path == ":memory:" || cfg.Storage.Path == "memory" {
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewSQLiteStoreWithConfig(storage.SQLiteConfig{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func startProfileSource(ctx context.Context, cfg *config.Config, store storage.Store, logger *slog.Logger) error {
	src := source.New(cfg.Profiles.Path, store, logger)
	if _, err := src.Sync(ctx); err != nil {
		return fmt.Errorf("failed to sync profiles: %w", err)
	}

	if !cfg.Profiles.Watch {
		return nil
	}

	watcher, err := source.NewWatcher(&source.WatcherConfig{Path: cfg.Profiles.Path}, logger)
	if err != nil {
		return fmt.Errorf("failed to create profile watcher: %w", err)
	}

	go func() {
		if err := watcher.Watch(ctx, func() error {
			_, err := src.Sync(ctx)
			return err
		}); err != nil {
			logger.Error("profile watcher exited", "error", err)
		}
	}()

	return nil
}
