package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"parcelhq/meridian/pkg/audit"
	"parcelhq/meridian/pkg/shipping"
	"parcelhq/meridian/pkg/shipping/engine"
	"parcelhq/meridian/pkg/storage"
	"parcelhq/meridian/pkg/telemetry/metrics"
)

// Config contains configuration for the background sweeper.
type Config struct {
	// Schedule is a cron expression for sweep passes, for example
	// "*/5 * * * *" for every five minutes. Empty disables the
	// scheduler; RunOnce can still be called directly.
	Schedule string `yaml:"schedule" json:"schedule"`

	// BatchSize caps how many orders one pass processes. 0 means
	// no limit.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// DefaultConfig returns the default sweeper configuration.
func DefaultConfig() *Config {
	return &Config{
		Schedule:  "*/5 * * * *",
		BatchSize: 100,
	}
}

// Result summarizes one sweep pass.
type Result struct {
	Processed int
	Failed    int
	Skipped   bool
}

// Sweeper calculates shipping costs for pending orders.
type Sweeper struct {
	store     storage.Store
	engine    *engine.Engine
	recorder  *audit.Recorder
	collector *metrics.Collector
	config    *Config
	logger    *slog.Logger

	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
	inFlight atomic.Bool
}

// New creates a sweeper. The audit recorder and metrics collector are
// optional and may be nil.
func New(store storage.Store, eng *engine.Engine, recorder *audit.Recorder,
	collector *metrics.Collector, config *Config, logger *slog.Logger) *Sweeper {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		store:     store,
		engine:    eng,
		recorder:  recorder,
		collector: collector,
		config:    config,
		cron:      cron.New(),
		logger:    logger.With("component", "sweep"),
	}
}

// RunOnce executes a single sweep pass. If another pass is already in
// flight, it returns immediately with Skipped set. Per-order failures
// are logged and counted but do not abort the pass.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("sweep pass still running, skipping")
		return Result{Skipped: true}, nil
	}
	defer s.inFlight.Store(false)

	start := time.Now()

	profiles, err := s.store.ListProfiles(ctx, true)
	if err != nil {
		s.recordSweep(metrics.OutcomeError, 0)
		return Result{}, fmt.Errorf("list active profiles: %w", err)
	}
	if s.collector != nil {
		s.collector.SetActiveProfiles(len(profiles))
	}

	orders, err := s.store.ListOrdersWithoutCalculation(ctx, s.config.BatchSize)
	if err != nil {
		s.recordSweep(metrics.OutcomeError, 0)
		return Result{}, fmt.Errorf("list pending orders: %w", err)
	}

	var res Result
	for _, order := range orders {
		if err := s.processOrder(ctx, &order, profiles); err != nil {
			res.Failed++
			s.logger.Error("sweep order failed",
				"order_id", order.ID,
				"error", err,
			)
			continue
		}
		res.Processed++
	}

	status := metrics.OutcomeSuccess
	if res.Failed > 0 && res.Processed == 0 {
		status = metrics.OutcomeError
	}
	s.recordSweep(status, res.Processed)

	if len(orders) > 0 {
		s.logger.Info("sweep pass completed",
			"processed", res.Processed,
			"failed", res.Failed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		s.logger.Debug("sweep pass completed, no pending orders")
	}

	return res, nil
}

func (s *Sweeper) processOrder(ctx context.Context, order *shipping.Order, profiles []shipping.Profile) error {
	start := time.Now()

	result := s.engine.Calculate(*order, order.Items, profiles)

	if err := s.store.SaveCalculation(ctx, order.ID, &result); err != nil {
		if s.collector != nil {
			s.collector.RecordCalculation(metrics.OutcomeError, time.Since(start), 0)
		}
		return fmt.Errorf("save calculation: %w", err)
	}

	unmatched := 0
	for _, item := range result.MatchedItems {
		if item.ProfileID == nil {
			unmatched++
		}
	}
	if s.collector != nil {
		s.collector.RecordCalculation(metrics.OutcomeSuccess, time.Since(start), unmatched)
	}

	if s.recorder != nil {
		if _, err := s.recorder.RecordCalculation(ctx, &result); err != nil {
			// Auditing must not fail the order itself.
			s.logger.Warn("audit record failed",
				"order_id", order.ID,
				"error", err,
			)
		}
	}

	return nil
}

func (s *Sweeper) recordSweep(status string, processed int) {
	if s.collector != nil {
		s.collector.RecordSweep(status, processed)
	}
}

// Start begins scheduled sweeping. The scheduler stops when ctx is
// canceled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("sweep scheduler started",
		"schedule", s.config.Schedule,
		"batch_size", s.config.BatchSize,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running pass to complete.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("sweep scheduler stopped")
	}
}

// NextRun returns the next scheduled sweep time, or nil when no
// schedule is active.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
