package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig controls pruning of old audit records.
type RetentionConfig struct {
	// RetentionDays is the number of days to keep records.
	// 0 means keep records forever.
	RetentionDays int

	// PruneSchedule is a cron expression for scheduled pruning,
	// for example "0 3 * * *" for daily at 3 AM. Empty disables
	// automatic pruning.
	PruneSchedule string
}

// DefaultRetentionConfig returns the default retention settings.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner removes audit records older than the retention period,
// either on demand or on a cron schedule.
type Pruner struct {
	recorder *Recorder
	config   *RetentionConfig
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
	logger   *slog.Logger
}

// NewPruner creates a retention pruner for the given recorder.
func NewPruner(recorder *Recorder, config *RetentionConfig, logger *slog.Logger) *Pruner {
	if config == nil {
		config = DefaultRetentionConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pruner{
		recorder: recorder,
		config:   config,
		cron:     cron.New(),
		logger:   logger.With("component", "audit.retention"),
	}
}

// Prune deletes records older than the retention period and returns
// the number deleted. A zero retention period prunes nothing.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)
	deleted, err := p.recorder.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit records: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("audit records pruned",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
		)
	} else {
		p.logger.Debug("no audit records pruned",
			"retention_days", p.config.RetentionDays,
		)
	}

	return deleted, nil
}

// Start begins scheduled pruning. If no schedule is configured the
// scheduler does nothing. The scheduler stops when ctx is canceled.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.config.PruneSchedule == "" {
		p.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(p.config.PruneSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.config.PruneSchedule, err)
	}

	_, err := p.cron.AddFunc(p.config.PruneSchedule, func() {
		if _, err := p.Prune(ctx); err != nil {
			p.logger.Error("scheduled audit pruning failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit pruning: %w", err)
	}

	p.cron.Start()
	p.running = true

	p.logger.Info("audit retention scheduler started",
		"schedule", p.config.PruneSchedule,
		"retention_days", p.config.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cron != nil && p.running {
		ctx := p.cron.Stop()
		<-ctx.Done()
		p.running = false
		p.logger.Info("audit retention scheduler stopped")
	}
}

// NextPruning returns the next scheduled prune time, or nil when no
// schedule is active.
func (p *Pruner) NextPruning() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
