package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"parcelhq/meridian/pkg/shipping"
)

const schema = `
CREATE TABLE IF NOT EXISTS calculation_audit (
	id              TEXT PRIMARY KEY,
	order_id        TEXT NOT NULL,
	total_cost      REAL NOT NULL,
	breakdown       TEXT NOT NULL,
	matched_count   INTEGER NOT NULL,
	unmatched_count INTEGER NOT NULL,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_order_id ON calculation_audit(order_id);
CREATE INDEX IF NOT EXISTS idx_audit_created_at ON calculation_audit(created_at);
`

// Config contains configuration for the audit recorder.
type Config struct {
	// Path is the audit database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:        "data/audit.db",
		BusyTimeout: 5 * time.Second,
	}
}

// Recorder writes calculation audit records to SQLite.
type Recorder struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRecorder opens the audit database and initializes its schema.
func NewRecorder(config *Config, logger *slog.Logger) (*Recorder, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	busy := config.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		config.Path, busy.Milliseconds())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, NewStorageError("open", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, NewStorageError("init schema", err)
	}

	return &Recorder{
		db:     db,
		logger: logger.With("component", "audit"),
	}, nil
}

// RecordCalculation persists the result of one order calculation.
// The matched and unmatched counts are derived from the result's
// per-item assignments.
func (r *Recorder) RecordCalculation(ctx context.Context, result *shipping.CalculationResult) (*Record, error) {
	matched, unmatched := 0, 0
	for _, item := range result.MatchedItems {
		if item.ProfileID != nil {
			matched++
		} else {
			unmatched++
		}
	}

	rec := &Record{
		ID:             uuid.New().String(),
		OrderID:        result.OrderID,
		TotalCost:      result.TotalCost,
		Breakdown:      result.Breakdown,
		MatchedCount:   matched,
		UnmatchedCount: unmatched,
		CreatedAt:      time.Now().UTC(),
	}

	breakdown, err := json.Marshal(rec.Breakdown)
	if err != nil {
		return nil, NewStorageError("marshal breakdown", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO calculation_audit
			(id, order_id, total_cost, breakdown, matched_count, unmatched_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OrderID, rec.TotalCost, string(breakdown),
		rec.MatchedCount, rec.UnmatchedCount, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, NewStorageError("insert", err)
	}

	r.logger.Debug("calculation audited",
		"order_id", rec.OrderID,
		"total_cost", rec.TotalCost,
		"matched", matched,
		"unmatched", unmatched,
	)

	return rec, nil
}

// QueryRecords returns audit records matching the query, newest first.
func (r *Recorder) QueryRecords(ctx context.Context, query *Query) ([]*Record, error) {
	if query == nil {
		query = &Query{}
	}

	sqlQuery := `
		SELECT id, order_id, total_cost, breakdown, matched_count, unmatched_count, created_at
		FROM calculation_audit WHERE 1=1`
	var args []interface{}

	if query.OrderID != "" {
		sqlQuery += " AND order_id = ?"
		args = append(args, query.OrderID)
	}
	if query.StartTime != nil {
		sqlQuery += " AND created_at >= ?"
		args = append(args, query.StartTime.UTC().Format(time.RFC3339Nano))
	}
	if query.EndTime != nil {
		sqlQuery += " AND created_at <= ?"
		args = append(args, query.EndTime.UTC().Format(time.RFC3339Nano))
	}

	sqlQuery += " ORDER BY created_at DESC"
	if query.Limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, NewStorageError("query", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, NewStorageError("scan", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("iterate", err)
	}

	return records, nil
}

// CountRecords returns the number of audit records matching the query.
func (r *Recorder) CountRecords(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}

	sqlQuery := "SELECT COUNT(*) FROM calculation_audit WHERE 1=1"
	var args []interface{}

	if query.OrderID != "" {
		sqlQuery += " AND order_id = ?"
		args = append(args, query.OrderID)
	}
	if query.EndTime != nil {
		sqlQuery += " AND created_at <= ?"
		args = append(args, query.EndTime.UTC().Format(time.RFC3339Nano))
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, NewStorageError("count", err)
	}
	return count, nil
}

// DeleteBefore removes records created at or before the cutoff and
// returns how many were deleted.
func (r *Recorder) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM calculation_audit WHERE created_at <= ?",
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, NewStorageError("delete", err)
	}
	return result.RowsAffected()
}

// Close closes the audit database.
func (r *Recorder) Close() error {
	return r.db.Close()
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		rec       Record
		breakdown string
		createdAt string
	)
	if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.TotalCost, &breakdown,
		&rec.MatchedCount, &rec.UnmatchedCount, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(breakdown), &rec.Breakdown); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = t
	return &rec, nil
}
