package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"parcelhq/meridian/pkg/shipping"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	rec, err := NewRecorder(&Config{
		Path: filepath.Join(t.TempDir(), "audit.db"),
	}, nil)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	t.Cleanup(func() { rec.Close() })
	return rec
}

func sampleResult(orderID string) *shipping.CalculationResult {
	pid := "pf1"
	return &shipping.CalculationResult{
		OrderID:   orderID,
		TotalCost: 42,
		Breakdown: []shipping.Breakdown{
			{ProfileID: "pf1", ProfileName: "Adapters", Items: []string{"2 Plug Adapter"}, Subtotal: 50, Cost: 12},
		},
		MatchedItems: []shipping.MatchedItem{
			{Item: shipping.LineItem{ProductTitle: "2 Plug Adapter"}, ProfileID: &pid, ProfileName: "Adapters"},
			{Item: shipping.LineItem{ProductTitle: "Mystery Box"}, ProfileName: "No Rule Match"},
		},
	}
}

func TestRecordCalculation(t *testing.T) {
	ctx := context.Background()
	rec := newTestRecorder(t)

	record, err := rec.RecordCalculation(ctx, sampleResult("1001"))
	if err != nil {
		t.Fatalf("RecordCalculation: %v", err)
	}
	if record.ID == "" {
		t.Error("expected generated record ID")
	}
	if record.MatchedCount != 1 || record.UnmatchedCount != 1 {
		t.Errorf("wrong counts: matched=%d unmatched=%d",
			record.MatchedCount, record.UnmatchedCount)
	}

	records, err := rec.QueryRecords(ctx, &Query{OrderID: "1001"})
	if err != nil {
		t.Fatalf("QueryRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.OrderID != "1001" || got.TotalCost != 42 {
		t.Errorf("unexpected record: %+v", got)
	}
	if len(got.Breakdown) != 1 || got.Breakdown[0].ProfileName != "Adapters" {
		t.Errorf("breakdown not round-tripped: %+v", got.Breakdown)
	}
}

func TestQueryRecordsFilters(t *testing.T) {
	ctx := context.Background()
	rec := newTestRecorder(t)

	for _, id := range []string{"1001", "1002", "1002"} {
		if _, err := rec.RecordCalculation(ctx, sampleResult(id)); err != nil {
			t.Fatal(err)
		}
	}

	byOrder, err := rec.QueryRecords(ctx, &Query{OrderID: "1002"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byOrder) != 2 {
		t.Errorf("expected 2 records for order 1002, got %d", len(byOrder))
	}

	limited, err := rec.QueryRecords(ctx, &Query{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit not applied: got %d", len(limited))
	}

	future := time.Now().Add(time.Hour)
	none, err := rec.QueryRecords(ctx, &Query{StartTime: &future})
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no records after future start time, got %d", len(none))
	}

	count, err := rec.CountRecords(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestPrunerDeletesOldRecords(t *testing.T) {
	ctx := context.Background()
	rec := newTestRecorder(t)

	if _, err := rec.RecordCalculation(ctx, sampleResult("1001")); err != nil {
		t.Fatal(err)
	}

	// Retention window covers the fresh record, nothing should go.
	pruner := NewPruner(rec, &RetentionConfig{RetentionDays: 30}, nil)
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 deleted, got %d", deleted)
	}

	// Direct cutoff in the future removes everything.
	deleted, err = rec.DeleteBefore(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	count, err := rec.CountRecords(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected empty audit table, got %d records", count)
	}
}

func TestPrunerZeroRetentionKeepsEverything(t *testing.T) {
	ctx := context.Background()
	rec := newTestRecorder(t)

	if _, err := rec.RecordCalculation(ctx, sampleResult("1001")); err != nil {
		t.Fatal(err)
	}

	pruner := NewPruner(rec, &RetentionConfig{RetentionDays: 0}, nil)
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("expected no pruning with zero retention, got %d", deleted)
	}
}

func TestPrunerSchedulerLifecycle(t *testing.T) {
	rec := newTestRecorder(t)

	pruner := NewPruner(rec, &RetentionConfig{
		RetentionDays: 30,
		PruneSchedule: "0 3 * * *",
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if pruner.NextPruning() == nil {
		t.Error("expected a scheduled next pruning time")
	}
	pruner.Stop()

	bad := NewPruner(rec, &RetentionConfig{PruneSchedule: "not a schedule"}, nil)
	if err := bad.Start(ctx); err == nil {
		t.Error("expected error for invalid cron schedule")
	}
}
