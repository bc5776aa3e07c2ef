package storage

import (
	"context"
	"path/filepath"
	"testing"

	"parcelhq/meridian/pkg/shipping"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStoreWithConfig(SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "meridian.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, newTestSQLiteStore(t))
}

func TestSQLiteStoreItemReplacement(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	order := testOrder("3001")
	if err := store.UpsertOrder(ctx, order); err != nil {
		t.Fatal(err)
	}

	order.Items = []shipping.LineItem{
		{ProductID: "p9", ProductTitle: "Replacement Part", Quantity: 1, Price: 20, Total: 20},
	}
	if err := store.UpsertOrder(ctx, order); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetOrder(ctx, "3001")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected items replaced, got %d items", len(got.Items))
	}
	if got.Items[0].ProductTitle != "Replacement Part" {
		t.Errorf("unexpected item: %+v", got.Items[0])
	}
}

func TestSQLiteStoreCalculationDetails(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	if err := store.UpsertOrder(ctx, testOrder("3002")); err != nil {
		t.Fatal(err)
	}

	result := &shipping.CalculationResult{
		OrderID:   "3002",
		TotalCost: 27,
		Breakdown: []shipping.Breakdown{
			{ProfileID: "pf1", ProfileName: "Adapters", Items: []string{"2 Plug Adapter"}, Subtotal: 50, Cost: 12},
			{ProfileID: "pf2", ProfileName: "Decorations", Items: []string{"Tree Decoration"}, Subtotal: 100, Cost: 15},
		},
	}
	if err := store.SaveCalculation(ctx, "3002", result); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetOrder(ctx, "3002")
	if err != nil {
		t.Fatal(err)
	}
	if got.ShippingCostEstimated == nil || *got.ShippingCostEstimated != 27 {
		t.Errorf("estimate not stored: %v", got.ShippingCostEstimated)
	}

	pending, err := store.ListOrdersWithoutCalculation(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("calculated order still pending: %+v", pending)
	}
}

func TestSQLiteStoreReopenPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "meridian.db")

	store, err := NewSQLiteStoreWithConfig(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	id, err := store.UpsertProfile(ctx, testProfile("Persistent", 7))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteStoreWithConfig(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.GetProfile(ctx, id)
	if err != nil {
		t.Fatalf("GetProfile after reopen: %v", err)
	}
	if got.Name != "Persistent" || got.Priority != 7 {
		t.Errorf("unexpected profile after reopen: %+v", got)
	}
}
