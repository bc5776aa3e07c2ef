package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"parcelhq/meridian/pkg/audit"
	"parcelhq/meridian/pkg/config"
	"parcelhq/meridian/pkg/server"
	"parcelhq/meridian/pkg/server/handlers"
	"parcelhq/meridian/pkg/shipping"
	"parcelhq/meridian/pkg/shipping/engine"
	"parcelhq/meridian/pkg/storage"
	"parcelhq/meridian/pkg/sweep"
	"parcelhq/meridian/pkg/telemetry/metrics"
)

// newStack builds the full service: SQLite store, audit recorder,
// metrics, engine and the routed HTTP handler.
func newStack(t *testing.T) (http.Handler, storage.Store, *audit.Recorder) {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStoreWithConfig(storage.SQLiteConfig{
		Path: filepath.Join(dir, "meridian.db"),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	recorder, err := audit.NewRecorder(&audit.Config{
		Path: filepath.Join(dir, "audit.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open audit: %v", err)
	}
	t.Cleanup(func() { recorder.Close() })

	cfg := config.Default()
	srv := server.New(&cfg.Server, &handlers.Dependencies{
		Store:     store,
		Engine:    engine.New(nil),
		Recorder:  recorder,
		Collector: metrics.NewCollector(nil, nil),
	}, nil)

	return srv.Handler(), store, recorder
}

func do(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestEndToEndCalculation(t *testing.T) {
	handler, store, recorder := newStack(t)

	// Create two profiles through the API.
	for _, payload := range []map[string]interface{}{
		{
			"name":     "Adapters",
			"priority": 10,
			"match_conditions": map[string]interface{}{
				"field": "product_title", "operator": "contains", "value": "adapter",
			},
			"cost_rules": map[string]interface{}{"type": "fixed", "base_cost": 12},
		},
		{
			"name":     "Decorations",
			"priority": 20,
			"match_conditions": map[string]interface{}{
				"field": "product_title", "operator": "contains", "value": "decoration",
			},
			"cost_rules": map[string]interface{}{"type": "per_item", "per_item_cost": 15},
		},
	} {
		if rec := do(t, handler, "POST", "/api/shipping/profiles", payload); rec.Code != http.StatusCreated {
			t.Fatalf("create profile: %d %s", rec.Code, rec.Body.String())
		}
	}

	// Calculate and persist an order.
	rec := do(t, handler, "POST", "/api/shipping/calculate", map[string]interface{}{
		"persist": true,
		"orders": []map[string]interface{}{{
			"id":       "1001",
			"subtotal": 150,
			"items": []map[string]interface{}{
				{"product_title": "2 Plug Adapter", "quantity": 1, "price": 50, "total": 50},
				{"product_title": "Tree Decoration", "quantity": 2, "price": 50, "total": 100},
			},
		}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("calculate: %d %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []shipping.CalculationResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].TotalCost != 42 {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}

	// The order and its estimate are in the store.
	ctx := context.Background()
	order, err := store.GetOrder(ctx, "1001")
	if err != nil {
		t.Fatal(err)
	}
	if order.ShippingCostEstimated == nil || *order.ShippingCostEstimated != 42 {
		t.Errorf("estimate not persisted: %v", order.ShippingCostEstimated)
	}

	// The calculation was audited.
	records, err := recorder.QueryRecords(ctx, &audit.Query{OrderID: "1001"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].TotalCost != 42 {
		t.Errorf("calculation not audited: %+v", records)
	}

	// Metrics are exposed.
	mrec := do(t, handler, "GET", "/metrics", nil)
	if mrec.Code != http.StatusOK {
		t.Errorf("metrics endpoint: %d", mrec.Code)
	}
	if !bytes.Contains(mrec.Body.Bytes(), []byte("meridian_calculations_total")) {
		t.Error("calculation metrics missing")
	}
}

func TestSweepFillsMissingEstimates(t *testing.T) {
	handler, store, recorder := newStack(t)
	ctx := context.Background()

	if rec := do(t, handler, "POST", "/api/shipping/profiles", map[string]interface{}{
		"name":     "Everything",
		"priority": 10,
		"match_conditions": map[string]interface{}{
			"field": "product_title", "operator": "contains", "value": "",
		},
		"cost_rules": map[string]interface{}{"type": "fixed", "base_cost": 7},
	}); rec.Code != http.StatusCreated {
		t.Fatalf("create profile: %d %s", rec.Code, rec.Body.String())
	}

	// An order arrives outside the API, with no calculation.
	order := &shipping.Order{
		ID:       "2001",
		Subtotal: 60,
		Items: []shipping.LineItem{
			{ProductTitle: "Desk Lamp", Quantity: 1, Price: 60, Total: 60},
		},
	}
	if err := store.UpsertOrder(ctx, order); err != nil {
		t.Fatal(err)
	}

	sweeper := sweep.New(store, engine.New(nil), recorder, nil, nil, nil)
	res, err := sweeper.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Processed != 1 {
		t.Fatalf("expected 1 processed order, got %+v", res)
	}

	got, err := store.GetOrder(ctx, "2001")
	if err != nil {
		t.Fatal(err)
	}
	if got.ShippingCostEstimated == nil || *got.ShippingCostEstimated != 7 {
		t.Errorf("sweep did not store estimate: %v", got.ShippingCostEstimated)
	}

	records, err := recorder.QueryRecords(ctx, &audit.Query{OrderID: "2001", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("sweep calculation not audited")
	}
	if time.Since(records[0].CreatedAt) > time.Minute {
		t.Errorf("audit timestamp wrong: %v", records[0].CreatedAt)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	handler, _, _ := newStack(t)

	rec := do(t, handler, "GET", "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request ID header missing")
	}
}
