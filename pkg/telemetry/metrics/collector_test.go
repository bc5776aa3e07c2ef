package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollectorRecordsCalculations(t *testing.T) {
	c := NewCollector(nil, nil)

	c.RecordCalculation(OutcomeSuccess, 2*time.Millisecond, 1)
	c.RecordCalculation(OutcomeSuccess, time.Millisecond, 0)
	c.RecordCalculation(OutcomeError, time.Millisecond, 0)
	c.RecordSweep(OutcomeSuccess, 5)
	c.SetActiveProfiles(3)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	checks := []string{
		`meridian_calculations_total{outcome="success"} 2`,
		`meridian_calculations_total{outcome="error"} 1`,
		`meridian_no_rule_match_items_total 1`,
		`meridian_sweep_runs_total{status="success"} 1`,
		`meridian_sweep_orders_processed_total 5`,
		`meridian_active_profiles 3`,
	}
	for _, want := range checks {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
	if !strings.Contains(body, "meridian_calculation_duration_seconds_count 3") {
		t.Errorf("duration histogram not recorded:\n%s", body)
	}
}

func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(&Config{Enabled: false}, nil)

	c.RecordCalculation(OutcomeSuccess, time.Millisecond, 2)
	c.RecordSweep(OutcomeError, 1)
	c.SetActiveProfiles(9)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if strings.Contains(body, `outcome="success"} 1`) {
		t.Error("disabled collector recorded a calculation")
	}
	if strings.Contains(body, "meridian_active_profiles 9") {
		t.Error("disabled collector recorded gauge")
	}
}

func TestCollectorCustomNamespace(t *testing.T) {
	c := NewCollector(&Config{Enabled: true, Namespace: "shiptest"}, nil)
	c.RecordCalculation(OutcomeSuccess, time.Millisecond, 0)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "shiptest_calculations_total") {
		t.Error("custom namespace not applied")
	}
}
