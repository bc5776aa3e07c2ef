package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"parcelhq/meridian/pkg/shipping"
	"parcelhq/meridian/pkg/telemetry/metrics"
)

// CalculateHandler serves bulk shipping cost calculation.
type CalculateHandler struct {
	deps *Dependencies
}

// calculateRequest carries the orders to calculate. When Persist is
// set, orders and their results are stored.
type calculateRequest struct {
	Orders  []shipping.Order `json:"orders"`
	Persist bool             `json:"persist"`
}

// calculateResponse reports per-order results. A failed order appears
// in Errors without aborting the rest.
type calculateResponse struct {
	Results []shipping.CalculationResult `json:"results"`
	Errors  map[string]string            `json:"errors,omitempty"`
}

// Calculate runs the cost engine over the submitted orders.
func (h *CalculateHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Orders) == 0 {
		writeError(w, http.StatusBadRequest, "no orders provided")
		return
	}

	profiles, err := h.deps.Store.ListProfiles(r.Context(), true)
	if err != nil {
		h.deps.logger().Error("list profiles failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profiles")
		return
	}

	resp := calculateResponse{
		Results: make([]shipping.CalculationResult, 0, len(req.Orders)),
	}

	for _, order := range req.Orders {
		start := time.Now()
		result := h.deps.Engine.Calculate(order, order.Items, profiles)

		if req.Persist {
			if err := h.persist(r, &order, &result); err != nil {
				if resp.Errors == nil {
					resp.Errors = make(map[string]string)
				}
				resp.Errors[order.ID] = err.Error()
				h.recordMetrics(metrics.OutcomeError, start, 0)
				continue
			}
		}

		if h.deps.Recorder != nil {
			if _, err := h.deps.Recorder.RecordCalculation(r.Context(), &result); err != nil {
				h.deps.logger().Warn("audit record failed",
					"order_id", order.ID, "error", err)
			}
		}

		unmatched := 0
		for _, item := range result.MatchedItems {
			if item.ProfileID == nil {
				unmatched++
			}
		}
		h.recordMetrics(metrics.OutcomeSuccess, start, unmatched)
		resp.Results = append(resp.Results, result)
	}

	status := http.StatusOK
	if len(resp.Results) == 0 && len(resp.Errors) > 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

func (h *CalculateHandler) persist(r *http.Request, order *shipping.Order, result *shipping.CalculationResult) error {
	if err := h.deps.Store.UpsertOrder(r.Context(), order); err != nil {
		return err
	}
	return h.deps.Store.SaveCalculation(r.Context(), order.ID, result)
}

func (h *CalculateHandler) recordMetrics(outcome string, start time.Time, unmatched int) {
	if h.deps.Collector != nil {
		h.deps.Collector.RecordCalculation(outcome, time.Since(start), unmatched)
	}
}
