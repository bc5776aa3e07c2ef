package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"parcelhq/meridian/pkg/audit"
	"parcelhq/meridian/pkg/shipping/engine"
	"parcelhq/meridian/pkg/storage"
	"parcelhq/meridian/pkg/telemetry/metrics"
)

// Dependencies carries everything the handlers need. Recorder and
// Collector are optional.
type Dependencies struct {
	Store     storage.Store
	Engine    *engine.Engine
	Recorder  *audit.Recorder
	Collector *metrics.Collector
	Logger    *slog.Logger
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Register wires all API routes onto the mux.
func Register(mux *http.ServeMux, deps *Dependencies) {
	profiles := &ProfilesHandler{deps: deps}
	calculate := &CalculateHandler{deps: deps}

	mux.HandleFunc("GET /api/shipping/profiles", profiles.List)
	mux.HandleFunc("POST /api/shipping/profiles", profiles.Create)
	mux.HandleFunc("GET /api/shipping/profiles/{id}", profiles.Get)
	mux.HandleFunc("PUT /api/shipping/profiles/{id}", profiles.Update)
	mux.HandleFunc("DELETE /api/shipping/profiles/{id}", profiles.Delete)
	mux.HandleFunc("POST /api/shipping/profiles/test", profiles.Test)
	mux.HandleFunc("POST /api/shipping/calculate", calculate.Calculate)

	mux.HandleFunc("GET /healthz", Health)
	if deps.Collector != nil {
		mux.Handle("GET /metrics", deps.Collector.Handler())
	}
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
