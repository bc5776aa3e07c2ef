package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"parcelhq/meridian/pkg/shipping"
	"parcelhq/meridian/pkg/storage"
)

// ProfilesHandler serves shipping profile CRUD and dry-run testing.
type ProfilesHandler struct {
	deps *Dependencies
}

// profilePayload is the create/update request body. Priority and
// is_active are pointers so an omitted field can be defaulted.
type profilePayload struct {
	Name            string                    `json:"name"`
	Description     string                    `json:"description"`
	Priority        *int                      `json:"priority"`
	Active          *bool                     `json:"is_active"`
	Default         bool                      `json:"is_default"`
	MatchConditions shipping.MatchCondition `json:"match_conditions"`
	CostRules       shipping.CostRule       `json:"cost_rules"`
}

func (p *profilePayload) apply(profile *shipping.Profile) {
	profile.Name = p.Name
	profile.Description = p.Description
	if p.Priority != nil {
		profile.Priority = *p.Priority
	} else {
		profile.Priority = 100
	}
	if p.Active != nil {
		profile.Active = *p.Active
	} else {
		profile.Active = true
	}
	profile.Default = p.Default
	profile.MatchConditions = p.MatchConditions
	profile.CostRules = p.CostRules
}

// List returns all profiles, optionally only active ones.
func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	profiles, err := h.deps.Store.ListProfiles(r.Context(), activeOnly)
	if err != nil {
		h.deps.logger().Error("list profiles failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []shipping.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

// Get returns one profile by ID.
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.deps.Store.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		h.deps.logger().Error("get profile failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Create stores a new profile.
func (h *ProfilesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload profilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if payload.Name == "" {
		writeError(w, http.StatusBadRequest, "profile name is required")
		return
	}

	var profile shipping.Profile
	payload.apply(&profile)

	id, err := h.deps.Store.UpsertProfile(r.Context(), &profile)
	if err != nil {
		h.deps.logger().Error("create profile failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}

	created, err := h.deps.Store.GetProfile(r.Context(), id)
	if err != nil {
		h.deps.logger().Error("read back profile failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}

	h.deps.logger().Info("profile created", "profile_id", id, "name", profile.Name)
	writeJSON(w, http.StatusCreated, created)
}

// Update replaces an existing profile.
func (h *ProfilesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.deps.Store.GetProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		h.deps.logger().Error("get profile failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	var payload profilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if payload.Name == "" {
		writeError(w, http.StatusBadRequest, "profile name is required")
		return
	}

	payload.apply(existing)

	if _, err := h.deps.Store.UpsertProfile(r.Context(), existing); err != nil {
		h.deps.logger().Error("update profile failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	updated, err := h.deps.Store.GetProfile(r.Context(), id)
	if err != nil {
		h.deps.logger().Error("read back profile failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	h.deps.logger().Info("profile updated", "profile_id", id)
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a profile.
func (h *ProfilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.deps.Store.DeleteProfile(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		h.deps.logger().Error("delete profile failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete profile")
		return
	}

	h.deps.logger().Info("profile deleted", "profile_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// testRequest is the dry-run request body. TestData holds a flat
// record of field values plus optional numeric context variables.
type testRequest struct {
	Profile  shipping.Profile       `json:"profile"`
	TestData map[string]interface{} `json:"test_data"`
}

// testResponse is the dry-run result.
type testResponse struct {
	Matched bool    `json:"matched"`
	Cost    float64 `json:"cost"`
}

// Test evaluates a profile against sample data without persisting
// anything.
func (h *ProfilesHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	matched, cost := h.deps.Engine.DryRun(req.Profile, req.TestData)
	writeJSON(w, http.StatusOK, testResponse{Matched: matched, Cost: cost})
}
