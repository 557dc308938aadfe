package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hyperengineering/scriptdesk/internal/store"
	"github.com/hyperengineering/scriptdesk/internal/types"
	"github.com/hyperengineering/scriptdesk/internal/validation"
)

// GetPerformanceGoals handles GET /api/performance-goals. A team that never
// saved goals gets the defaults rather than an error.
func (h *Handler) GetPerformanceGoals(w http.ResponseWriter, r *http.Request) {
	teamID := strings.TrimSpace(r.URL.Query().Get("teamId"))
	if err := validation.ValidateRequired("teamId", teamID); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*err})
		return
	}

	goal, err := h.store.GetPerformanceGoal(r.Context(), teamID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, types.DefaultPerformanceGoal(teamID))
		return
	}
	if err != nil {
		requestLogger(r, types.Owner{TeamID: teamID}).Error("get performance goals failed", "error", err)
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// SetPerformanceGoals handles POST /api/performance-goals
func (h *Handler) SetPerformanceGoals(w http.ResponseWriter, r *http.Request) {
	var req types.SetPerformanceGoalRequest
	if !decodeJSON(w, r, &req, maxJSONBodyBytes) {
		return
	}

	if errs := validation.ValidateSetPerformanceGoal(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	allowed := types.DefaultCallExtendAllowed
	if req.CallExtendAllowed != nil {
		allowed = *req.CallExtendAllowed
	}

	owner := req.Owner()
	goal, err := h.store.SetPerformanceGoal(r.Context(), types.NewPerformanceGoal{
		Owner:                  owner,
		OverallPerformanceGoal: *req.OverallPerformanceGoal,
		NumberOfCallsAverage:   *req.NumberOfCallsAverage,
		CallLength:             *req.CallLength,
		CallExtendAllowed:      allowed,
	})
	if err != nil {
		requestLogger(r, owner).Error("set performance goals failed", "error", err)
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// CallDuration handles GET and POST /api/performance-goals/duration.
// It always answers 200; lookup failures fall back to the default length.
func (h *Handler) CallDuration(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromQuery(r)
	if r.Method == http.MethodPost {
		var req types.DurationRequest
		// An unreadable body is treated like an empty one. Identifiers the
		// body leaves out keep their query values.
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&req); err == nil {
			fromBody := types.NewOwner(req.TeamID, req.MemberID, "")
			if fromBody.TeamID != "" {
				owner.TeamID = fromBody.TeamID
			}
			if fromBody.MemberID != "" {
				owner.MemberID = fromBody.MemberID
			}
		}
	}

	resp := types.DurationResponse{CallLength: types.DefaultCallLength}
	if owner.Valid() {
		n, err := h.store.GetCallLength(r.Context(), owner)
		switch {
		case err == nil:
			resp.CallLength = n
		case !errors.Is(err, store.ErrNotFound):
			requestLogger(r, owner).Error("call length lookup failed, using default", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// CallExtendStatus handles GET /api/call-extend-status.
// It always answers 200; lookup failures fall back to allowing extension.
func (h *Handler) CallExtendStatus(w http.ResponseWriter, r *http.Request) {
	teamID := strings.TrimSpace(r.URL.Query().Get("teamId"))

	resp := types.CallExtendResponse{CallExtendAllowed: types.DefaultCallExtendAllowed}
	if teamID != "" {
		allowed, err := h.store.GetCallExtendAllowed(r.Context(), teamID)
		switch {
		case err == nil:
			resp.CallExtendAllowed = allowed
		case !errors.Is(err, store.ErrNotFound):
			requestLogger(r, types.Owner{TeamID: teamID}).Error("call extend lookup failed, using default", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
