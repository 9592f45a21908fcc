// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parkwise/signage/internal/models"
)

// ListSchedules returns the tenant's schedules.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.db.ListSchedules(r.Context(), scopeClientID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, schedules)
}

// GetSchedule returns one schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.db.GetSchedule(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, schedule)
}

// CreateSchedule stores a daily playlist window and nudges the evaluator
// so the change applies within seconds, not at the next minute tick.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var schedule models.Schedule
	if !decodeJSON(w, r, &schedule) {
		return
	}
	schedule.ClientID = TenantID(r.Context())
	if apiErr := validateRequest(&schedule); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}
	if !h.scheduleWindowValid(w, &schedule) {
		return
	}

	if err := h.db.CreateSchedule(r.Context(), &schedule); err != nil {
		respondDomainError(w, err)
		return
	}

	h.notifyEvaluator()
	respondCreated(w, &schedule)
}

// UpdateSchedule rewrites a schedule and nudges the evaluator.
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	clientID := TenantID(r.Context())
	id := chi.URLParam(r, "id")

	schedule, err := h.db.GetSchedule(r.Context(), clientID, id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !decodeJSON(w, r, schedule) {
		return
	}
	schedule.ID = id
	schedule.ClientID = clientID
	if apiErr := validateRequest(schedule); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}
	if !h.scheduleWindowValid(w, schedule) {
		return
	}

	if err := h.db.UpdateSchedule(r.Context(), schedule); err != nil {
		respondDomainError(w, err)
		return
	}

	h.notifyEvaluator()
	respondSuccess(w, schedule)
}

// DeleteSchedule removes a schedule and nudges the evaluator, which will
// dispatch a clear if the deleted schedule was the one applied.
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.db.DeleteSchedule(r.Context(), TenantID(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}

	h.notifyEvaluator()
	respondSuccess(w, map[string]interface{}{"deleted": id})
}

// scheduleWindowValid rejects windows that cross midnight. A schedule
// meant to span midnight is expressed as two rows. "HH:MM" strings
// compare correctly as plain strings.
func (h *Handler) scheduleWindowValid(w http.ResponseWriter, s *models.Schedule) bool {
	if s.StartTime > s.EndTime {
		respondError(w, http.StatusBadRequest, models.ErrCodeInvalidInput,
			"startTime must not be after endTime; split overnight windows into two schedules", nil)
		return false
	}
	return true
}

func (h *Handler) notifyEvaluator() {
	if h.evaluator != nil {
		h.evaluator.Notify()
	}
}
