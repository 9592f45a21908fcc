// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/models"
)

// ListAnnouncements returns the tenant's notices. ?active=true narrows
// to live ones.
func (h *Handler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.db.ListAnnouncements(r.Context(), scopeClientID(r.Context()), boolParam(r, "active"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, announcements)
}

// GetAnnouncement returns one notice.
func (h *Handler) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	announcement, err := h.db.GetAnnouncement(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, announcement)
}

// CreateAnnouncement stores a notice. Active urgent notices are pushed to
// screens immediately as an announcement widget; the push is
// fire-and-forget and never fails the create.
func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var announcement models.Announcement
	if !decodeJSON(w, r, &announcement) {
		return
	}
	announcement.ClientID = TenantID(r.Context())
	if announcement.Priority == "" {
		announcement.Priority = models.AnnouncementPriorityNormal
	}
	if apiErr := validateRequest(&announcement); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	if err := h.db.CreateAnnouncement(r.Context(), &announcement); err != nil {
		respondDomainError(w, err)
		return
	}

	h.circulateAnnouncement(r.Context(), &announcement)
	respondCreated(w, &announcement)
}

// UpdateAnnouncement rewrites a notice, re-circulating it when the update
// leaves it active and urgent.
func (h *Handler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	clientID := TenantID(r.Context())
	id := chi.URLParam(r, "id")

	announcement, err := h.db.GetAnnouncement(r.Context(), clientID, id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !decodeJSON(w, r, announcement) {
		return
	}
	announcement.ID = id
	announcement.ClientID = clientID
	if apiErr := validateRequest(announcement); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	if err := h.db.UpdateAnnouncement(r.Context(), announcement); err != nil {
		respondDomainError(w, err)
		return
	}

	h.circulateAnnouncement(r.Context(), announcement)
	respondSuccess(w, announcement)
}

// DeleteAnnouncement removes a notice. Screens drop it at their next
// widget refresh.
func (h *Handler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.db.DeleteAnnouncement(r.Context(), TenantID(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"deleted": id})
}

// circulateAnnouncement pushes an active urgent notice to its audience as
// an announcement widget: the pinned location's screens, or the whole
// tenant when the notice is global. Push failures are logged only.
func (h *Handler) circulateAnnouncement(ctx context.Context, a *models.Announcement) {
	if !a.Active || a.Priority != models.AnnouncementPriorityUrgent {
		return
	}

	target := a.LocationID
	if target == "" {
		target = "all"
	}

	env := models.NewEnvelope(models.SourceAPI, models.EnvelopeTypeWidget, map[string]interface{}{
		"widget":       "announcement",
		"announcement": a,
	})
	result, err := h.registry.Push(ctx, a.ClientID, target, env)
	if err != nil {
		logging.Warn().Err(err).Str("announcement_id", a.ID).Msg("Urgent announcement push failed")
		return
	}
	logging.Info().
		Str("announcement_id", a.ID).
		Str("target", target).
		Int("dispatched", result.Dispatched).
		Msg("Urgent announcement circulated")
}
