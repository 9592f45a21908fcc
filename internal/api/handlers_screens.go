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

// ListScreens returns the tenant's screens with runtime state stitched
// on. Query filters: location_id, group_id, sync_group, status.
func (h *Handler) ListScreens(w http.ResponseWriter, r *http.Request) {
	filter := models.ScreenFilter{
		ClientID:   TenantID(r.Context()),
		LocationID: r.URL.Query().Get("location_id"),
		GroupID:    r.URL.Query().Get("group_id"),
		SyncGroup:  r.URL.Query().Get("sync_group"),
		Status:     r.URL.Query().Get("status"),
		AllClients: AllClients(r.Context()),
	}

	screens, err := h.registry.ListScreens(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, screens)
}

// GetScreen returns one screen with live connection state.
func (h *Handler) GetScreen(w http.ResponseWriter, r *http.Request) {
	screen, err := h.registry.GetScreen(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, screen)
}

// CreateScreen registers a screen administratively, the HTTP twin of the
// player:register frame. Same id twice upserts the same row.
func (h *Handler) CreateScreen(w http.ResponseWriter, r *http.Request) {
	var reg models.ScreenRegistration
	if !decodeJSON(w, r, &reg) {
		return
	}
	if reg.ClientID == "" {
		reg.ClientID = TenantID(r.Context())
	}
	if apiErr := validateRequest(&reg); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	screen, err := h.registry.RegisterScreen(r.Context(), &reg)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondCreated(w, screen)
}

// UpdateScreen patches the mutable screen fields. Absent fields are left
// untouched; identity and liveness fields are not patchable.
func (h *Handler) UpdateScreen(w http.ResponseWriter, r *http.Request) {
	var patch models.ScreenPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	screen, err := h.registry.UpdateScreen(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"), &patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, screen)
}

// DeleteScreen removes a screen, closing its channel if connected.
func (h *Handler) DeleteScreen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.DeleteScreen(r.Context(), TenantID(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"deleted": id})
}

// ForceScreenMode pushes a mode command to one screen. The mode map is
// updated when the screen acknowledges via screens:mode-update.
func (h *Handler) ForceScreenMode(w http.ResponseWriter, r *http.Request) {
	var req models.ModeRequest
	if !decodeValid(w, r, &req) {
		return
	}

	result, err := h.registry.ForceMode(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"), req.Mode)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, result)
}

// GetScreenScreenshot returns the latest cached capture for a screen,
// NOT_FOUND when the screen never reported one or the cache entry aged
// out.
func (h *Handler) GetScreenScreenshot(w http.ResponseWriter, r *http.Request) {
	clientID := TenantID(r.Context())
	id := chi.URLParam(r, "id")

	// Tenancy check first; the capture cache is keyed by screen id alone.
	if _, err := h.registry.GetScreen(r.Context(), clientID, id); err != nil {
		respondDomainError(w, err)
		return
	}

	shot, err := h.registry.Screenshot(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, shot)
}
