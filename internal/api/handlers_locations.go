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

// ListLocations returns the tenant's sites.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.db.ListLocations(r.Context(), scopeClientID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, locations)
}

// GetLocation returns one site.
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	location, err := h.db.GetLocation(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, location)
}

// CreateLocation registers a site under the calling tenant.
func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var location models.Location
	if !decodeJSON(w, r, &location) {
		return
	}
	location.ClientID = TenantID(r.Context())
	if apiErr := validateRequest(&location); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	if err := h.db.CreateLocation(r.Context(), &location); err != nil {
		respondDomainError(w, err)
		return
	}
	respondCreated(w, &location)
}

// UpdateLocation rewrites a site. The mood engine notices the bumped
// updated_at on its next refresh and rebuilds the site's collectors.
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	clientID := TenantID(r.Context())
	id := chi.URLParam(r, "id")

	location, err := h.db.GetLocation(r.Context(), clientID, id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !decodeJSON(w, r, location) {
		return
	}
	location.ID = id
	location.ClientID = clientID
	if apiErr := validateRequest(location); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	if err := h.db.UpdateLocation(r.Context(), location); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, location)
}

// DeleteLocation removes a site. Screens pinned to it keep running but
// lose their location pin.
func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.db.DeleteLocation(r.Context(), TenantID(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"deleted": id})
}

// AssignScreensToLocation pins the listed screens to the site.
func (h *Handler) AssignScreensToLocation(w http.ResponseWriter, r *http.Request) {
	var req models.AttachScreensRequest
	if !decodeValid(w, r, &req) {
		return
	}

	assigned, err := h.db.AssignScreensToLocation(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"), req.ScreenIDs)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"assigned": assigned})
}

// PushToLocation dispatches an envelope to every screen at the site. The
// body is the generic push shape with the target taken from the path.
func (h *Handler) PushToLocation(w http.ResponseWriter, r *http.Request) {
	clientID := TenantID(r.Context())
	locationID := chi.URLParam(r, "id")

	// 404 for foreign or unknown sites before anything is dispatched.
	if _, err := h.db.GetLocation(r.Context(), clientID, locationID); err != nil {
		respondDomainError(w, err)
		return
	}

	var req models.PushRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Target = locationID
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	result, err := h.dispatch(r.Context(), clientID, &req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, result)
}
