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

// ListContexts returns the current mood vector and signal bag for every
// site of the tenant. With the mood engine disabled the list is empty.
func (h *Handler) ListContexts(w http.ResponseWriter, r *http.Request) {
	if h.moodEngine == nil {
		respondSuccess(w, []models.MoodContext{})
		return
	}

	contexts := h.moodEngine.Contexts()
	if AllClients(r.Context()) {
		respondSuccess(w, contexts)
		return
	}

	locations, err := h.db.ListLocations(r.Context(), TenantID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	owned := make(map[string]bool, len(locations))
	for _, loc := range locations {
		owned[loc.ID] = true
	}

	scoped := make([]models.MoodContext, 0, len(contexts))
	for _, mc := range contexts {
		if owned[mc.LocationID] {
			scoped = append(scoped, mc)
		}
	}
	respondSuccess(w, scoped)
}

// GetContext returns one site's mood context. A site the engine has not
// picked up yet (it rescans every couple of seconds) answers the default
// vector rather than a transient 404.
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	locationID := chi.URLParam(r, "locationId")

	location, err := h.db.GetLocation(r.Context(), TenantID(r.Context()), locationID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if h.moodEngine != nil {
		if mc, ok := h.moodEngine.Context(location.ID); ok {
			respondSuccess(w, mc)
			return
		}
	}

	respondSuccess(w, models.MoodContext{
		LocationID: location.ID,
		Current:    models.DefaultMoodVector(),
		Target:     models.DefaultMoodVector(),
	})
}
