// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"net/http"

	"github.com/parkwise/signage/internal/models"
)

// GetSettings returns the process-wide key/value settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.db.GetSettings(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, settings)
}

// UpdateSettings upserts the posted pairs and returns the full resulting
// map. Unknown keys round-trip untouched for forward compatibility.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var pairs map[string]string
	if !decodeJSON(w, r, &pairs) {
		return
	}
	if len(pairs) == 0 {
		respondError(w, http.StatusBadRequest, models.ErrCodeInvalidInput, "no settings provided", nil)
		return
	}
	for key := range pairs {
		if key == "" {
			respondError(w, http.StatusBadRequest, models.ErrCodeInvalidInput, "setting keys must not be empty", nil)
			return
		}
	}

	if err := h.db.UpdateSettings(r.Context(), pairs); err != nil {
		respondDomainError(w, err)
		return
	}

	settings, err := h.db.GetSettings(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, settings)
}
