// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/models"
)

// ListClients returns every tenant. Clients are the tenancy roots, so the
// listing is never scoped.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.db.ListClients(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, clients)
}

// GetClient returns one tenant by id.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.db.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, client)
}

// CreateClient onboards a tenant. Id, plan and branding defaults are
// applied by the store; a duplicate slug answers CONFLICT.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var client models.Client
	if !decodeJSON(w, r, &client) {
		return
	}
	if client.Plan == "" {
		client.Plan = models.PlanBasic
	}
	client.Active = true
	if apiErr := validateRequest(&client); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	if err := h.db.CreateClient(r.Context(), &client); err != nil {
		respondDomainError(w, err)
		return
	}

	logging.Info().Str("client_id", client.ID).Str("slug", sanitizeLogValue(client.Slug)).Msg("Client created")
	respondCreated(w, &client)
}

// UpdateClient rewrites a tenant's mutable fields. The body is applied
// over the stored row, so omitted fields keep their values.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	client, err := h.db.GetClient(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !decodeJSON(w, r, client) {
		return
	}
	client.ID = id
	if apiErr := validateRequest(client); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	if err := h.db.UpdateClient(r.Context(), client); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, client)
}

// DeleteClient removes a tenant and cascades to everything it owns. The
// bootstrap tenant answers FORBIDDEN.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.db.DeleteClient(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	logging.Info().Str("client_id", id).Msg("Client deleted with all owned entities")
	respondSuccess(w, map[string]interface{}{"deleted": id})
}
