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

// ListSyncGroups returns the tenant's sync groups with playback state.
func (h *Handler) ListSyncGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.db.ListSyncGroups(r.Context(), scopeClientID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	out := make([]map[string]interface{}, 0, len(groups))
	for _, g := range groups {
		state, playing := h.engine.Status(g.ID)
		entry := map[string]interface{}{
			"group":   g,
			"playing": playing,
		}
		if playing {
			entry["state"] = state
		}
		out = append(out, entry)
	}
	respondSuccess(w, out)
}

// GetSyncGroup returns one group with its members and playback state.
func (h *Handler) GetSyncGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.db.GetSyncGroup(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	members, err := h.db.ListSyncGroupScreens(r.Context(), group.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.registry.Decorate(members)

	state, playing := h.engine.Status(group.ID)
	out := map[string]interface{}{
		"group":   group,
		"members": members,
		"playing": playing,
	}
	if playing {
		out["state"] = state
	}
	respondSuccess(w, out)
}

// CreateSyncGroup registers a group shell; screens join via the attach
// endpoint.
func (h *Handler) CreateSyncGroup(w http.ResponseWriter, r *http.Request) {
	var group models.SyncGroup
	if !decodeJSON(w, r, &group) {
		return
	}
	group.ClientID = TenantID(r.Context())
	if group.Mode == "" {
		group.Mode = models.SyncModeMirror
	}
	if apiErr := validateRequest(&group); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	if err := h.db.CreateSyncGroup(r.Context(), &group); err != nil {
		respondDomainError(w, err)
		return
	}
	respondCreated(w, &group)
}

// UpdateSyncGroup rewrites the group's mutable fields. A running playback
// keeps its mode until the next play.
func (h *Handler) UpdateSyncGroup(w http.ResponseWriter, r *http.Request) {
	clientID := TenantID(r.Context())
	id := chi.URLParam(r, "id")

	group, err := h.db.GetSyncGroup(r.Context(), clientID, id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !decodeJSON(w, r, group) {
		return
	}
	group.ID = id
	group.ClientID = clientID
	if apiErr := validateRequest(group); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	if err := h.db.UpdateSyncGroup(r.Context(), group); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, group)
}

// DeleteSyncGroup stops playback, detaches members and removes the row.
func (h *Handler) DeleteSyncGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.DeleteGroup(r.Context(), TenantID(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"deleted": id})
}

// PlaySyncGroup starts coordinated playback. The optional body playlistId
// overrides the group's bound playlist; an empty playlist answers
// EMPTY_PLAYLIST with no state change.
func (h *Handler) PlaySyncGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlaylistID string `json:"playlistId"`
	}
	// The body is optional; decode failures on an empty body are fine.
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	state, err := h.engine.Play(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"), req.PlaylistID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, state)
}

// StopSyncGroup cancels the pending tick and discards playback state.
func (h *Handler) StopSyncGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.Stop(r.Context(), TenantID(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"stopped": id})
}

// SeekSyncGroup jumps a playing group to an item index.
func (h *Handler) SeekSyncGroup(w http.ResponseWriter, r *http.Request) {
	var req models.SeekRequest
	if !decodeValid(w, r, &req) {
		return
	}

	state, err := h.engine.Seek(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"), req.ItemIndex)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, state)
}

// IdentifySyncGroup flashes the on-screen id on every member.
func (h *Handler) IdentifySyncGroup(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Identify(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, result)
}

// ScreenshotSyncGroup asks every member for a capture; images land in the
// screenshot cache asynchronously.
func (h *Handler) ScreenshotSyncGroup(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Screenshot(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, result)
}

// SyncGroupStatus returns the group's runtime state without touching the
// catalogue. Idle groups answer playing=false with a zero-state skeleton.
func (h *Handler) SyncGroupStatus(w http.ResponseWriter, r *http.Request) {
	state, playing := h.engine.Status(chi.URLParam(r, "id"))
	respondSuccess(w, map[string]interface{}{
		"playing": playing,
		"state":   state,
	})
}

// AttachScreensToSyncGroup joins screens to the group at the end of the
// position order. A running playback picks them up on its next tick.
func (h *Handler) AttachScreensToSyncGroup(w http.ResponseWriter, r *http.Request) {
	var req models.AttachScreensRequest
	if !decodeValid(w, r, &req) {
		return
	}

	members, err := h.engine.AttachScreens(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"), req.ScreenIDs)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, members)
}

// DetachScreenFromSyncGroup removes one member.
func (h *Handler) DetachScreenFromSyncGroup(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "screenId")
	if err := h.engine.DetachScreen(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"), screenID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"detached": screenID})
}
