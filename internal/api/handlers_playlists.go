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

// ListPlaylists returns the tenant's playlists.
func (h *Handler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.db.ListPlaylists(r.Context(), scopeClientID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, playlists)
}

// GetPlaylist returns one playlist with its items.
func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.db.GetPlaylist(r.Context(), TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, playlist)
}

// CreatePlaylist stores a content sequence. Empty playlists are allowed
// at rest; only playing one is rejected.
func (h *Handler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var playlist models.Playlist
	if !decodeJSON(w, r, &playlist) {
		return
	}
	playlist.ClientID = TenantID(r.Context())
	if apiErr := validateRequest(&playlist); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	if err := h.db.CreatePlaylist(r.Context(), &playlist); err != nil {
		respondDomainError(w, err)
		return
	}
	respondCreated(w, &playlist)
}

// UpdatePlaylist rewrites a playlist. Groups already playing it keep the
// item list they loaded; the change lands on the next play.
func (h *Handler) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	clientID := TenantID(r.Context())
	id := chi.URLParam(r, "id")

	playlist, err := h.db.GetPlaylist(r.Context(), clientID, id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !decodeJSON(w, r, playlist) {
		return
	}
	playlist.ID = id
	playlist.ClientID = clientID
	if apiErr := validateRequest(playlist); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{Success: false, Error: apiErr})
		return
	}

	if err := h.db.UpdatePlaylist(r.Context(), playlist); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, playlist)
}

// DeletePlaylist removes a playlist. Schedules referencing it simply stop
// matching anything useful; the evaluator logs and skips them.
func (h *Handler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.db.DeletePlaylist(r.Context(), TenantID(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"deleted": id})
}

// PushPlaylist dispatches a playlist envelope to a target for immediate
// unsynchronized playback. Body: {"target": "..."}, defaulting to all.
func (h *Handler) PushPlaylist(w http.ResponseWriter, r *http.Request) {
	clientID := TenantID(r.Context())

	playlist, err := h.db.GetPlaylist(r.Context(), clientID, chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if playlist.IsEmpty() {
		respondError(w, http.StatusBadRequest, models.ErrCodeEmptyPlaylist, "playlist "+playlist.ID+" has no items", nil)
		return
	}

	var req models.ClearRequest // same one-field target shape
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	target := req.Target
	if target == "" {
		target = "all"
	}

	env := models.NewEnvelope(models.SourceAPI, models.EnvelopeTypePlaylist, map[string]interface{}{
		"playlistId": playlist.ID,
		"name":       playlist.Name,
		"items":      playlist.Items,
		"loop":       playlist.Loop,
		"transition": playlist.Transition,
	})

	result, err := h.registry.Push(r.Context(), clientID, target, env)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, result)
}
