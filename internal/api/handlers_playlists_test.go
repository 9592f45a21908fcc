// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"net/http"
	"testing"

	"github.com/parkwise/signage/internal/models"
)

func TestPlaylists_CreateAndList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/playlists",
		`{"name": "Morning Loop", "items": [
			{"contentType": "widget", "widget": "clock", "duration": 10},
			{"contentType": "url", "url": "https://example.com/promo", "duration": 30}
		], "loop": true, "transition": "fade"}`, nil)

	var created models.Playlist
	requireSuccess(t, rec, http.StatusCreated, &created)
	if created.ID == "" {
		t.Fatal("Expected store-assigned playlist id")
	}
	if len(created.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(created.Items))
	}
	if created.ClientID != models.BootstrapClientID {
		t.Errorf("Expected default tenant, got %s", created.ClientID)
	}

	rec = env.doJSON(t, http.MethodGet, "/api/playlists", "", nil)
	var listed []models.Playlist
	requireSuccess(t, rec, http.StatusOK, &listed)
	if len(listed) != 1 {
		t.Fatalf("Expected 1 playlist, got %d", len(listed))
	}
}

func TestPlaylists_ItemValidation(t *testing.T) {
	env := newTestEnv(t)

	// Duration below the 5s floor.
	rec := env.doJSON(t, http.MethodPost, "/api/playlists",
		`{"name": "Too Fast", "items": [{"contentType": "widget", "widget": "clock", "duration": 2}]}`, nil)
	requireError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	// Unknown content type.
	rec = env.doJSON(t, http.MethodPost, "/api/playlists",
		`{"name": "Bad Type", "items": [{"contentType": "hologram", "duration": 10}]}`, nil)
	requireError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestPlaylists_UpdateKeepsOmittedFields(t *testing.T) {
	env := newTestEnv(t)
	p := seedPlaylist(t, env.db, models.BootstrapClientID, "Morning Loop", widgetItems(2))

	rec := env.doJSON(t, http.MethodPut, "/api/playlists/"+p.ID,
		`{"name": "Evening Loop"}`, nil)

	var updated models.Playlist
	requireSuccess(t, rec, http.StatusOK, &updated)
	if updated.Name != "Evening Loop" {
		t.Errorf("Expected renamed playlist, got %s", updated.Name)
	}
	if len(updated.Items) != 2 {
		t.Errorf("Omitted items must keep their value, got %d items", len(updated.Items))
	}
}

func TestPlaylists_Delete(t *testing.T) {
	env := newTestEnv(t)
	p := seedPlaylist(t, env.db, models.BootstrapClientID, "Morning Loop", widgetItems(1))

	rec := env.doJSON(t, http.MethodDelete, "/api/playlists/"+p.ID, "", nil)
	requireSuccess(t, rec, http.StatusOK, nil)

	rec = env.doJSON(t, http.MethodGet, "/api/playlists/"+p.ID, "", nil)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestPlaylists_PushEmptyRejected(t *testing.T) {
	env := newTestEnv(t)
	p := seedPlaylist(t, env.db, models.BootstrapClientID, "Empty", nil)

	rec := env.doJSON(t, http.MethodPost, "/api/playlists/"+p.ID+"/push", "", nil)
	requireError(t, rec, http.StatusBadRequest, "EMPTY_PLAYLIST")
}

func TestPlaylists_PushNoConnectedScreens(t *testing.T) {
	env := newTestEnv(t)
	p := seedPlaylist(t, env.db, models.BootstrapClientID, "Morning Loop", widgetItems(2))
	seedScreen(t, env.db, models.BootstrapClientID, "lobby-1")

	// Zero matches is a success, not an error: the catalogue row exists,
	// the screen channel does not.
	rec := env.doJSON(t, http.MethodPost, "/api/playlists/"+p.ID+"/push", "", nil)
	var result models.PushResult
	requireSuccess(t, rec, http.StatusOK, &result)
	if result.Matched != 0 || result.Dispatched != 0 {
		t.Errorf("Expected zero delivery without live channels, got %+v", result)
	}
}

func TestPlaylists_PushWithTarget(t *testing.T) {
	env := newTestEnv(t)
	p := seedPlaylist(t, env.db, models.BootstrapClientID, "Morning Loop", widgetItems(1))

	rec := env.doJSON(t, http.MethodPost, "/api/playlists/"+p.ID+"/push",
		`{"target": "lobby-1"}`, nil)
	var result models.PushResult
	requireSuccess(t, rec, http.StatusOK, &result)

	rec = env.doJSON(t, http.MethodPost, "/api/playlists/ghost/push", "", nil)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")
}
