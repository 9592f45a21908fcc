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

func TestScreens_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/screens",
		`{"id": "lobby-1", "name": "Lobby Entrance", "platform": "webos", "resolution": "3840x2160"}`, nil)

	var created models.Screen
	requireSuccess(t, rec, http.StatusCreated, &created)
	if created.ID != "lobby-1" {
		t.Errorf("Expected id lobby-1, got %s", created.ID)
	}
	if created.ClientID != models.BootstrapClientID {
		t.Errorf("Expected default tenant, got %s", created.ClientID)
	}
	if created.Connected {
		t.Error("Administrative registration must not show a live channel")
	}

	rec = env.doJSON(t, http.MethodGet, "/api/screens/lobby-1", "", nil)
	var fetched models.Screen
	requireSuccess(t, rec, http.StatusOK, &fetched)
	if fetched.Platform != "webos" {
		t.Errorf("Expected platform webos, got %s", fetched.Platform)
	}
}

func TestScreens_CreateRequiresID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/screens", `{"name": "anonymous"}`, nil)
	requireError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestScreens_TenantScoping(t *testing.T) {
	env := newTestEnv(t)
	acme := seedClient(t, env.db, "Acme Parking", "acme")
	seedScreen(t, env.db, acme.ID, "acme-1")
	seedScreen(t, env.db, models.BootstrapClientID, "pw-1")

	// Default tenant sees only its own screens.
	rec := env.doJSON(t, http.MethodGet, "/api/screens", "", nil)
	var screens []models.Screen
	requireSuccess(t, rec, http.StatusOK, &screens)
	if len(screens) != 1 || screens[0].ID != "pw-1" {
		t.Fatalf("Expected only pw-1 for default tenant, got %+v", screens)
	}

	// Header selects the tenant.
	rec = env.doJSON(t, http.MethodGet, "/api/screens", "", map[string]string{"X-Client-Id": acme.ID})
	requireSuccess(t, rec, http.StatusOK, &screens)
	if len(screens) != 1 || screens[0].ID != "acme-1" {
		t.Fatalf("Expected only acme-1 for acme tenant, got %+v", screens)
	}

	// all_clients widens to every tenant.
	rec = env.doJSON(t, http.MethodGet, "/api/screens?all_clients=true", "", nil)
	requireSuccess(t, rec, http.StatusOK, &screens)
	if len(screens) != 2 {
		t.Fatalf("Expected both screens under all_clients, got %d", len(screens))
	}

	// Cross-tenant get answers NOT_FOUND, not FORBIDDEN, to avoid
	// leaking which ids exist.
	rec = env.doJSON(t, http.MethodGet, "/api/screens/acme-1", "", nil)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestScreens_UpdatePatchSemantics(t *testing.T) {
	env := newTestEnv(t)
	seedScreen(t, env.db, models.BootstrapClientID, "lobby-1")

	rec := env.doJSON(t, http.MethodPut, "/api/screens/lobby-1",
		`{"name": "Lobby West", "group_id": "lobby"}`, nil)

	var updated models.Screen
	requireSuccess(t, rec, http.StatusOK, &updated)
	if updated.Name != "Lobby West" || updated.GroupID != "lobby" {
		t.Errorf("Patch not applied: %+v", updated)
	}

	// A second patch without group_id keeps it.
	rec = env.doJSON(t, http.MethodPut, "/api/screens/lobby-1", `{"name": "Lobby East"}`, nil)
	requireSuccess(t, rec, http.StatusOK, &updated)
	if updated.GroupID != "lobby" {
		t.Errorf("Absent group_id must keep value, got %q", updated.GroupID)
	}
}

func TestScreens_Delete(t *testing.T) {
	env := newTestEnv(t)
	seedScreen(t, env.db, models.BootstrapClientID, "lobby-1")

	rec := env.doJSON(t, http.MethodDelete, "/api/screens/lobby-1", "", nil)
	var resp map[string]interface{}
	requireSuccess(t, rec, http.StatusOK, &resp)

	rec = env.doJSON(t, http.MethodGet, "/api/screens/lobby-1", "", nil)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestScreens_ForceMode(t *testing.T) {
	env := newTestEnv(t)
	seedScreen(t, env.db, models.BootstrapClientID, "kiosk-1")

	// Disconnected screen: command matches nothing but the call succeeds.
	rec := env.doJSON(t, http.MethodPost, "/api/screens/kiosk-1/mode",
		`{"mode": "interactive"}`, nil)
	var result models.PushResult
	requireSuccess(t, rec, http.StatusOK, &result)
	if result.Matched != 0 || result.Dispatched != 0 {
		t.Errorf("Expected no delivery to offline screen, got %+v", result)
	}

	rec = env.doJSON(t, http.MethodPost, "/api/screens/kiosk-1/mode",
		`{"mode": "cinema"}`, nil)
	requireError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	rec = env.doJSON(t, http.MethodPost, "/api/screens/ghost/mode",
		`{"mode": "signage"}`, nil)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestScreens_ScreenshotNotFound(t *testing.T) {
	env := newTestEnv(t)
	seedScreen(t, env.db, models.BootstrapClientID, "lobby-1")

	// No capture cached yet.
	rec := env.doJSON(t, http.MethodGet, "/api/screens/lobby-1/screenshot", "", nil)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")

	// Unknown screen is NOT_FOUND before the cache is consulted.
	rec = env.doJSON(t, http.MethodGet, "/api/screens/ghost/screenshot", "", nil)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")
}
