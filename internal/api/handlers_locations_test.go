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

func TestLocations_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/locations",
		`{"name": "Garage Nord", "timezone": "Europe/Berlin", "latitude": 52.52, "longitude": 13.405}`, nil)

	var created models.Location
	requireSuccess(t, rec, http.StatusCreated, &created)
	if created.ID == "" {
		t.Fatal("Expected generated location id")
	}
	if created.ClientID != models.BootstrapClientID {
		t.Errorf("Expected bootstrap tenant, got %s", created.ClientID)
	}

	rec = env.doJSON(t, http.MethodGet, "/api/locations/"+created.ID, "", nil)
	var fetched models.Location
	requireSuccess(t, rec, http.StatusOK, &fetched)
	if fetched.Timezone != "Europe/Berlin" {
		t.Errorf("Expected timezone Europe/Berlin, got %s", fetched.Timezone)
	}
}

func TestLocations_TimezoneValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/locations",
		`{"name": "Garage Süd", "timezone": "Mars/Olympus"}`, nil)
	requireError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	rec = env.doJSON(t, http.MethodPost, "/api/locations", `{"timezone": "UTC"}`, nil)
	requireError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestLocations_UpdateKeepsOmittedFields(t *testing.T) {
	env := newTestEnv(t)
	loc := seedLocation(t, env.db, models.BootstrapClientID, "Garage Nord")

	rec := env.doJSON(t, http.MethodPut, "/api/locations/"+loc.ID,
		`{"name": "Garage Nord Renamed"}`, nil)
	var updated models.Location
	requireSuccess(t, rec, http.StatusOK, &updated)
	if updated.Name != "Garage Nord Renamed" {
		t.Errorf("Expected renamed location, got %s", updated.Name)
	}
	if updated.Timezone != "UTC" {
		t.Errorf("Omitted timezone must keep value, got %s", updated.Timezone)
	}
}

func TestLocations_DeleteUnpinsScreens(t *testing.T) {
	env := newTestEnv(t)
	loc := seedLocation(t, env.db, models.BootstrapClientID, "Garage Nord")
	seedScreen(t, env.db, models.BootstrapClientID, "entry-1")

	rec := env.doJSON(t, http.MethodPost, "/api/locations/"+loc.ID+"/screens",
		`{"screenIds": ["entry-1"]}`, nil)
	var assign map[string]interface{}
	requireSuccess(t, rec, http.StatusOK, &assign)
	if int(assign["assigned"].(float64)) != 1 {
		t.Fatalf("Expected 1 assigned screen, got %v", assign["assigned"])
	}

	rec = env.doJSON(t, http.MethodDelete, "/api/locations/"+loc.ID, "", nil)
	requireSuccess(t, rec, http.StatusOK, nil)

	// The screen survives the delete without its location pin.
	rec = env.doJSON(t, http.MethodGet, "/api/screens/entry-1", "", nil)
	var screen models.Screen
	requireSuccess(t, rec, http.StatusOK, &screen)
	if screen.LocationID != "" {
		t.Errorf("Expected cleared location pin, got %s", screen.LocationID)
	}
}

func TestLocations_AssignSkipsForeignScreens(t *testing.T) {
	env := newTestEnv(t)
	acme := seedClient(t, env.db, "Acme Parking", "acme")
	loc := seedLocation(t, env.db, models.BootstrapClientID, "Garage Nord")
	seedScreen(t, env.db, models.BootstrapClientID, "mine-1")
	seedScreen(t, env.db, acme.ID, "theirs-1")

	rec := env.doJSON(t, http.MethodPost, "/api/locations/"+loc.ID+"/screens",
		`{"screenIds": ["mine-1", "theirs-1"]}`, nil)
	var assign map[string]interface{}
	requireSuccess(t, rec, http.StatusOK, &assign)
	if int(assign["assigned"].(float64)) != 1 {
		t.Errorf("Foreign screens must not be assigned, got %v", assign["assigned"])
	}
}

func TestLocations_PushToLocation(t *testing.T) {
	env := newTestEnv(t)
	loc := seedLocation(t, env.db, models.BootstrapClientID, "Garage Nord")

	rec := env.doJSON(t, http.MethodPost, "/api/locations/"+loc.ID+"/push",
		`{"type": "url", "content": {"url": "https://example.com/board"}}`, nil)
	var result models.PushResult
	requireSuccess(t, rec, http.StatusOK, &result)
	if result.Matched != 0 || result.Dispatched != 0 {
		t.Errorf("No connected screens, expected zero counts: %+v", result)
	}

	rec = env.doJSON(t, http.MethodPost, "/api/locations/ghost/push",
		`{"type": "url", "content": {}}`, nil)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestLocations_TenantScoping(t *testing.T) {
	env := newTestEnv(t)
	acme := seedClient(t, env.db, "Acme Parking", "acme")
	seedLocation(t, env.db, acme.ID, "Acme Lot")
	seedLocation(t, env.db, models.BootstrapClientID, "Parkwise Lot")

	rec := env.doJSON(t, http.MethodGet, "/api/locations", "",
		map[string]string{"X-Client-Id": acme.ID})
	var listed []models.Location
	requireSuccess(t, rec, http.StatusOK, &listed)
	if len(listed) != 1 || listed[0].Name != "Acme Lot" {
		t.Fatalf("Expected only Acme's location, got %+v", listed)
	}

	rec = env.doJSON(t, http.MethodGet, "/api/locations?all_clients=true", "", nil)
	requireSuccess(t, rec, http.StatusOK, &listed)
	if len(listed) != 2 {
		t.Errorf("Expected cross-tenant listing of 2 locations, got %d", len(listed))
	}
}
