// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/parkwise/signage/internal/models"
)

func TestDashboard_StatsScopedToTenant(t *testing.T) {
	env := newTestEnv(t)
	acme := seedClient(t, env.db, "Acme Parking", "acme")
	seedLocation(t, env.db, models.BootstrapClientID, "Garage Nord")
	seedScreen(t, env.db, models.BootstrapClientID, "pw-1")
	seedScreen(t, env.db, models.BootstrapClientID, "pw-2")
	seedScreen(t, env.db, acme.ID, "acme-1")
	seedPlaylist(t, env.db, models.BootstrapClientID, "Loop", widgetItems(1))
	seedSyncGroup(t, env.db, models.BootstrapClientID, "Wall", models.SyncModeMirror)

	rec := env.doJSON(t, http.MethodGet, "/api/dashboard/stats", "", nil)
	var stats models.DashboardStats
	requireSuccess(t, rec, http.StatusOK, &stats)

	if stats.Screens.Total != 2 {
		t.Errorf("Expected 2 tenant screens, got %d", stats.Screens.Total)
	}
	if stats.Screens.Connected != 0 {
		t.Errorf("Expected no live channels, got %d", stats.Screens.Connected)
	}
	if stats.Locations != 1 || stats.Playlists != 1 || stats.SyncGroups.Total != 1 {
		t.Errorf("Unexpected catalogue counts: %+v", stats)
	}
	if stats.SyncGroups.Playing != 0 {
		t.Errorf("Expected no playing groups, got %d", stats.SyncGroups.Playing)
	}

	// Cross-tenant view sees every screen and both clients.
	rec = env.doJSON(t, http.MethodGet, "/api/dashboard/stats?all_clients=true", "", nil)
	requireSuccess(t, rec, http.StatusOK, &stats)
	if stats.Screens.Total != 3 {
		t.Errorf("Expected 3 screens across tenants, got %d", stats.Screens.Total)
	}
	if stats.Clients != 2 {
		t.Errorf("Expected 2 clients, got %d", stats.Clients)
	}
}

func TestDashboard_StatsCountPlayingGroups(t *testing.T) {
	env := newTestEnv(t)
	p := seedPlaylist(t, env.db, models.BootstrapClientID, "Loop", widgetItems(1))
	g := seedSyncGroup(t, env.db, models.BootstrapClientID, "Wall", models.SyncModeMirror)

	rec := env.doJSON(t, http.MethodPost, "/api/sync-groups/"+g.ID+"/play",
		`{"playlistId": "`+p.ID+`"}`, nil)
	requireSuccess(t, rec, http.StatusOK, nil)

	rec = env.doJSON(t, http.MethodGet, "/api/dashboard/stats", "", nil)
	var stats models.DashboardStats
	requireSuccess(t, rec, http.StatusOK, &stats)
	if stats.SyncGroups.Playing != 1 {
		t.Errorf("Expected 1 playing group, got %d", stats.SyncGroups.Playing)
	}
}

func TestDashboard_EventsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	base := time.Now().UTC().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		err := env.db.InsertEvent(context.Background(), &models.Event{
			Type:      models.EventScreenOnline,
			ClientID:  models.BootstrapClientID,
			Subject:   "lobby-1",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Failed to seed event: %v", err)
		}
	}

	rec := env.doJSON(t, http.MethodGet, "/api/dashboard/events?limit=2", "", nil)
	var events []models.Event
	requireSuccess(t, rec, http.StatusOK, &events)
	if len(events) != 2 {
		t.Fatalf("Expected limit to cap the feed at 2, got %d", len(events))
	}
	if !events[0].CreatedAt.After(events[1].CreatedAt) {
		t.Errorf("Expected newest first, got %v then %v", events[0].CreatedAt, events[1].CreatedAt)
	}
}

func TestDashboard_EventsLimitClamped(t *testing.T) {
	env := newTestEnv(t)

	// Nonsense limits fall back to defaults instead of erroring.
	rec := env.doJSON(t, http.MethodGet, "/api/dashboard/events?limit=-3", "", nil)
	requireSuccess(t, rec, http.StatusOK, nil)

	rec = env.doJSON(t, http.MethodGet, "/api/dashboard/events?limit=99999", "", nil)
	requireSuccess(t, rec, http.StatusOK, nil)
}

func TestDashboard_PerformanceWindow(t *testing.T) {
	env := newTestEnv(t)

	// Drive a few requests through the monitor first.
	env.doJSON(t, http.MethodGet, "/api/screens", "", nil)
	env.doJSON(t, http.MethodGet, "/api/screens", "", nil)
	env.doJSON(t, http.MethodGet, "/api/playlists", "", nil)

	rec := env.doJSON(t, http.MethodGet, "/api/dashboard/performance", "", nil)
	var stats []map[string]interface{}
	requireSuccess(t, rec, http.StatusOK, &stats)
	if len(stats) == 0 {
		t.Fatal("Expected endpoint stats after traffic")
	}
	first := stats[0]
	for _, key := range []string{"path", "request_count", "avg_duration_ms", "p95_duration_ms"} {
		if _, ok := first[key]; !ok {
			t.Errorf("Expected %s in endpoint stats, got %+v", key, first)
		}
	}
}
