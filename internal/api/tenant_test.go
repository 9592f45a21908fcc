// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parkwise/signage/internal/models"
)

func resolveThrough(t *testing.T, req *http.Request) context.Context {
	t.Helper()

	var captured context.Context
	handler := TenantResolver()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Context()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if captured == nil {
		t.Fatal("Resolver did not invoke next handler")
	}
	return captured
}

func TestTenantResolver_HeaderWinsOverQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/screens?client_id=from-query", nil)
	req.Header.Set("X-Client-Id", "from-header")

	ctx := resolveThrough(t, req)
	if got := TenantID(ctx); got != "from-header" {
		t.Errorf("Expected header to win, got %s", got)
	}
}

func TestTenantResolver_QueryFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/screens?client_id=from-query", nil)

	ctx := resolveThrough(t, req)
	if got := TenantID(ctx); got != "from-query" {
		t.Errorf("Expected query fallback, got %s", got)
	}
}

func TestTenantResolver_DefaultsToBootstrap(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/screens", nil)

	ctx := resolveThrough(t, req)
	if got := TenantID(ctx); got != models.BootstrapClientID {
		t.Errorf("Expected bootstrap default, got %s", got)
	}
	if AllClients(ctx) {
		t.Error("Expected tenant-scoped request by default")
	}
}

func TestTenantResolver_AllClientsBypass(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/screens?all_clients=true", nil)

	ctx := resolveThrough(t, req)
	if !AllClients(ctx) {
		t.Error("Expected fleet-wide scope")
	}
	if scopeClientID(ctx) != "" {
		t.Errorf("Expected empty scope under bypass, got %s", scopeClientID(ctx))
	}

	// Anything but the literal "true" keeps tenant scope.
	req = httptest.NewRequest(http.MethodGet, "/api/screens?all_clients=1", nil)
	ctx = resolveThrough(t, req)
	if AllClients(ctx) {
		t.Error("Expected all_clients=1 to be ignored")
	}
}

func TestTenantID_OutsideResolver(t *testing.T) {
	if got := TenantID(context.Background()); got != models.BootstrapClientID {
		t.Errorf("Expected bootstrap fallback, got %s", got)
	}
	if scopeClientID(context.Background()) != models.BootstrapClientID {
		t.Error("Expected bootstrap scope outside resolver")
	}
}
