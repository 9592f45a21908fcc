// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"context"
	"net/http"

	"github.com/parkwise/signage/internal/models"
)

type tenantContextKey int

const (
	tenantIDKey tenantContextKey = iota
	allClientsKey
)

// TenantResolver resolves the calling tenant for every request under
// /api. The X-Client-Id header wins over the client_id query parameter;
// neither present means the bootstrap tenant. ?all_clients=true marks
// the request as fleet-wide, which list endpoints honor by skipping the
// client_id scope.
func TenantResolver() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := r.Header.Get("X-Client-Id")
			if clientID == "" {
				clientID = r.URL.Query().Get("client_id")
			}
			if clientID == "" {
				clientID = models.BootstrapClientID
			}

			ctx := context.WithValue(r.Context(), tenantIDKey, clientID)
			if r.URL.Query().Get("all_clients") == "true" {
				ctx = context.WithValue(ctx, allClientsKey, true)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantID returns the tenant resolved for this request. Outside the
// resolver (tests hitting handlers directly) it falls back to the
// bootstrap tenant, matching the no-header default.
func TenantID(ctx context.Context) string {
	if id, ok := ctx.Value(tenantIDKey).(string); ok && id != "" {
		return id
	}
	return models.BootstrapClientID
}

// AllClients reports whether the request asked for fleet-wide scope.
func AllClients(ctx context.Context) bool {
	v, _ := ctx.Value(allClientsKey).(bool)
	return v
}

// scopeClientID returns the client id list queries should filter by:
// "" under all_clients bypass, the resolved tenant otherwise.
func scopeClientID(ctx context.Context) string {
	if AllClients(ctx) {
		return ""
	}
	return TenantID(ctx)
}
