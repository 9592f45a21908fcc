// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"context"
	"net/http"
	"time"
)

// Version is stamped by the release build via -ldflags.
var Version = "dev"

const healthPingTimeout = 2 * time.Second

// Health handles GET /health. Always 200; status flips to "degraded" when
// the database stops answering so dashboards can distinguish "control plane
// up but storage down" from a dead process.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	dbConnected := h.db != nil && h.db.Ping(ctx) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	connected := 0
	if h.hub != nil {
		connected = h.hub.ConnectedCount()
	}

	respondSuccess(w, map[string]interface{}{
		"status":            status,
		"version":           Version,
		"database":          dbConnected,
		"screens_connected": connected,
		"uptime_seconds":    int64(time.Since(h.startedAt).Seconds()),
	})
}

// HealthLive handles GET /health/live. Liveness only: answers as long as
// the process can serve HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"alive":          true,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// HealthReady handles GET /health/ready. 503 until the database answers,
// so load balancers hold traffic during startup and storage outages.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if h.db == nil || h.db.Ping(ctx) != nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "database is not reachable", nil)
		return
	}

	respondSuccess(w, map[string]interface{}{
		"ready":          true,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}
