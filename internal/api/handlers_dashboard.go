// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"net/http"
	"time"
)

// DashboardStats returns the denormalised counts behind the admin
// dashboard. Catalogue counts come from the store; connected screens,
// playing groups and drop counters are runtime state stitched on here.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	scope := scopeClientID(r.Context())

	stats, err := h.db.GetDashboardStats(r.Context(), scope)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if h.hub != nil {
		stats.Screens.Connected = h.hub.ConnectedCount()
		stats.DroppedMessages = h.hub.DroppedTotal()
	}
	if h.engine != nil {
		stats.SyncGroups.Playing = h.engine.PlayingCount(scope)
	}
	stats.UptimeSeconds = int64(time.Since(h.startedAt).Seconds())

	respondSuccess(w, stats)
}

// DashboardEvents returns the recent-activity feed from the events
// table, newest first. ?limit= caps the page, default 50, max 500.
func (h *Handler) DashboardEvents(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 50)
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	events, err := h.db.ListEvents(r.Context(), scopeClientID(r.Context()), limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, events)
}

// DashboardPerformance returns rolling latency aggregates per endpoint
// from the in-process monitor window.
func (h *Handler) DashboardPerformance(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.perfMon.GetStats())
}
