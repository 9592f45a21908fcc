// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"net/http"

	"github.com/parkwise/signage/internal/logging"
	ws "github.com/parkwise/signage/internal/websocket"
)

// WebSocket handles GET /ws. The connection stays anonymous until the
// player sends its register frame; identity, tenancy and liveness all
// live in the hub and registry from that point on.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "websocket hub not available", nil)
		return
	}

	if h.cfg != nil && h.cfg.Server.MaxScreens > 0 && h.hub.ConnectedCount() >= h.cfg.Server.MaxScreens {
		logging.Warn().
			Int("connected", h.hub.ConnectedCount()).
			Int("max", h.cfg.Server.MaxScreens).
			Msg("WebSocket connection refused, screen cap reached")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "maximum screen connections reached", nil)
		return
	}

	upgrader := h.getUpgrader()
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logging.Error().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	conn := ws.NewConn(h.hub, sock)
	h.hub.Track(conn)
	conn.Start()
}
