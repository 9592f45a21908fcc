// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parkwise/signage/internal/config"
	"github.com/parkwise/signage/internal/database"
	"github.com/parkwise/signage/internal/events"
	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/middleware"
	"github.com/parkwise/signage/internal/mood"
	"github.com/parkwise/signage/internal/playout"
	"github.com/parkwise/signage/internal/registry"
	"github.com/parkwise/signage/internal/schedule"
	ws "github.com/parkwise/signage/internal/websocket"
)

// Handler carries the dependencies API handlers dispatch into. Handler
// methods are split by entity across handlers_*.go files; each file owns
// one route group from the router.
//
// evaluator and moodEngine may be nil when their subsystems are disabled;
// the affected handlers degrade instead of failing.
type Handler struct {
	db         *database.DB
	cfg        *config.Config
	registry   *registry.Registry
	engine     *playout.Engine
	evaluator  *schedule.Evaluator
	moodEngine *mood.Engine
	hub        *ws.Hub
	bus        events.Bus
	perfMon    *middleware.PerformanceMonitor
	startedAt  time.Time
}

// NewHandler wires the API surface. bus may be nil; it is replaced with
// a no-op publisher so handlers can emit unconditionally.
func NewHandler(db *database.DB, cfg *config.Config, reg *registry.Registry, engine *playout.Engine, evaluator *schedule.Evaluator, moodEngine *mood.Engine, hub *ws.Hub, bus events.Bus) *Handler {
	if bus == nil {
		bus = events.NopBus{}
	}
	return &Handler{
		db:         db,
		cfg:        cfg,
		registry:   reg,
		engine:     engine,
		evaluator:  evaluator,
		moodEngine: moodEngine,
		hub:        hub,
		bus:        bus,
		perfMon:    middleware.NewPerformanceMonitor(1000),
		startedAt:  time.Now(),
	}
}

// PerformanceMonitor exposes the rolling request metrics window so the
// router can install its middleware.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// getUpgrader builds the WebSocket upgrader for the screen channel with
// origin checking and a handshake timeout against slow-client attacks.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates upgrade origins. Player devices are not
// browsers and send no Origin header; those connect unconditionally.
// Browser connections (admin UI previews) must match the configured CORS
// origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if h.cfg == nil {
		return true
	}

	for _, allowed := range h.cfg.API.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
