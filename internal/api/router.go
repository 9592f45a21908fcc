// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parkwise/signage/internal/config"
	"github.com/parkwise/signage/internal/middleware"
)

// Router wires every HTTP endpoint onto a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for the given handler set. apiCfg may be nil,
// which yields the default CORS and rate-limit posture.
func NewRouter(handler *Handler, apiCfg *config.APIConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddlewareFromConfig(apiCfg),
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler shape, so the handler-func middleware in
// internal/middleware can sit in r.Use chains.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup builds the full route tree. The returned handler is what the HTTP
// server serves; nothing registers routes after this.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight

	// ========================
	// Health Endpoints
	// ========================
	// Permissive limit: orchestrators and uptime monitors probe these often.
	r.Route("/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Screen Event Channel
	// ========================
	// Players connect here; limit bounds reconnect storms per source IP.
	r.With(router.chiMiddleware.RateLimitCustom(RateLimitWebSocket)).
		Get("/ws", router.handler.WebSocket)

	// ========================
	// Static Video Streaming
	// ========================
	r.With(router.chiMiddleware.RateLimitCustom(RateLimitVideo)).
		Get("/video/{filename}", router.handler.VideoFile)

	// ========================
	// Control Plane API
	// ========================
	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(router.handler.perfMon.Middleware)
		r.Use(TenantResolver())

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", router.handler.ListClients)
			r.Post("/", router.handler.CreateClient)
			r.Get("/{id}", router.handler.GetClient)
			r.Put("/{id}", router.handler.UpdateClient)
			r.Delete("/{id}", router.handler.DeleteClient)
		})

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", router.handler.ListLocations)
			r.Post("/", router.handler.CreateLocation)
			r.Get("/{id}", router.handler.GetLocation)
			r.Put("/{id}", router.handler.UpdateLocation)
			r.Delete("/{id}", router.handler.DeleteLocation)
			r.Post("/{id}/screens", router.handler.AssignScreensToLocation)
			r.With(router.chiMiddleware.RateLimitCustom(RateLimitPush)).
				Post("/{id}/push", router.handler.PushToLocation)
		})

		r.Route("/screens", func(r chi.Router) {
			r.Get("/", router.handler.ListScreens)
			r.Post("/", router.handler.CreateScreen)
			r.Get("/{id}", router.handler.GetScreen)
			r.Put("/{id}", router.handler.UpdateScreen)
			r.Delete("/{id}", router.handler.DeleteScreen)
			r.Post("/{id}/mode", router.handler.ForceScreenMode)
			r.Get("/{id}/screenshot", router.handler.GetScreenScreenshot)
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", router.handler.ListPlaylists)
			r.Post("/", router.handler.CreatePlaylist)
			r.Get("/{id}", router.handler.GetPlaylist)
			r.Put("/{id}", router.handler.UpdatePlaylist)
			r.Delete("/{id}", router.handler.DeletePlaylist)
			r.With(router.chiMiddleware.RateLimitCustom(RateLimitPush)).
				Post("/{id}/push", router.handler.PushPlaylist)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", router.handler.ListSchedules)
			r.Post("/", router.handler.CreateSchedule)
			r.Get("/{id}", router.handler.GetSchedule)
			r.Put("/{id}", router.handler.UpdateSchedule)
			r.Delete("/{id}", router.handler.DeleteSchedule)
		})

		r.Route("/sync-groups", func(r chi.Router) {
			r.Get("/", router.handler.ListSyncGroups)
			r.Post("/", router.handler.CreateSyncGroup)
			r.Get("/{id}", router.handler.GetSyncGroup)
			r.Put("/{id}", router.handler.UpdateSyncGroup)
			r.Delete("/{id}", router.handler.DeleteSyncGroup)
			r.Post("/{id}/play", router.handler.PlaySyncGroup)
			r.Post("/{id}/stop", router.handler.StopSyncGroup)
			r.Post("/{id}/seek", router.handler.SeekSyncGroup)
			r.Post("/{id}/identify", router.handler.IdentifySyncGroup)
			r.Post("/{id}/screenshot", router.handler.ScreenshotSyncGroup)
			r.Get("/{id}/status", router.handler.SyncGroupStatus)
			r.Post("/{id}/screens", router.handler.AttachScreensToSyncGroup)
			r.Delete("/{id}/screens/{screenId}", router.handler.DetachScreenFromSyncGroup)
		})

		// Generic push bus surface. Tighter limit: each call fans out to
		// potentially every connected screen.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitPush))
			r.Post("/push", router.handler.Push)
			r.Post("/push/widget", router.handler.PushWidget)
			r.Post("/push/alert", router.handler.PushAlert)
			r.Post("/push/clear", router.handler.PushClear)
			r.Post("/reload-all", router.handler.ReloadAll)
		})

		r.Route("/context", func(r chi.Router) {
			r.Get("/", router.handler.ListContexts)
			r.Get("/{locationId}", router.handler.GetContext)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", router.handler.GetSettings)
			r.Put("/", router.handler.UpdateSettings)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", router.handler.DashboardStats)
			r.Get("/events", router.handler.DashboardEvents)
			r.Get("/performance", router.handler.DashboardPerformance)
		})

		r.Route("/announcements", func(r chi.Router) {
			r.Get("/", router.handler.ListAnnouncements)
			r.Post("/", router.handler.CreateAnnouncement)
			r.Get("/{id}", router.handler.GetAnnouncement)
			r.Put("/{id}", router.handler.UpdateAnnouncement)
			r.Delete("/{id}", router.handler.DeleteAnnouncement)
		})

		r.Route("/content", func(r chi.Router) {
			r.Get("/widgets", router.handler.ListWidgets)
			r.Get("/templates", router.handler.ListTemplates)
			r.Get("/videos", router.handler.ListVideos)
		})
	})

	return r
}
