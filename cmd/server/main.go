// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

// Package main is the entry point for the signage control plane server.
//
// The server owns the screen registry, the push bus, synchronized playout,
// the schedule evaluator and the ambient context engine for a fleet of
// display devices, multi-tenant from the ground up.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB and seed the bootstrap tenant
//  3. WebSocket Hub: screen channels for dispatch and telemetry
//  4. Screenshot Store: BadgerDB capture cache with TTL expiry
//  5. Event Pipeline (optional): embedded NATS JetStream lifecycle feed
//  6. Registry + Playout: screen catalogue, push bus, sync engine
//  7. Schedule Evaluator + Mood Engine: time- and signal-driven content
//  8. HTTP Server: REST API, metrics and the /ws upgrade endpoint
//
// All long-running pieces run under a suture v4 supervisor tree; see
// internal/supervisor for the layer layout.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes screen channels, the event pipeline and the database
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Schedules and locations validate IANA zone names; embed the zone
	// database so minimal containers resolve them.
	_ "time/tzdata"

	"github.com/parkwise/signage/internal/api"
	"github.com/parkwise/signage/internal/config"
	"github.com/parkwise/signage/internal/database"
	"github.com/parkwise/signage/internal/events"
	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/mood"
	"github.com/parkwise/signage/internal/playout"
	"github.com/parkwise/signage/internal/registry"
	"github.com/parkwise/signage/internal/schedule"
	"github.com/parkwise/signage/internal/supervisor"
	"github.com/parkwise/signage/internal/supervisor/services"
	ws "github.com/parkwise/signage/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting signage control plane with supervisor tree")

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Bool("events_enabled", cfg.Events.Enabled).
		Bool("mood_enabled", cfg.Mood.Enabled).
		Msg("Configuration loaded")

	// Initialize database; this also seeds the bootstrap tenant and the
	// default settings rows.
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	// Create supervisor tree
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Create WebSocket hub for screen channels (before the registry, which
	// binds connections to screens through it)
	hub := ws.NewHub(cfg.Registry.SendQueueSize)

	// Screenshot capture cache. Optional: a failure here costs the
	// screenshot endpoints, nothing else.
	shots, err := registry.NewScreenshotStore(cfg.Cache.Dir, cfg.Cache.ScreenshotTTL)
	if err != nil {
		logging.Warn().Err(err).Str("dir", cfg.Cache.Dir).Msg("Screenshot store unavailable, captures disabled")
		shots = nil
	} else {
		defer func() {
			if err := shots.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing screenshot store")
			}
		}()
	}

	// Event pipeline: embedded NATS JetStream feed of lifecycle events.
	// The pipeline's Close tears down the broker connection, so it stays
	// out of the supervisor; only the consumer loop is supervised.
	var bus events.Bus
	var pipeline *events.Pipeline
	if cfg.Events.Enabled {
		pipeline, err = events.NewPipeline(ctx, &cfg.Events, db, hub)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize event pipeline")
		}
		defer func() {
			if err := pipeline.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event pipeline")
			}
		}()
		bus = pipeline.Bus()
		logging.Info().
			Str("url", cfg.Events.URL).
			Bool("embedded", cfg.Events.EmbeddedServer).
			Msg("Event pipeline initialized")
	} else {
		logging.Info().Msg("Event pipeline disabled (EVENTS_ENABLED=false)")
	}

	// Registry owns the screen catalogue and the push bus. The hub feeds
	// it inbound player traffic.
	reg := registry.New(db, hub, shots, bus)
	hub.SetEvents(reg)

	// Playout engine drives synchronized playlists over group members and
	// consumes the registry's ready/ack hooks.
	engine := playout.New(db, hub, bus)
	reg.SetSyncHooks(engine)
	defer engine.Shutdown()

	// Schedule evaluator pushes content on schedule windows through the
	// same bus the API uses.
	evaluator := schedule.New(db, reg, bus, schedule.Config{
		Interval:      cfg.Schedule.Interval,
		MutationDelay: cfg.Schedule.MutationDelay,
	})

	// Mood engine interpolates ambient context vectors per location.
	var moodEngine *mood.Engine
	if cfg.Mood.Enabled {
		moodEngine = mood.New(db, hub, cfg.Mood)
	} else {
		logging.Info().Msg("Mood engine disabled (MOOD_ENABLED=false)")
	}

	handler := api.NewHandler(db, cfg, reg, engine, evaluator, moodEngine, hub, bus)
	router := api.NewRouter(handler, &cfg.API)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Offline scanner flips silent screens to offline and emits events.
	scanner := registry.NewScanner(reg, registry.ScannerConfig{
		Interval:  cfg.Registry.OfflineScanInterval,
		Threshold: cfg.Registry.OfflineThreshold,
	})

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Storage layer services
	if pipeline != nil {
		tree.AddStorageService(services.NewEventPipelineService(pipeline))
		logging.Info().Msg("Event pipeline added to supervisor tree")
	}
	if shots != nil {
		tree.AddStorageService(services.NewScreenshotGCService(shots))
	}

	// Screens layer services
	tree.AddScreenService(services.NewWebSocketHubService(hub))
	tree.AddScreenService(services.NewRunnerService("offline-scanner", scanner))
	tree.AddScreenService(services.NewRunnerService("schedule-evaluator", evaluator))
	if moodEngine != nil {
		tree.AddScreenService(services.NewRunnerService("mood-engine", moodEngine))
	}
	logging.Info().Msg("Screen services added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
