// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

/*
Package main is the entry point for the signage control plane server.

The control plane manages fleets of display devices for multiple tenants:
screen registration and liveness, targeted content pushes, frame-accurate
synchronized playout across video walls, time-window schedules, and an
ambient "mood" context engine that lets content react to weather, noise
and occupancy signals.

# Application Architecture

The server implements a layered architecture with Suture v4 process supervision:

	RootSupervisor ("signage")
	├── StorageSupervisor ("storage-layer")
	│   ├── Event pipeline (optional, embedded NATS JetStream)
	│   └── Screenshot store GC (BadgerDB value log)
	├── ScreensSupervisor ("screens-layer")
	│   ├── WebSocket Hub (screen channels)
	│   ├── Offline scanner (liveness sweep)
	│   ├── Schedule evaluator (time windows)
	│   └── Mood engine (ambient context, optional)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST API + /ws + /metrics)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB catalogue, bootstrap tenant seeding
 4. WebSocket Hub: screen channels for dispatch and telemetry
 5. Screenshot Store: BadgerDB capture cache with TTL expiry
 6. Event Pipeline: embedded NATS JetStream lifecycle feed (optional)
 7. Registry + Playout: screen catalogue, push bus, sync engine
 8. Schedule Evaluator + Mood Engine: time- and signal-driven content
 9. Supervisor Tree: Suture v4 process supervision
 10. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_PORT=3400               # HTTP server port
	HTTP_HOST=0.0.0.0            # Bind address
	MAX_SCREENS=1000             # Connected screen cap
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Storage
	DUCKDB_PATH=/data/signage.duckdb
	CACHE_DIR=/data/cache        # BadgerDB screenshot cache

	# Events (embedded NATS JetStream)
	EVENTS_ENABLED=true
	NATS_EMBEDDED=true
	NATS_URL=nats://127.0.0.1:4222

	# Mood engine
	MOOD_ENABLED=false
	WEATHER_URL=<collector endpoint>

See internal/config for the complete reference.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Closes screen WebSocket channels
 3. Waits for in-flight requests (10s timeout)
 4. Drains the schedule evaluator, scanner and mood engine
 5. Closes the event pipeline, screenshot store and database
 6. Reports any services that failed to stop

# Usage Examples

Development:

	export LOG_FORMAT=console
	export DUCKDB_PATH=./signage.duckdb
	go run ./cmd/server

Production:

	export DUCKDB_PATH=/data/signage.duckdb
	export CACHE_DIR=/data/cache
	export NATS_STORE_DIR=/data/jetstream
	./signage

Docker:

	docker run -d \
	  -v signage-data:/data \
	  -p 3400:3400 \
	  ghcr.io/parkwise/signage

# API Surface

The API provides REST endpoints organized into categories:

  - Core: Health checks, dashboard statistics, event feed
  - Fleet: Screens, locations, sync groups, push bus
  - Content: Playlists, widget/template catalogue, video library
  - Scheduling: Schedules with evaluator-applied windows
  - Context: Per-location mood vectors
  - WebSocket: /ws player channel (register, heartbeat, dispatch)
  - Metrics: Prometheus exposition at /metrics

All fleet endpoints are tenant-scoped via the X-Client-Id header.

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/registry: Screen catalogue and push bus
  - internal/playout: Synchronized playout engine
*/
package main
