// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

/*
Package middleware provides HTTP middleware for the control plane API.

The components here are handler-func middleware (func(http.HandlerFunc)
http.HandlerFunc) so they compose with both plain net/http and, through a
small adapter, with chi's r.Use chains. The API router mounts them under
/api; the WebSocket and static video routes skip them.

Key Components:

  - RequestID: X-Request-ID header plus context value for tracing a
    dispatch from HTTP request to hub send
  - PrometheusMetrics: request count, duration and in-flight gauge,
    labelled by matched route pattern
  - Compression: gzip for dashboard listings
  - PerformanceMonitor: sliding-window latency percentiles served on
    /api/dashboard/performance

Usage:

	perfMon := middleware.NewPerformanceMonitor(1000)

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(chiMiddleware(middleware.Compression))
	r.Use(perfMon.Middleware)

Thread Safety:

All middleware here is safe for concurrent requests: compression pools
gzip writers, the performance monitor guards its window with a RWMutex,
request IDs live in immutable context values, and Prometheus collectors
are atomic.

See Also:

  - internal/api: the router that mounts this stack
  - internal/metrics: Prometheus collector definitions
*/
package middleware
