// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

// Package api is the HTTP surface of the control plane: tenant and
// catalogue CRUD, the push endpoints, sync group controls, the mood
// context feed, dashboards, the content catalogue, and the screen
// WebSocket channel.
//
// Every JSON endpoint answers the same envelope:
//
//	{"success": true,  "data": ...}
//	{"success": false, "error": {"code": "...", "message": "...", "details": ...}}
//
// Requests resolve their tenant from the X-Client-Id header or the
// client_id query parameter, defaulting to the bootstrap tenant;
// ?all_clients=true bypasses scoping for fleet-wide views.
//
// Routing is chi with go-chi/cors and go-chi/httprate; handlers stay
// thin and delegate to the registry, sync engine, schedule evaluator,
// mood engine and database packages.
package api
