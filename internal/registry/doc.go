// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

// Package registry is the screen registry and push bus. It owns the
// authoritative screen catalogue, tracks which screens are reachable
// through the websocket hub, resolves push targets to connected screen
// sets, and delivers typed envelopes to them.
//
// The registry implements websocket.ScreenEvents, so every inbound
// player frame (register, heartbeat, ack, screenshot, mode report,
// disconnect) lands here and is reconciled against the database. The
// Scanner complements the live path: it periodically flips screens whose
// last_seen trails the offline threshold and closes their channels.
//
// Pushes are fire-and-forget. A target that resolves to zero connected
// screens is a success with zero recipients; a slow screen loses its
// oldest queued frame rather than blocking the dispatcher.
package registry
