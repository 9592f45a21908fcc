// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

/*
Package websocket provides the bidirectional screen channel.

Every player device holds one persistent WebSocket to the control plane.
The hub tracks those connections, keyed by the screen id each player
self-reports in its first player:register frame, and delivers typed
frames to one screen, a set of screens, or all of them. Inbound frames
(registration, heartbeats, sync acks, screenshots, mode reports) are
decoded on the read pump and handed to the ScreenEvents sink, which the
registry implements; the hub itself never touches persistence.

Key Components:

  - Hub: connection table with targeted send, fan-out, and broadcast
  - Conn: one WebSocket connection with read/write goroutines
  - Frame: typed message unit, see frames.go for the full vocabulary

Architecture:

	          ┌─────────┐
	 Send ───►│   Hub   │◄─── player frames via ScreenEvents
	          └────┬────┘
	               │ bounded per-screen queues
	    ┌──────────┼──────────┐
	    │          │          │
	 lobby-1    garage-2   wall-a ...

Each connection has two goroutines:
  - readPump: decodes inbound frames, dispatches to ScreenEvents,
    owns connection teardown
  - writePump: drains the outbound queue, keeps the socket alive
    with pings

Backpressure:

The dispatcher never blocks on a slow screen. Every connection has a
bounded outbound queue (default 64 frames); when it overflows, the
oldest queued frame is dropped and counted against the screen. Slow
players lose stale frames, never the freshest state.

Connection Lifecycle:

 1. Player connects via HTTP upgrade on /ws
 2. Hub tracks the anonymous connection
 3. Player sends player:register; the registry persists the screen and
    binds the connection to its id
 4. A newer registration for the same id closes and replaces the older
    channel
 5. On read error or shutdown the connection is dropped and a disconnect
    event fires for the registry to flip status

Thread Safety:

The hub mutex guards the connection tables and excludes queue closes
from in-flight sends; channel operations coordinate the pump goroutines.

See Also:

  - github.com/gorilla/websocket: underlying WebSocket library
  - internal/registry: ScreenEvents implementation and push bus
  - internal/playout: sync tick fan-out over this channel
*/
package websocket
