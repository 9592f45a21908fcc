// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package websocket

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
// This enables clear observability in logs and metrics.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	// This may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// DefaultQueueSize bounds a screen's outbound queue when the config does
// not say otherwise. Overflow drops the oldest queued frame.
const DefaultQueueSize = 64

// ScreenEvents receives inbound player traffic decoded by the read pumps.
// The registry implements it; the hub stays pure connection plumbing and
// never touches the database itself.
//
// Callbacks run on the read pump goroutine of the originating connection,
// so implementations must not block for long.
type ScreenEvents interface {
	// ScreenRegistered fires on player:register. The implementation is
	// expected to persist the screen and bind the connection via BindScreen.
	ScreenRegistered(conn *Conn, reg *RegisterFrame)

	// ScreenHeartbeat fires on player:heartbeat.
	ScreenHeartbeat(hb *HeartbeatFrame)

	// ScreenReady fires on player:ready.
	ScreenReady(screenID, groupID string)

	// SyncAcked fires on sync:ack.
	SyncAcked(screenID, groupID string, itemIndex int)

	// ScreenshotReceived fires on screenshot:response with the base64 image.
	ScreenshotReceived(screenID, image string)

	// ModeReported fires on screens:mode-update from a screen.
	ModeReported(screenID, mode string)

	// ScreenDisconnected fires when a bound connection goes away for any
	// reason: read error, replacement by a newer connection, or shutdown.
	ScreenDisconnected(screenID string)
}

// Hub tracks live screen channels. Connections are anonymous until their
// player:register frame binds them to a screen id; only bound connections
// receive frames. One screen id maps to at most one connection: a newer
// register replaces and closes the older channel.
type Hub struct {
	queueSize int

	mu      sync.RWMutex
	conns   map[*Conn]struct{} // every live connection, bound or not
	screens map[string]*Conn   // bound connections by screen id

	events  ScreenEvents
	dropped atomic.Int64
}

// NewHub creates a hub. queueSize bounds each screen's outbound queue;
// zero or negative falls back to DefaultQueueSize.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		queueSize: queueSize,
		conns:     make(map[*Conn]struct{}),
		screens:   make(map[string]*Conn),
	}
}

// SetEvents wires the inbound traffic sink. Must be called before the
// first connection is served.
func (h *Hub) SetEvents(ev ScreenEvents) {
	h.events = ev
}

// RunWithContext blocks until the context is canceled, then closes every
// live channel. Designed for suture supervision: a restart reinstalls a
// clean connection table and screens re-register on reconnect.
func (h *Hub) RunWithContext(ctx context.Context) error {
	<-ctx.Done()
	h.logGracefulShutdown(ctx)
	return ctx.Err()
}

// logGracefulShutdown closes all connections and logs structured shutdown
// information. Context cancellation is expected behavior, so no error
// field is logged.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	closed := h.closeAllConns()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("connections_closed", closed).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// Track registers a freshly upgraded, still-anonymous connection so that
// shutdown can close it even if it never registers.
func (h *Hub) Track(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

// BindScreen associates a connection with a screen id after a successful
// registration. An existing channel for the same id is closed and
// replaced; its read pump will observe the close and exit without firing
// a disconnect for the new binding. Returns whether a channel was replaced.
func (h *Hub) BindScreen(screenID, clientID string, c *Conn) bool {
	h.mu.Lock()

	old, replaced := h.screens[screenID]
	if replaced && old != c {
		// Mark the loser so its pump teardown does not unbind the new conn.
		old.screenID = ""
		delete(h.conns, old)
		old.closeSend()
	}

	c.screenID = screenID
	c.clientID = clientID
	h.screens[screenID] = c
	total := len(h.screens)
	h.mu.Unlock()

	metrics.ScreensConnected.Set(float64(total))
	logging.Info().
		Str("screen_id", screenID).
		Str("client_id", clientID).
		Bool("replaced", replaced).
		Int("connected", total).
		Msg("screen channel bound")
	return replaced
}

// drop removes a connection after its read pump exits. Returns the screen
// id the connection was bound to, or "" if it was anonymous or already
// replaced.
func (h *Hub) drop(c *Conn) string {
	h.mu.Lock()
	delete(h.conns, c)

	screenID := c.screenID
	if screenID != "" && h.screens[screenID] == c {
		delete(h.screens, screenID)
	} else {
		screenID = ""
	}
	total := len(h.screens)
	c.closeSend()
	h.mu.Unlock()

	metrics.ScreensConnected.Set(float64(total))
	if screenID != "" {
		logging.Info().
			Str("screen_id", screenID).
			Int("connected", total).
			Msg("screen channel dropped")
	}
	return screenID
}

// CloseScreen force-closes a screen's channel, used when the screen row
// is deleted. The binding is cleared before the close so the pump
// teardown stays anonymous and no disconnect event fires for a screen
// that no longer exists. Returns whether a channel was found.
func (h *Hub) CloseScreen(screenID string) bool {
	h.mu.Lock()
	c, ok := h.screens[screenID]
	if ok {
		c.screenID = ""
		delete(h.screens, screenID)
		delete(h.conns, c)
		c.closeSend()
	}
	total := len(h.screens)
	h.mu.Unlock()

	if ok {
		metrics.ScreensConnected.Set(float64(total))
		logging.Info().
			Str("screen_id", screenID).
			Int("connected", total).
			Msg("screen channel force-closed")
	}
	return ok
}

// closeAllConns closes every live channel in deterministic id order.
func (h *Hub) closeAllConns() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].id < conns[j].id })

	for _, c := range conns {
		c.closeSend()
		delete(h.conns, c)
		if c.screenID != "" && h.screens[c.screenID] == c {
			delete(h.screens, c.screenID)
		}
	}
	metrics.ScreensConnected.Set(0)
	return len(conns)
}

// Send enqueues one frame for one screen. Returns false when the screen
// has no bound channel; a full queue drops the oldest queued frame rather
// than blocking the caller.
func (h *Hub) Send(screenID string, f Frame) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.screens[screenID]
	if !ok {
		return false
	}
	return h.enqueue(c, f)
}

// SendMany enqueues one frame for each listed screen, skipping absent
// channels, and returns how many screens actually got it queued.
func (h *Hub) SendMany(screenIDs []string, f Frame) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, id := range screenIDs {
		if c, ok := h.screens[id]; ok && h.enqueue(c, f) {
			sent++
		}
	}
	return sent
}

// Broadcast enqueues one frame for every bound screen in deterministic
// order and returns the recipient count.
func (h *Hub) Broadcast(f Frame) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.screens))
	for id := range h.screens {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sent := 0
	for _, id := range ids {
		if h.enqueue(h.screens[id], f) {
			sent++
		}
	}
	return sent
}

// enqueue pushes a frame onto a connection's bounded queue with
// drop-oldest overflow. Callers hold h.mu (read or write), which excludes
// closeSend, so the channel cannot be closed mid-send.
func (h *Hub) enqueue(c *Conn, f Frame) bool {
	select {
	case c.send <- f:
		metrics.RecordFrameSent(f.Type)
		return true
	default:
	}

	// Queue full: evict the oldest queued frame and retry once.
	select {
	case <-c.send:
		h.dropped.Add(1)
		metrics.RecordQueueDrop(c.screenID)
	default:
	}

	select {
	case c.send <- f:
		metrics.RecordFrameSent(f.Type)
		return true
	default:
		h.dropped.Add(1)
		metrics.RecordQueueDrop(c.screenID)
		return false
	}
}

// IsConnected reports whether a screen has a bound channel.
func (h *Hub) IsConnected(screenID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.screens[screenID]
	return ok
}

// ConnectedIDs returns the bound screen ids in sorted order.
func (h *Hub) ConnectedIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.screens))
	for id := range h.screens {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ConnectedCount returns the number of bound screens.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.screens)
}

// DroppedTotal returns the lifetime count of frames dropped to overflow.
func (h *Hub) DroppedTotal() int64 {
	return h.dropped.Load()
}
