// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB; heartbeat screenshots are the largest inbound frames
)

// connIDCounter generates unique, monotonically increasing ids so
// shutdown can close connections in a deterministic order.
var connIDCounter atomic.Uint64

// Conn is a middleman between one websocket connection and the hub. It is
// anonymous until the screen's player:register frame binds it to an id.
type Conn struct {
	id   uint64
	hub  *Hub
	sock *websocket.Conn
	send chan Frame

	// screenID and clientID are set by Hub.BindScreen and guarded by the
	// hub mutex like the connection tables themselves.
	screenID string
	clientID string

	closeOnce sync.Once
}

// NewConn wraps an upgraded websocket connection.
func NewConn(hub *Hub, sock *websocket.Conn) *Conn {
	return &Conn{
		id:   connIDCounter.Add(1),
		hub:  hub,
		sock: sock,
		send: make(chan Frame, hub.queueSize),
	}
}

// ScreenID returns the bound screen id, or "" while anonymous.
func (c *Conn) ScreenID() string {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.screenID
}

// ClientID returns the bound tenant id, or "" while anonymous.
func (c *Conn) ClientID() string {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.clientID
}

// Start begins reading and writing for the connection.
func (c *Conn) Start() {
	go c.writePump()
	go c.readPump()
}

// closeSend closes the outbound queue exactly once. Callers must hold the
// hub mutex so no enqueue is in flight.
func (c *Conn) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump pumps frames from the websocket connection into the hub's
// ScreenEvents sink. It owns teardown: when the read side ends for any
// reason the connection is dropped and a disconnect event fires if the
// connection was bound.
func (c *Conn) readPump() {
	defer func() {
		screenID := c.hub.drop(c)
		_ = c.sock.Close() // best-effort cleanup
		if screenID != "" && c.hub.events != nil {
			c.hub.events.ScreenDisconnected(screenID)
		}
	}()

	c.sock.SetReadLimit(maxMessageSize)
	if err := c.sock.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame inboundFrame
		err := c.sock.ReadJSON(&frame)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Str("screen_id", c.ScreenID()).Msg("unexpected websocket close")
				metrics.RecordWSError("unexpected_close")
			}
			break
		}

		metrics.RecordFrameReceived(frame.Type)
		c.dispatch(frame)
	}
}

// dispatch decodes one inbound frame and routes it to the events sink.
// Unknown types are ignored so newer players can talk to older servers.
func (c *Conn) dispatch(frame inboundFrame) {
	ev := c.hub.events
	if ev == nil {
		return
	}

	switch frame.Type {
	case FramePlayerRegister:
		var reg RegisterFrame
		if !decodeFrame(frame, &reg) {
			return
		}
		if reg.ScreenID == "" {
			logging.Warn().Msg("player:register without screenId ignored")
			metrics.RecordWSError("register_missing_id")
			return
		}
		ev.ScreenRegistered(c, &reg)

	case FramePlayerHeartbeat:
		var hb HeartbeatFrame
		if !decodeFrame(frame, &hb) {
			return
		}
		if hb.ScreenID == "" {
			hb.ScreenID = c.ScreenID()
		}
		if hb.ScreenID == "" {
			return
		}
		ev.ScreenHeartbeat(&hb)

	case FramePlayerReady:
		var rd ReadyFrame
		if !decodeFrame(frame, &rd) {
			return
		}
		if rd.ScreenID == "" {
			rd.ScreenID = c.ScreenID()
		}
		ev.ScreenReady(rd.ScreenID, rd.GroupID)

	case FrameSyncAck:
		var ack AckFrame
		if !decodeFrame(frame, &ack) {
			return
		}
		if ack.ScreenID == "" {
			ack.ScreenID = c.ScreenID()
		}
		ev.SyncAcked(ack.ScreenID, ack.GroupID, ack.ItemIndex)

	case FrameScreenshotResponse:
		var shot ScreenshotFrame
		if !decodeFrame(frame, &shot) {
			return
		}
		if shot.ScreenID == "" {
			shot.ScreenID = c.ScreenID()
		}
		if shot.ScreenID == "" || shot.Image == "" {
			return
		}
		ev.ScreenshotReceived(shot.ScreenID, shot.Image)

	case FrameModeUpdate:
		var mode ModeFrame
		if !decodeFrame(frame, &mode) {
			return
		}
		if mode.ScreenID == "" {
			mode.ScreenID = c.ScreenID()
		}
		if mode.ScreenID == "" || mode.Mode == "" {
			return
		}
		ev.ModeReported(mode.ScreenID, mode.Mode)

	default:
		logging.Debug().Str("type", frame.Type).Msg("ignoring unknown inbound frame type")
	}
}

// decodeFrame unmarshals an inbound payload, logging and counting failures.
func decodeFrame(frame inboundFrame, v interface{}) bool {
	if len(frame.Data) == 0 {
		logging.Warn().Str("type", frame.Type).Msg("inbound frame without payload")
		metrics.RecordWSError("empty_payload")
		return false
	}
	if err := json.Unmarshal(frame.Data, v); err != nil {
		logging.Warn().Err(err).Str("type", frame.Type).Msg("failed to decode inbound frame")
		metrics.RecordWSError("decode_failed")
		return false
	}
	return true
}

// writePump pumps frames from the outbound queue to the websocket
// connection and keeps the channel alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.sock.Close() // best-effort cleanup
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the queue.
				if err := c.sock.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Debug().Err(err).Msg("failed to write close message")
				}
				return
			}

			if err := c.sock.WriteJSON(frame); err != nil {
				logging.Warn().Err(err).Str("screen_id", c.ScreenID()).Msg("failed to write frame")
				metrics.RecordWSError("write_failed")
				return
			}

		case <-ticker.C:
			if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
