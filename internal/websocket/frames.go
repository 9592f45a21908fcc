// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package websocket

import (
	json "github.com/goccy/go-json"
)

// Server -> screen frame types.
const (
	FrameContent           = "content"
	FrameSyncTick          = "sync:tick"
	FrameSyncSeek          = "sync:seek"
	FrameSyncState         = "sync:state"
	FrameCommandReload     = "command:reload"
	FrameCommandClear      = "command:clear"
	FrameCommandIdentify   = "command:identify"
	FrameCommandScreenshot = "command:screenshot"
	FrameCommandMode       = "command:mode"
	FrameContextMood       = "context:mood"
	FrameScreensUpdate     = "screens:update"
	FrameModeUpdate        = "screens:mode-update"
)

// Screen -> server frame types.
const (
	FramePlayerRegister     = "player:register"
	FramePlayerHeartbeat    = "player:heartbeat"
	FramePlayerReady        = "player:ready"
	FrameSyncAck            = "sync:ack"
	FrameScreenshotResponse = "screenshot:response"
)

// Frame is one typed message on a screen channel.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// inboundFrame defers payload decoding until the type is known.
type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// RegisterFrame is the payload of player:register. Screens self-report
// their identity and capabilities on every connect.
type RegisterFrame struct {
	ScreenID     string                 `json:"screenId"`
	Name         string                 `json:"name,omitempty"`
	ClientID     string                 `json:"clientId,omitempty"`
	GroupID      string                 `json:"groupId,omitempty"`
	LocationID   string                 `json:"locationId,omitempty"`
	Type         string                 `json:"type,omitempty"`
	Platform     string                 `json:"platform,omitempty"`
	Resolution   string                 `json:"resolution,omitempty"`
	Orientation  string                 `json:"orientation,omitempty"`
	Capabilities map[string]interface{} `json:"capabilities,omitempty"`
}

// HeartbeatFrame is the payload of player:heartbeat. CurrentItem and
// BufferHealth are advisory; Screenshot, when present, is a base64 image
// that replaces the screen's screenshot slot.
type HeartbeatFrame struct {
	ScreenID     string  `json:"screenId"`
	Status       string  `json:"status,omitempty"`
	CurrentItem  string  `json:"currentItem,omitempty"`
	BufferHealth float64 `json:"bufferHealth,omitempty"`
	Screenshot   string  `json:"screenshot,omitempty"`
}

// ReadyFrame is the payload of player:ready, sent when a screen has
// finished loading content and can take sync ticks.
type ReadyFrame struct {
	ScreenID string `json:"screenId"`
	GroupID  string `json:"groupId,omitempty"`
}

// AckFrame is the payload of sync:ack.
type AckFrame struct {
	ScreenID  string `json:"screenId"`
	GroupID   string `json:"groupId"`
	ItemIndex int    `json:"itemIndex"`
}

// ScreenshotFrame is the payload of screenshot:response. Image is base64.
type ScreenshotFrame struct {
	ScreenID string `json:"screenId"`
	Image    string `json:"image"`
}

// ModeFrame is the payload of screens:mode-update in both directions:
// screens report a transition, the hub rebroadcasts the accepted state.
type ModeFrame struct {
	ScreenID string `json:"screenId"`
	Mode     string `json:"mode"`
}

// MarshalFrame converts a frame to JSON.
func MarshalFrame(f Frame) ([]byte, error) {
	return json.Marshal(f)
}
