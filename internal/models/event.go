// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

import (
	"time"
)

// Control-plane event types published on the message bus and persisted to
// the events table for the dashboard activity feed.
const (
	EventScreenRegistered  = "screen.registered"
	EventScreenOnline      = "screen.online"
	EventScreenOffline     = "screen.offline"
	EventScreenDeleted     = "screen.deleted"
	EventRegistryChanged   = "registry.changed"
	EventDispatchSent      = "dispatch.sent"
	EventSyncPlayback      = "syncgroup.playback"
	EventScheduleApplied   = "schedule.applied"
)

// Event is one control-plane occurrence. Payload is event-type-specific.
type Event struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	ClientID string                 `json:"client_id,omitempty"`
	Subject  string                 `json:"subject,omitempty"` // screen/group/schedule id the event is about
	Payload  map[string]interface{} `json:"payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
