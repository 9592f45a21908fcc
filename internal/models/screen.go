// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

import (
	"time"
)

// Screen status values.
const (
	ScreenStatusOnline  = "online"
	ScreenStatusOffline = "offline"
)

// Screen modes. Every screen boots into signage mode; interactive mode is
// entered via forceMode or reported by the player on touch activity.
const (
	ModeSignage     = "signage"
	ModeInteractive = "interactive"
)

// Screen represents a display endpoint. The id is a stable identifier the
// screen self-reports on connect, so registration is an upsert keyed by it.
//
// LastSeen is epoch milliseconds; a screen whose last_seen trails now by
// more than the offline threshold is flipped to status=offline by the
// registry's scanner.
//
// CurrentMode and Connected are runtime-only: they live in the registry's
// in-memory maps and are stitched onto rows at read time, never persisted.
type Screen struct {
	ID       string `json:"id" validate:"required,min=1,max=128"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`

	// GroupID is a free-form tag for ad-hoc targeting; SyncGroup references
	// a Sync Group row. Both resolve as group targets on the push bus.
	GroupID    string `json:"group_id,omitempty"`
	LocationID string `json:"location_id,omitempty"`
	SyncGroup  string `json:"sync_group,omitempty"`

	Type     string `json:"type,omitempty"`
	Status   string `json:"status" validate:"omitempty,oneof=online offline"`
	LastSeen int64  `json:"last_seen"`

	Platform     string                 `json:"platform,omitempty"`
	Resolution   string                 `json:"resolution,omitempty"`
	Orientation  string                 `json:"orientation,omitempty"`
	Capabilities map[string]interface{} `json:"capabilities,omitempty"`
	Config       map[string]interface{} `json:"config,omitempty"`

	// SyncPosition orders members within a sync group. Assigned max+1 on
	// attach so complementary offsets stay deterministic across restarts.
	SyncPosition int `json:"sync_position,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Runtime-only, populated from the connected-screen and mode maps.
	CurrentMode string `json:"currentMode,omitempty"`
	Connected   bool   `json:"connected"`
}

// IsOnline reports whether the persisted status is online.
func (s *Screen) IsOnline() bool {
	return s.Status == ScreenStatusOnline
}

// ScreenFilter narrows listScreens results. Zero values match everything.
type ScreenFilter struct {
	ClientID   string
	LocationID string
	GroupID    string
	SyncGroup  string
	Status     string
	AllClients bool
}

// ScreenRegistration is the payload a screen self-reports on connect and
// the body accepted by POST /api/screens.
type ScreenRegistration struct {
	ID           string                 `json:"id" validate:"required,min=1,max=128"`
	Name         string                 `json:"name"`
	ClientID     string                 `json:"client_id"`
	GroupID      string                 `json:"group_id"`
	LocationID   string                 `json:"location_id"`
	Type         string                 `json:"type"`
	Platform     string                 `json:"platform"`
	Resolution   string                 `json:"resolution"`
	Orientation  string                 `json:"orientation"`
	Capabilities map[string]interface{} `json:"capabilities"`
}

// ScreenPatch carries the mutable fields for updateScreen. Pointer fields
// distinguish "absent" from "set to zero value". Identity and liveness
// fields (id, client_id, status, last_seen) are not patchable.
type ScreenPatch struct {
	Name       *string                 `json:"name,omitempty"`
	GroupID    *string                 `json:"group_id,omitempty"`
	LocationID *string                 `json:"location_id,omitempty"`
	Type       *string                 `json:"type,omitempty"`
	Config     *map[string]interface{} `json:"config,omitempty"`
}
