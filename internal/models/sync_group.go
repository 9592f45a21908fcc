// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

import (
	"time"
)

// Sync group playback modes.
const (
	SyncModeMirror        = "mirror"
	SyncModeComplementary = "complementary"
	SyncModeSpan          = "span"
)

// SyncGroup is a set of screens that play together as one logical display.
// Membership lives on the screen rows (Screen.SyncGroup references this
// group's id); LeaderScreenID is advisory only and never affects dispatch.
type SyncGroup struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name" validate:"required,min=1,max=200"`

	Mode       string `json:"mode" validate:"required,oneof=mirror complementary span"`
	PlaylistID string `json:"playlist_id,omitempty"`

	LeaderScreenID string                 `json:"leader_screen_id,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncState is the runtime playback state of one group. It exists only
// while the group is playing; stop discards it entirely.
type SyncState struct {
	GroupID    string         `json:"groupId"`
	PlaylistID string         `json:"playlistId"`
	Mode       string         `json:"mode"`
	Playing    bool           `json:"playing"`
	ItemIndex  int            `json:"itemIndex"`
	StartedAt  int64          `json:"startedAt"` // epoch ms of the current item's start
	Items      []PlaylistItem `json:"items"`
}

// CurrentItem returns the item under the playhead. Callers must hold the
// engine lock; Items is never empty while playing.
func (s *SyncState) CurrentItem() PlaylistItem {
	return s.Items[s.ItemIndex]
}

// Viewport describes one screen's slice of a spanned canvas.
type Viewport struct {
	ScreenIndex  int `json:"screenIndex"`
	TotalScreens int `json:"totalScreens"`
}
