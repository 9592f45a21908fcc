// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

import (
	"time"
)

// Playlist item content types.
const (
	ContentTypeVideo    = "video"
	ContentTypeTemplate = "template"
	ContentTypeWidget   = "widget"
	ContentTypeURL      = "url"
)

// Item duration bounds in seconds.
const (
	MinItemDuration = 5
	MaxItemDuration = 600
)

// Playlist is an ordered content sequence. The sync engine walks Items in
// order, holding each for its Duration, wrapping when Loop allows.
type Playlist struct {
	ID          string `json:"id"`
	ClientID    string `json:"client_id"`
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description,omitempty"`

	Items []PlaylistItem `json:"items" validate:"dive"`

	Loop       bool   `json:"loop"`
	Transition string `json:"transition,omitempty" validate:"omitempty,oneof=fade slide none"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlaylistItem is one entry in a playlist. Exactly which of ContentID /
// URL / Widget is set depends on ContentType; Config is passed opaquely
// to the player.
type PlaylistItem struct {
	ContentType string                 `json:"contentType" validate:"required,oneof=video template widget url"`
	ContentID   string                 `json:"contentId,omitempty"`
	URL         string                 `json:"url,omitempty"`
	Widget      string                 `json:"widget,omitempty"`
	Config      map[string]interface{} `json:"config,omitempty"`
	Duration    int                    `json:"duration" validate:"required,min=5,max=600"`
	Name        string                 `json:"name,omitempty"`
}

// IsEmpty reports whether the playlist has no items. Playing an empty
// playlist is rejected with EMPTY_PLAYLIST.
func (p *Playlist) IsEmpty() bool {
	return len(p.Items) == 0
}
