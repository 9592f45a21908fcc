// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

import (
	"time"
)

// Announcement priorities.
const (
	AnnouncementPriorityNormal = "normal"
	AnnouncementPriorityHigh   = "high"
	AnnouncementPriorityUrgent = "urgent"
)

// Announcement is a notice board entry rendered by widget templates.
// A nil LocationID means the announcement is global to the tenant.
type Announcement struct {
	ID         string `json:"id"`
	ClientID   string `json:"client_id"`
	LocationID string `json:"location_id,omitempty"`

	Title    string `json:"title" validate:"required,min=1,max=300"`
	Message  string `json:"message" validate:"required"`
	Icon     string `json:"icon,omitempty"`
	Priority string `json:"priority" validate:"omitempty,oneof=normal high urgent"`
	Active   bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
