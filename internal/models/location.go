// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

import (
	"time"
)

// Location represents a physical site. Screens are optionally pinned to a
// location, and the mood engine keys its per-site vectors by location id.
//
// Timezone must be a valid IANA zone name (e.g. "Europe/Amsterdam"); the
// schedule evaluator resolves "HH:MM" windows in the target's zone, falling
// back to this field.
type Location struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Address  string `json:"address,omitempty"`

	Latitude  float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`

	Timezone string `json:"timezone" validate:"required,timezone"`

	// Config is an opaque site blob: capacity, features[], rates[], rules[],
	// contact, operatingHours {open, close}, and optional moodSources
	// overriding the global collector endpoints for this site.
	Config map[string]interface{} `json:"config,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OperatingHours returns the site's open/close window in "HH:MM" form,
// or zero values when not configured.
func (l *Location) OperatingHours() (open, close string) {
	if l.Config == nil {
		return "", ""
	}
	hours, ok := l.Config["operatingHours"].(map[string]interface{})
	if !ok {
		return "", ""
	}
	open, _ = hours["open"].(string)
	close, _ = hours["close"].(string)
	return open, close
}

// MoodSource returns the per-location override endpoint for a named
// collector ("weather", "audio", "occupancy", "security", "peopleCount"),
// or "" when the global default applies.
func (l *Location) MoodSource(collector string) string {
	if l.Config == nil {
		return ""
	}
	sources, ok := l.Config["moodSources"].(map[string]interface{})
	if !ok {
		return ""
	}
	url, _ := sources[collector].(string)
	return url
}
