// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

// DashboardStats is the denormalised count block behind
// GET /api/dashboard/stats. All counts are scoped to the calling tenant
// unless all_clients bypass is set.
type DashboardStats struct {
	Clients       int `json:"clients"`
	Locations     int `json:"locations"`
	Playlists     int `json:"playlists"`
	Announcements int `json:"announcements"`

	Screens struct {
		Total     int `json:"total"`
		Online    int `json:"online"`
		Offline   int `json:"offline"`
		Connected int `json:"connected"`
	} `json:"screens"`

	Schedules struct {
		Total   int `json:"total"`
		Enabled int `json:"enabled"`
	} `json:"schedules"`

	SyncGroups struct {
		Total   int `json:"total"`
		Playing int `json:"playing"`
	} `json:"syncGroups"`

	DroppedMessages int64 `json:"droppedMessages"`
	UptimeSeconds   int64 `json:"uptimeSeconds"`
}

// ContentItem is one entry of the content catalogue listings
// (/api/content/{widgets,templates,videos}).
type ContentItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	URL         string `json:"url,omitempty"`
}
