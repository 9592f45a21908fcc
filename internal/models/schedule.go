// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

import (
	"time"
)

// ScheduleTargetAll is the screenTarget literal matching every screen of
// the schedule's tenant.
const ScheduleTargetAll = "all"

// Schedule activates a playlist on a target during a daily time window.
//
// StartTime and EndTime are "HH:MM" wall-clock strings resolved in the
// target's timezone (the screen's location zone, else the server zone).
// Windows never cross midnight: startTime must be <= endTime, and a
// schedule meant to span midnight is expressed as two rows.
//
// Days uses 0=Sunday .. 6=Saturday. Higher Priority wins among
// simultaneously matching schedules; ties go to the most recently created.
type Schedule struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name,omitempty"`

	PlaylistID   string `json:"playlistId" validate:"required"`
	ScreenTarget string `json:"screenTarget" validate:"required"`

	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
	Days      []int  `json:"days" validate:"required,min=1,dive,min=0,max=6"`

	Priority int  `json:"priority"`
	Enabled  bool `json:"enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MatchesDay reports whether weekday (0=Sunday) is in the schedule's day set.
func (s *Schedule) MatchesDay(weekday int) bool {
	for _, d := range s.Days {
		if d == weekday {
			return true
		}
	}
	return false
}

// MatchesClock reports whether the "HH:MM" clock value falls inside the
// window, boundaries inclusive. "HH:MM" strings compare correctly as
// plain strings because both fields are zero-padded.
func (s *Schedule) MatchesClock(clock string) bool {
	return s.StartTime <= clock && clock <= s.EndTime
}
