// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

// MoodVector is the seven-axis ambience vector derived per location.
// Every component lives in [0,1].
type MoodVector struct {
	Energy     float64 `json:"energy"`
	Warmth     float64 `json:"warmth"`
	Urgency    float64 `json:"urgency"`
	Density    float64 `json:"density"`
	Tempo      float64 `json:"tempo"`
	Brightness float64 `json:"brightness"`
	Formality  float64 `json:"formality"`
}

// DefaultMoodVector is the neutral baseline: all axes 0.5 except urgency
// (nothing is urgent by default) and density (spaces read emptier than
// half-full).
func DefaultMoodVector() MoodVector {
	return MoodVector{
		Energy:     0.5,
		Warmth:     0.5,
		Urgency:    0.0,
		Density:    0.3,
		Tempo:      0.5,
		Brightness: 0.5,
		Formality:  0.5,
	}
}

// Signals is the raw per-location signal bag collectors fill in. Pointer
// fields distinguish "no reading" from a zero reading; the processor
// skips absent signals entirely.
type Signals struct {
	// Weather
	TemperatureC *float64 `json:"temperatureC,omitempty"`
	Condition    string   `json:"condition,omitempty"`

	// Wall clock at the location
	LocalHour *int   `json:"localHour,omitempty"`
	IsWeekend *bool  `json:"isWeekend,omitempty"`
	Period    string `json:"period,omitempty"` // dawn .. night
	Season    string `json:"season,omitempty"`

	// Audio analysis
	AudioLevel     *float64 `json:"audioLevel,omitempty"`     // 0..1
	SpikeFrequency *float64 `json:"spikeFrequency,omitempty"` // 0..1
	SustainedLoud  bool     `json:"sustainedLoud,omitempty"`

	// Occupancy
	OccupancyRatio *float64 `json:"occupancyRatio,omitempty"` // 0..1 of capacity
	EntryRate      *float64 `json:"entryRate,omitempty"`      // entries per minute

	// People counter
	PeopleCount *int `json:"peopleCount,omitempty"`

	// Security. Level is staged 0..3; 2 and up overrides the ambience.
	SecurityLevel   *int   `json:"securityLevel,omitempty"`
	ActiveIncidents *int   `json:"activeIncidents,omitempty"`
	HighestSeverity string `json:"highestSeverity,omitempty"`

	// Calendar (stub collector, reserved)
	CalendarBusy *bool `json:"calendarBusy,omitempty"`

	UpdatedAt int64 `json:"updatedAt"` // epoch ms of the newest contribution
}

// MoodContext is the GET /api/context payload for one location: the
// smoothed current vector, the target it is converging to, and the raw
// signals that produced the target.
type MoodContext struct {
	LocationID string     `json:"locationId"`
	Current    MoodVector `json:"current"`
	Target     MoodVector `json:"target"`
	Signals    Signals    `json:"signals"`
	UpdatedAt  int64      `json:"updatedAt"`
}
