// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

import (
	"time"
)

// Envelope types. Every push to a screen carries exactly one of these.
const (
	EnvelopeTypeURL      = "url"
	EnvelopeTypeMedia    = "media"
	EnvelopeTypeWidget   = "widget"
	EnvelopeTypePlaylist = "playlist"
	EnvelopeTypeAlert    = "alert"
	EnvelopeTypeClear    = "clear"
	EnvelopeTypeMode     = "mode"
	EnvelopeTypeReload   = "reload"
)

// Alert levels.
const (
	AlertLevelInfo  = "info"
	AlertLevelWarn  = "warn"
	AlertLevelError = "error"
)

// Push sources, stamped on envelopes so screens and the event log can
// attribute a dispatch to the subsystem that produced it.
const (
	SourceAPI      = "api"
	SourceSchedule = "schedule"
	SourceSync     = "sync"
	SourceMood     = "mood"
)

// Envelope is the typed message unit delivered to screens over the push
// bus. Content is type-specific JSON; Level and Duration are set only for
// alerts (Duration is auto-dismissal in milliseconds).
type Envelope struct {
	Timestamp int64                  `json:"timestamp"`
	Source    string                 `json:"source"`
	Type      string                 `json:"type" validate:"required,oneof=url media widget playlist alert clear mode reload"`
	Content   map[string]interface{} `json:"content,omitempty"`

	Level    string `json:"level,omitempty" validate:"omitempty,oneof=info warn error"`
	Duration int64  `json:"duration,omitempty"`
}

// NewEnvelope stamps a now-timestamped envelope.
func NewEnvelope(source, envType string, content map[string]interface{}) Envelope {
	return Envelope{
		Timestamp: time.Now().UnixMilli(),
		Source:    source,
		Type:      envType,
		Content:   content,
	}
}

// NewAlertEnvelope builds an alert with its auto-dismissal duration.
func NewAlertEnvelope(source, level string, durationMS int64, content map[string]interface{}) Envelope {
	e := NewEnvelope(source, EnvelopeTypeAlert, content)
	e.Level = level
	e.Duration = durationMS
	return e
}

// PushResult reports a push bus dispatch: Matched is how many screens the
// target resolved to, Dispatched how many actually had the envelope
// enqueued. Both zero is still success; fire-and-forget never errors on
// absent recipients.
type PushResult struct {
	Dispatched int `json:"dispatched"`
	Matched    int `json:"matched"`
}
