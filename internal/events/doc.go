// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

// Package events is the control-plane event pipeline. Subsystems publish
// lifecycle events (screen registered, went offline, playback started,
// schedule applied) to an embedded NATS JetStream broker via Watermill;
// a single consumer persists them to the activity feed table and nudges
// every connected channel with a screens:update frame when the registry
// shape changed.
//
// Publishing is fire-and-forget: a broker outage degrades the activity
// feed, never the control plane. Use Emit for that contract, or the Bus
// interface directly when the caller wants the error.
package events
