// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

// Package mood derives a continuous seven-axis ambience vector per
// location and streams it to screens as context:mood frames.
//
// Collectors feed a shared signal cache: wall clock (period and season
// in the location's zone), weather and occupancy and security HTTP
// polls, audio and people-count WebSocket streams. Polls share a rate
// limiter and carry a per-endpoint circuit breaker; failures keep the
// cached reading, and occupancy additionally borrows the global average
// for locations that never reported.
//
// The processor folds the signal bag into a target vector by additive,
// order-independent contributions clamped to [0,1]. A security level of
// two or higher overrides the ambience outright; level three saturates
// urgency.
//
// Targets recompute every two seconds. The current vector chases its
// target every 500ms with per-component speeds (warmth drifts, urgency
// snaps), so screens never see a discontinuity. A location's first
// sighting seeds current = target.
package mood
