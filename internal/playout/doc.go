// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

// Package playout drives coordinated playback across sync groups.
//
// Each playing group holds a runtime state entry (current item index,
// item list, mode) and a one-shot timer armed for the current item's
// duration. When the timer fires the engine advances the index modulo
// the item count, broadcasts a sync:tick, fans out mode-aware content
// payloads to the group's connected members, and re-arms the timer.
// State exists only while a group is playing; stop discards it.
//
// Every run carries a generation number. Stop, seek and replay bump the
// generation, so a timer that fires for a superseded run sees the stale
// generation and discards itself instead of double-advancing.
//
// Modes: mirror sends every member the same item; complementary offsets
// each member by its position in the group; span sends the same item
// plus a viewport slice descriptor.
package playout
