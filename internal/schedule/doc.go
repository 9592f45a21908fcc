// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

// Package schedule selects, per dispatch target, the playlist that
// should currently be on screen and pushes selection changes.
//
// A pass walks every enabled schedule across all tenants ordered by
// priority (ties to the newest), picks the first schedule per target
// whose day set and "HH:MM" window match the current instant, and
// compares the pick against what was last applied. A changed pick is
// pushed as a playlist envelope; a target whose window closed with
// nothing else matching gets exactly one clear.
//
// Windows resolve in the target's timezone: location targets (and
// screens pinned to a location) use the location's IANA zone, all other
// targets the server zone. Windows never span midnight.
//
// Passes run every minute, plus once within the mutation delay after a
// schedule edit (Notify). The loop is single-threaded; edits made in a
// burst coalesce into one pass.
package schedule
