// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

/*
Package models defines data structures for the Signage control plane.

This package contains all data models used throughout the application:
database entities, API request/response structures, push envelopes, and
runtime-only state carried over the screen event channel. It is the single
source of truth for data structure definitions.

Model Categories:

1. Catalogue Entities (persisted in DuckDB):
  - Client: tenant with branding and plan
  - Location: physical site with IANA timezone and config blob
  - Screen: display endpoint, self-registered by id
  - Playlist: ordered content sequence with per-item durations
  - Schedule: time-window playlist activation with priority
  - SyncGroup: screens playing together in mirror/complementary/span mode
  - Announcement: notice board entry
  - Setting: process-wide key/value pairs

2. Push & Event Channel Models:
  - Envelope: typed content message dispatched to screens
  - MoodVector: seven-axis ambience vector broadcast per location
  - PushResult: dispatch outcome (dispatched vs matched counts)

3. API Request/Response Models:
  - APIResponse: {success, data|error} wrapper used by every endpoint
  - APIError: structured error with machine-readable code

Thread Safety:

All models are plain data structures with no internal synchronization.
They are safe for concurrent reads; ownership transfers on channel sends.

JSON Marshaling:

Persisted entities use snake_case tags except where the wire contract
names a field otherwise (e.g. schedule "playlistId", runtime
"currentMode"). Epoch-millisecond fields are int64; catalogue timestamps
are time.Time in RFC3339.
*/
package models
