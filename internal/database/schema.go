// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

/*
schema.go - Database Schema Management

This file manages the DuckDB schema: catalogue tables, indexes, and the
bootstrap seed (the parkwise tenant plus default settings).

Tables:
  - clients: tenants; slug unique; parkwise row is seeded and undeletable
  - locations: physical sites with IANA timezone and a JSON config blob
  - screens: display endpoints keyed by their self-reported id
  - playlists: ordered content sequences (items as a JSON column)
  - schedules: daily time-window playlist activations
  - sync_groups: coordinated playback groups
  - announcements: notice board entries
  - settings: process-wide key/value pairs
  - events: control-plane event feed consumed by the dashboard

Schema Strategy:
All columns are defined in the initial CREATE TABLE statements; the schema
is created idempotently at startup with IF NOT EXISTS. JSON-shaped blobs
(branding, config, capabilities, items, days) are TEXT columns holding
canonical JSON.

Cascade Strategy:
DuckDB does not execute ON DELETE CASCADE, so DeleteClient removes child
rows explicitly inside one transaction (see crud_clients.go).
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the catalogue tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements.
func (db *DB) getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			logo_url TEXT,
			branding TEXT,
			contact TEXT,
			plan TEXT DEFAULT 'basic',
			active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS locations (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			name TEXT NOT NULL,
			address TEXT,
			latitude DOUBLE DEFAULT 0,
			longitude DOUBLE DEFAULT 0,
			timezone TEXT NOT NULL,
			config TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS screens (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			name TEXT,
			group_id TEXT,
			location_id TEXT,
			sync_group TEXT,
			type TEXT,
			status TEXT DEFAULT 'offline',
			last_seen BIGINT DEFAULT 0,
			platform TEXT,
			resolution TEXT,
			orientation TEXT,
			capabilities TEXT,
			config TEXT,
			sync_position INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			items TEXT NOT NULL DEFAULT '[]',
			loop BOOLEAN DEFAULT TRUE,
			transition TEXT DEFAULT 'fade',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS schedules (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			name TEXT,
			playlist_id TEXT NOT NULL,
			screen_target TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			days TEXT NOT NULL DEFAULT '[]',
			priority INTEGER DEFAULT 0,
			enabled BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS sync_groups (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			name TEXT NOT NULL,
			mode TEXT NOT NULL DEFAULT 'mirror',
			playlist_id TEXT,
			leader_screen_id TEXT,
			config TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS announcements (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			location_id TEXT,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			icon TEXT,
			priority TEXT DEFAULT 'normal',
			active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			client_id TEXT,
			subject TEXT,
			payload TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}

// createIndexes creates indexes for the hot query paths: tenant-scoped
// listing, target resolution, and the evaluator's enabled-schedule scan.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_locations_client ON locations(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_screens_client ON screens(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_screens_location ON screens(location_id)`,
		`CREATE INDEX IF NOT EXISTS idx_screens_group ON screens(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_screens_sync_group ON screens(sync_group)`,
		`CREATE INDEX IF NOT EXISTS idx_screens_status ON screens(status)`,
		`CREATE INDEX IF NOT EXISTS idx_playlists_client ON playlists(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_client ON schedules(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_enabled ON schedules(enabled)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_groups_client ON sync_groups(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_announcements_client ON announcements(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_client ON events(client_id)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
