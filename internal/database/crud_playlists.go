// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/models"
)

// CreatePlaylist inserts a playlist. Items are stored as one JSON column;
// an absent transition falls back to fade.
func (db *DB) CreatePlaylist(ctx context.Context, p *models.Playlist) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Transition == "" {
		p.Transition = "fade"
	}
	if p.Items == nil {
		p.Items = []models.PlaylistItem{}
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO playlists (id, client_id, name, description, items, loop, transition, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ClientID, p.Name, nullString(p.Description), jsonToString(p.Items),
		p.Loop, p.Transition, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("playlist %s: %w", p.ID, ErrConflict)
		}
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// GetPlaylist fetches one playlist by id, scoped to the tenant. An empty
// clientID skips the tenant check (internal callers: sync engine, evaluator).
func (db *DB) GetPlaylist(ctx context.Context, clientID, id string) (*models.Playlist, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, client_id, name, description, items, loop, transition, created_at, updated_at
		 FROM playlists WHERE id = ?`
	args := []interface{}{id}
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}

	row := db.conn.QueryRowContext(ctx, query, args...)

	p, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return p, nil
}

// ListPlaylists returns a tenant's playlists ordered by creation time.
// An empty clientID lists across all tenants.
func (db *DB) ListPlaylists(ctx context.Context, clientID string) ([]*models.Playlist, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, client_id, name, description, items, loop, transition, created_at, updated_at
		 FROM playlists`
	var args []interface{}
	if clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer closeWithLog(rows, "playlists rows")

	var out []*models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePlaylist rewrites the mutable playlist fields within the tenant.
func (db *DB) UpdatePlaylist(ctx context.Context, p *models.Playlist) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if p.Items == nil {
		p.Items = []models.PlaylistItem{}
	}
	p.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE playlists SET name = ?, description = ?, items = ?, loop = ?, transition = ?, updated_at = ?
		 WHERE id = ? AND client_id = ?`,
		p.Name, nullString(p.Description), jsonToString(p.Items), p.Loop, p.Transition,
		p.UpdatedAt, p.ID, p.ClientID)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("playlist %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// DeletePlaylist removes a playlist. Schedules and sync groups keep their
// dangling references; readers resolve them to NOT_FOUND at use time.
func (db *DB) DeletePlaylist(ctx context.Context, clientID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM playlists WHERE id = ? AND client_id = ?`, id, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}
	return nil
}

// scanPlaylist maps one row onto a Playlist.
func scanPlaylist(row interface{ Scan(...interface{}) error }) (*models.Playlist, error) {
	var p models.Playlist
	var description, items sql.NullString

	err := row.Scan(&p.ID, &p.ClientID, &p.Name, &description, &items,
		&p.Loop, &p.Transition, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Description = stringOrEmpty(description)
	p.Items = parsePlaylistItems(items)
	return &p, nil
}

// parsePlaylistItems parses the items JSON column. Malformed content
// yields an empty slice rather than failing the whole read.
func parsePlaylistItems(s sql.NullString) []models.PlaylistItem {
	if !s.Valid || s.String == "" || s.String == "null" {
		return []models.PlaylistItem{}
	}
	var items []models.PlaylistItem
	if err := json.Unmarshal([]byte(s.String), &items); err != nil {
		logging.Warn().Err(err).Msg("Failed to parse playlist items column")
		return []models.PlaylistItem{}
	}
	return items
}
