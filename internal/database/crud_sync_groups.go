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

	"github.com/google/uuid"

	"github.com/parkwise/signage/internal/metrics"
	"github.com/parkwise/signage/internal/models"
)

// CreateSyncGroup inserts a coordinated playback group. Mode defaults
// to mirror.
func (db *DB) CreateSyncGroup(ctx context.Context, g *models.SyncGroup) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Mode == "" {
		g.Mode = models.SyncModeMirror
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sync_groups (id, client_id, name, mode, playlist_id, leader_screen_id, config, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.ClientID, g.Name, g.Mode, nullString(g.PlaylistID),
		nullString(g.LeaderScreenID), jsonToString(g.Config), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sync group %s: %w", g.ID, ErrConflict)
		}
		return fmt.Errorf("failed to insert sync group: %w", err)
	}

	return nil
}

// GetSyncGroup fetches one group by id, scoped to the tenant. An empty
// clientID skips the tenant check (internal callers: sync engine, push bus).
func (db *DB) GetSyncGroup(ctx context.Context, clientID, id string) (*models.SyncGroup, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, client_id, name, mode, playlist_id, leader_screen_id, config, created_at, updated_at
		 FROM sync_groups WHERE id = ?`
	args := []interface{}{id}
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}

	row := db.conn.QueryRowContext(ctx, query, args...)

	g, err := scanSyncGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sync group %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync group: %w", err)
	}
	return g, nil
}

// ListSyncGroups returns a tenant's groups ordered by creation time.
// An empty clientID lists across all tenants.
func (db *DB) ListSyncGroups(ctx context.Context, clientID string) ([]*models.SyncGroup, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, client_id, name, mode, playlist_id, leader_screen_id, config, created_at, updated_at
		 FROM sync_groups`
	var args []interface{}
	if clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync groups: %w", err)
	}
	defer closeWithLog(rows, "sync_groups rows")

	var out []*models.SyncGroup
	for rows.Next() {
		g, err := scanSyncGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateSyncGroup rewrites the mutable group fields within the tenant.
// Mode changes take effect on the next play, not mid-playback.
func (db *DB) UpdateSyncGroup(ctx context.Context, g *models.SyncGroup) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	g.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE sync_groups SET name = ?, mode = ?, playlist_id = ?, leader_screen_id = ?, config = ?, updated_at = ?
		 WHERE id = ? AND client_id = ?`,
		g.Name, g.Mode, nullString(g.PlaylistID), nullString(g.LeaderScreenID),
		jsonToString(g.Config), g.UpdatedAt, g.ID, g.ClientID)
	if err != nil {
		return fmt.Errorf("failed to update sync group: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sync group %s: %w", g.ID, ErrNotFound)
	}
	return nil
}

// DeleteSyncGroup removes a group and detaches its member screens in the
// same transaction, clearing their membership and ordinal. The caller is
// responsible for stopping any running playback first.
func (db *DB) DeleteSyncGroup(ctx context.Context, clientID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin sync group delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM sync_groups WHERE id = ? AND client_id = ?`, id, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete sync group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sync group %s: %w", id, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE screens SET sync_group = NULL, sync_position = 0, updated_at = ? WHERE sync_group = ?`,
		time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to detach sync group screens: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync group delete: %w", err)
	}

	metrics.RecordDBQuery("delete_detach", "sync_groups", time.Since(start), nil)
	return nil
}

// scanSyncGroup maps one row onto a SyncGroup.
func scanSyncGroup(row interface{ Scan(...interface{}) error }) (*models.SyncGroup, error) {
	var g models.SyncGroup
	var playlistID, leaderID, config sql.NullString

	err := row.Scan(&g.ID, &g.ClientID, &g.Name, &g.Mode, &playlistID, &leaderID,
		&config, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}

	g.PlaylistID = stringOrEmpty(playlistID)
	g.LeaderScreenID = stringOrEmpty(leaderID)
	g.Config = parseJSONMap(config)
	return &g, nil
}
