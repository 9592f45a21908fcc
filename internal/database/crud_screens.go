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
	"strings"
	"time"

	"github.com/parkwise/signage/internal/metrics"
	"github.com/parkwise/signage/internal/models"
)

// UpsertScreen registers a screen by its self-reported id, idempotently.
// A fresh row starts online with last_seen=now; a re-register refreshes
// the reported fields but keeps admin-assigned placement (group, location)
// when the registration leaves them empty.
func (db *DB) UpsertScreen(ctx context.Context, reg *models.ScreenRegistration) (*models.Screen, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	now := start.UTC()
	nowMS := start.UnixMilli()

	clientID := reg.ClientID
	if clientID == "" {
		clientID = models.BootstrapClientID
	}
	name := reg.Name
	if name == "" {
		name = reg.ID
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO screens (id, client_id, name, group_id, location_id, type, status, last_seen,
		                      platform, resolution, orientation, capabilities, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'online', ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			group_id = COALESCE(EXCLUDED.group_id, group_id),
			location_id = COALESCE(EXCLUDED.location_id, location_id),
			type = COALESCE(EXCLUDED.type, type),
			status = 'online',
			last_seen = EXCLUDED.last_seen,
			platform = COALESCE(EXCLUDED.platform, platform),
			resolution = COALESCE(EXCLUDED.resolution, resolution),
			orientation = COALESCE(EXCLUDED.orientation, orientation),
			capabilities = EXCLUDED.capabilities,
			updated_at = EXCLUDED.updated_at`,
		reg.ID, clientID, name, nullString(reg.GroupID), nullString(reg.LocationID),
		nullString(reg.Type), nowMS, nullString(reg.Platform), nullString(reg.Resolution),
		nullString(reg.Orientation), jsonToString(reg.Capabilities), now, now)
	metrics.RecordDBQuery("upsert", "screens", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert screen: %w", err)
	}

	return db.GetScreen(ctx, "", reg.ID)
}

// GetScreen fetches one screen. clientID "" skips the tenant check.
func (db *DB) GetScreen(ctx context.Context, clientID, id string) (*models.Screen, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := screenSelect + ` WHERE id = ?`
	args := []interface{}{id}
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}

	s, err := scanScreen(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("screen %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screen: %w", err)
	}
	return s, nil
}

// ListScreens returns screens matching the filter, in stable order.
func (db *DB) ListScreens(ctx context.Context, filter models.ScreenFilter) ([]*models.Screen, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var conds []string
	var args []interface{}

	if !filter.AllClients && filter.ClientID != "" {
		conds = append(conds, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.LocationID != "" {
		conds = append(conds, "location_id = ?")
		args = append(args, filter.LocationID)
	}
	if filter.GroupID != "" {
		conds = append(conds, "group_id = ?")
		args = append(args, filter.GroupID)
	}
	if filter.SyncGroup != "" {
		conds = append(conds, "sync_group = ?")
		args = append(args, filter.SyncGroup)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}

	query := screenSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list screens: %w", err)
	}
	defer closeWithLog(rows, "screens rows")

	var out []*models.Screen
	for rows.Next() {
		s, err := scanScreen(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screen: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateScreen applies a patch to one screen and returns the stored row.
// Identity and liveness fields are not patchable.
func (db *DB) UpdateScreen(ctx context.Context, clientID, id string, patch *models.ScreenPatch) (*models.Screen, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var sets []string
	var args []interface{}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.GroupID != nil {
		sets = append(sets, "group_id = ?")
		args = append(args, nullString(*patch.GroupID))
	}
	if patch.LocationID != nil {
		sets = append(sets, "location_id = ?")
		args = append(args, nullString(*patch.LocationID))
	}
	if patch.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, nullString(*patch.Type))
	}
	if patch.Config != nil {
		sets = append(sets, "config = ?")
		args = append(args, jsonToString(*patch.Config))
	}

	if len(sets) == 0 {
		return db.GetScreen(ctx, clientID, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id, clientID)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE screens SET `+strings.Join(sets, ", ")+` WHERE id = ? AND client_id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update screen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("screen %s: %w", id, ErrNotFound)
	}

	return db.GetScreen(ctx, clientID, id)
}

// DeleteScreen removes one screen row.
func (db *DB) DeleteScreen(ctx context.Context, clientID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `DELETE FROM screens WHERE id = ?`
	args := []interface{}{id}
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete screen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("screen %s: %w", id, ErrNotFound)
	}
	return nil
}

// TouchScreen stamps a heartbeat: last_seen and status=online.
func (db *DB) TouchScreen(ctx context.Context, id string, lastSeenMS int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE screens SET last_seen = ?, status = 'online', updated_at = ? WHERE id = ?`,
		lastSeenMS, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch screen: %w", err)
	}
	return nil
}

// SetScreenStatus flips one screen's persisted status.
func (db *DB) SetScreenStatus(ctx context.Context, id, status string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE screens SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set screen status: %w", err)
	}
	return nil
}

// OfflineScreen identifies a row flipped by the offline scanner.
type OfflineScreen struct {
	ID       string
	ClientID string
}

// MarkScreensOffline flips every online screen whose last_seen trails the
// cutoff, returning the flipped rows so the registry can drop channels and
// emit events.
func (db *DB) MarkScreensOffline(ctx context.Context, cutoffMS int64) ([]OfflineScreen, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`UPDATE screens SET status = 'offline', updated_at = ?
		 WHERE status = 'online' AND last_seen < ?
		 RETURNING id, client_id`,
		time.Now().UTC(), cutoffMS)
	if err != nil {
		return nil, fmt.Errorf("failed to mark screens offline: %w", err)
	}
	defer closeWithLog(rows, "offline screens rows")

	var flipped []OfflineScreen
	for rows.Next() {
		var o OfflineScreen
		if err := rows.Scan(&o.ID, &o.ClientID); err != nil {
			return nil, fmt.Errorf("failed to scan offline screen: %w", err)
		}
		flipped = append(flipped, o)
	}
	return flipped, rows.Err()
}

// AttachScreenToSyncGroup sets sync_group and assigns the next position
// (max+1 within the group) so member order survives restarts.
func (db *DB) AttachScreenToSyncGroup(ctx context.Context, clientID, screenID, groupID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin attach: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxPos sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(sync_position) FROM screens WHERE sync_group = ?`, groupID).Scan(&maxPos); err != nil {
		return fmt.Errorf("failed to read group positions: %w", err)
	}
	next := int64(1)
	if maxPos.Valid {
		next = maxPos.Int64 + 1
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE screens SET sync_group = ?, sync_position = ?, updated_at = ?
		 WHERE id = ? AND client_id = ?`,
		groupID, next, time.Now().UTC(), screenID, clientID)
	if err != nil {
		return fmt.Errorf("failed to attach screen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read attach result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("screen %s: %w", screenID, ErrNotFound)
	}

	return tx.Commit()
}

// DetachScreenFromSyncGroup clears sync_group membership.
func (db *DB) DetachScreenFromSyncGroup(ctx context.Context, clientID, screenID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE screens SET sync_group = NULL, sync_position = 0, updated_at = ?
		 WHERE id = ? AND client_id = ?`,
		time.Now().UTC(), screenID, clientID)
	if err != nil {
		return fmt.Errorf("failed to detach screen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read detach result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("screen %s: %w", screenID, ErrNotFound)
	}
	return nil
}

// CountScreensByStatus returns process-wide status counts for the
// registry gauges.
func (db *DB) CountScreensByStatus(ctx context.Context) (online, offline int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM screens GROUP BY status`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count screens: %w", err)
	}
	defer closeWithLog(rows, "screen count rows")

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return 0, 0, fmt.Errorf("failed to scan screen count: %w", err)
		}
		switch status {
		case "online":
			online = n
		case "offline":
			offline = n
		}
	}
	return online, offline, rows.Err()
}

// ListSyncGroupScreens returns a group's members in deterministic order:
// attach position first, id as tiebreak.
func (db *DB) ListSyncGroupScreens(ctx context.Context, groupID string) ([]*models.Screen, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		screenSelect+` WHERE sync_group = ? ORDER BY sync_position, id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync group screens: %w", err)
	}
	defer closeWithLog(rows, "sync group screens rows")

	var out []*models.Screen
	for rows.Next() {
		s, err := scanScreen(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screen: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const screenSelect = `SELECT id, client_id, name, group_id, location_id, sync_group, type, status,
	last_seen, platform, resolution, orientation, capabilities, config, sync_position, created_at, updated_at
	FROM screens`

func scanScreen(row interface{ Scan(...interface{}) error }) (*models.Screen, error) {
	var s models.Screen
	var name, groupID, locationID, syncGroup, typ, platform, resolution, orientation sql.NullString
	var capabilities, config sql.NullString

	err := row.Scan(&s.ID, &s.ClientID, &name, &groupID, &locationID, &syncGroup, &typ, &s.Status,
		&s.LastSeen, &platform, &resolution, &orientation, &capabilities, &config,
		&s.SyncPosition, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	s.Name = stringOrEmpty(name)
	s.GroupID = stringOrEmpty(groupID)
	s.LocationID = stringOrEmpty(locationID)
	s.SyncGroup = stringOrEmpty(syncGroup)
	s.Type = stringOrEmpty(typ)
	s.Platform = stringOrEmpty(platform)
	s.Resolution = stringOrEmpty(resolution)
	s.Orientation = stringOrEmpty(orientation)
	s.Capabilities = parseJSONMap(capabilities)
	s.Config = parseJSONMap(config)
	return &s, nil
}
