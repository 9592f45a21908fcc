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

	"github.com/parkwise/signage/internal/models"
)

// CreateLocation inserts a site row for a tenant.
func (db *DB) CreateLocation(ctx context.Context, l *models.Location) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO locations (id, client_id, name, address, latitude, longitude, timezone, config, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ClientID, l.Name, nullString(l.Address), l.Latitude, l.Longitude,
		l.Timezone, jsonToString(l.Config), l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

// GetLocation fetches one location scoped to a tenant. clientID "" skips
// the tenant check (all-clients bypass).
func (db *DB) GetLocation(ctx context.Context, clientID, id string) (*models.Location, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, client_id, name, address, latitude, longitude, timezone, config, created_at, updated_at
	          FROM locations WHERE id = ?`
	args := []interface{}{id}
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}

	l, err := scanLocation(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("location %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return l, nil
}

// ListLocations returns a tenant's locations; clientID "" lists all.
func (db *DB) ListLocations(ctx context.Context, clientID string) ([]*models.Location, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, client_id, name, address, latitude, longitude, timezone, config, created_at, updated_at
	          FROM locations`
	var args []interface{}
	if clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer closeWithLog(rows, "locations rows")

	var out []*models.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateLocation rewrites the mutable location fields.
func (db *DB) UpdateLocation(ctx context.Context, l *models.Location) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	l.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE locations SET name = ?, address = ?, latitude = ?, longitude = ?, timezone = ?, config = ?, updated_at = ?
		 WHERE id = ? AND client_id = ?`,
		l.Name, nullString(l.Address), l.Latitude, l.Longitude, l.Timezone,
		jsonToString(l.Config), l.UpdatedAt, l.ID, l.ClientID)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("location %s: %w", l.ID, ErrNotFound)
	}
	return nil
}

// DeleteLocation removes a location and unpins its screens
// (location_id=NULL) so they keep registering cleanly.
func (db *DB) DeleteLocation(ctx context.Context, clientID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin location delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM locations WHERE id = ? AND client_id = ?`, id, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("location %s: %w", id, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE screens SET location_id = NULL, updated_at = ? WHERE location_id = ?`,
		time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to unpin screens: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit location delete: %w", err)
	}
	return nil
}

// AssignScreensToLocation pins the given screens to a location. Screens
// belonging to other tenants are skipped, not errors; the returned count
// is how many rows actually moved.
func (db *DB) AssignScreensToLocation(ctx context.Context, clientID, locationID string, screenIDs []string) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	moved := 0
	now := time.Now().UTC()
	for _, sid := range screenIDs {
		res, err := db.conn.ExecContext(ctx,
			`UPDATE screens SET location_id = ?, updated_at = ? WHERE id = ? AND client_id = ?`,
			locationID, now, sid, clientID)
		if err != nil {
			return moved, fmt.Errorf("failed to assign screen %s: %w", sid, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			moved++
		}
	}
	return moved, nil
}

func scanLocation(row interface{ Scan(...interface{}) error }) (*models.Location, error) {
	var l models.Location
	var address, config sql.NullString

	err := row.Scan(&l.ID, &l.ClientID, &l.Name, &address, &l.Latitude, &l.Longitude,
		&l.Timezone, &config, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}

	l.Address = stringOrEmpty(address)
	l.Config = parseJSONMap(config)
	return &l, nil
}
