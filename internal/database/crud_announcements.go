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

// CreateAnnouncement inserts a notice board entry. Priority defaults
// to normal.
func (db *DB) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Priority == "" {
		a.Priority = models.AnnouncementPriorityNormal
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO announcements (id, client_id, location_id, title, message, icon, priority, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ClientID, nullString(a.LocationID), a.Title, a.Message,
		nullString(a.Icon), a.Priority, a.Active, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("announcement %s: %w", a.ID, ErrConflict)
		}
		return fmt.Errorf("failed to insert announcement: %w", err)
	}

	return nil
}

// GetAnnouncement fetches one entry by id, scoped to the tenant.
func (db *DB) GetAnnouncement(ctx context.Context, clientID, id string) (*models.Announcement, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, client_id, location_id, title, message, icon, priority, active, created_at, updated_at
		 FROM announcements WHERE id = ? AND client_id = ?`, id, clientID)

	a, err := scanAnnouncement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("announcement %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get announcement: %w", err)
	}
	return a, nil
}

// ListAnnouncements returns a tenant's entries, newest first. activeOnly
// restricts to active rows for the widget data path.
func (db *DB) ListAnnouncements(ctx context.Context, clientID string, activeOnly bool) ([]*models.Announcement, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, client_id, location_id, title, message, icon, priority, active, created_at, updated_at
		 FROM announcements`
	var conds []string
	var args []interface{}
	if clientID != "" {
		conds = append(conds, `client_id = ?`)
		args = append(args, clientID)
	}
	if activeOnly {
		conds = append(conds, `active = TRUE`)
	}
	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	defer closeWithLog(rows, "announcements rows")

	var out []*models.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAnnouncement rewrites the mutable fields within the tenant.
func (db *DB) UpdateAnnouncement(ctx context.Context, a *models.Announcement) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	a.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE announcements SET location_id = ?, title = ?, message = ?, icon = ?, priority = ?, active = ?, updated_at = ?
		 WHERE id = ? AND client_id = ?`,
		nullString(a.LocationID), a.Title, a.Message, nullString(a.Icon),
		a.Priority, a.Active, a.UpdatedAt, a.ID, a.ClientID)
	if err != nil {
		return fmt.Errorf("failed to update announcement: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("announcement %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// DeleteAnnouncement removes an entry.
func (db *DB) DeleteAnnouncement(ctx context.Context, clientID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM announcements WHERE id = ? AND client_id = ?`, id, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("announcement %s: %w", id, ErrNotFound)
	}
	return nil
}

// scanAnnouncement maps one row onto an Announcement.
func scanAnnouncement(row interface{ Scan(...interface{}) error }) (*models.Announcement, error) {
	var a models.Announcement
	var locationID, icon sql.NullString

	err := row.Scan(&a.ID, &a.ClientID, &locationID, &a.Title, &a.Message,
		&icon, &a.Priority, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.LocationID = stringOrEmpty(locationID)
	a.Icon = stringOrEmpty(icon)
	return &a, nil
}
