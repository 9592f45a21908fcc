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

// CreateSchedule inserts a schedule row.
func (db *DB) CreateSchedule(ctx context.Context, s *models.Schedule) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO schedules (id, client_id, name, playlist_id, screen_target, start_time, end_time, days, priority, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ClientID, nullString(s.Name), s.PlaylistID, s.ScreenTarget,
		s.StartTime, s.EndTime, jsonToString(s.Days), s.Priority, s.Enabled,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("schedule %s: %w", s.ID, ErrConflict)
		}
		return fmt.Errorf("failed to insert schedule: %w", err)
	}

	return nil
}

// GetSchedule fetches one schedule by id, scoped to the tenant.
func (db *DB) GetSchedule(ctx context.Context, clientID, id string) (*models.Schedule, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := scheduleSelect + ` WHERE id = ?`
	args := []interface{}{id}
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}

	row := db.conn.QueryRowContext(ctx, query, args...)

	s, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return s, nil
}

// ListSchedules returns a tenant's schedules ordered by priority, newest
// first inside a priority band. An empty clientID lists across all tenants.
func (db *DB) ListSchedules(ctx context.Context, clientID string) ([]*models.Schedule, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := scheduleSelect
	var args []interface{}
	if clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY priority DESC, created_at DESC, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer closeWithLog(rows, "schedules rows")

	return collectSchedules(rows)
}

// ListEnabledSchedules returns every enabled schedule across all tenants,
// ordered so the evaluator sees the winning schedule first within each
// target: priority descending, then newest createdAt.
func (db *DB) ListEnabledSchedules(ctx context.Context) ([]*models.Schedule, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		scheduleSelect+` WHERE enabled = TRUE ORDER BY priority DESC, created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled schedules: %w", err)
	}
	defer closeWithLog(rows, "schedules rows")

	return collectSchedules(rows)
}

// UpdateSchedule rewrites the mutable schedule fields within the tenant.
func (db *DB) UpdateSchedule(ctx context.Context, s *models.Schedule) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	s.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE schedules SET name = ?, playlist_id = ?, screen_target = ?, start_time = ?, end_time = ?, days = ?, priority = ?, enabled = ?, updated_at = ?
		 WHERE id = ? AND client_id = ?`,
		nullString(s.Name), s.PlaylistID, s.ScreenTarget, s.StartTime, s.EndTime,
		jsonToString(s.Days), s.Priority, s.Enabled, s.UpdatedAt, s.ID, s.ClientID)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("schedule %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

// DeleteSchedule removes a schedule.
func (db *DB) DeleteSchedule(ctx context.Context, clientID, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM schedules WHERE id = ? AND client_id = ?`, id, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("schedule %s: %w", id, ErrNotFound)
	}
	return nil
}

const scheduleSelect = `SELECT id, client_id, name, playlist_id, screen_target, start_time, end_time, days, priority, enabled, created_at, updated_at
	 FROM schedules`

// collectSchedules drains a schedules result set.
func collectSchedules(rows *sql.Rows) ([]*models.Schedule, error) {
	var out []*models.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// scanSchedule maps one row onto a Schedule.
func scanSchedule(row interface{ Scan(...interface{}) error }) (*models.Schedule, error) {
	var s models.Schedule
	var name, days sql.NullString

	err := row.Scan(&s.ID, &s.ClientID, &name, &s.PlaylistID, &s.ScreenTarget,
		&s.StartTime, &s.EndTime, &days, &s.Priority, &s.Enabled,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	s.Name = stringOrEmpty(name)
	s.Days = parseJSONInts(days)
	return &s, nil
}
