// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parkwise/signage/internal/models"
)

// InsertEvent appends one row to the activity feed. Events are immutable
// once written; the consumer is the only writer.
func (db *DB) InsertEvent(ctx context.Context, e *models.Event) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO events (id, type, client_id, subject, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		e.ID, e.Type, nullString(e.ClientID), nullString(e.Subject),
		jsonToString(e.Payload), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// ListEvents returns the newest feed rows. A non-empty clientID restricts
// to one tenant; limit is clamped to [1, 500].
func (db *DB) ListEvents(ctx context.Context, clientID string, limit int) ([]*models.Event, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	query := `SELECT id, type, client_id, subject, payload, created_at FROM events`
	var args []interface{}
	if clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer closeWithLog(rows, "events rows")

	var out []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneEvents deletes feed rows older than the cutoff and returns the
// count removed. The events consumer runs this on a retention timer.
func (db *DB) PruneEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM events WHERE created_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read prune result: %w", err)
	}
	return n, nil
}

// scanEvent maps one row onto an Event.
func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	var e models.Event
	var clientID, subject, payload sql.NullString

	err := row.Scan(&e.ID, &e.Type, &clientID, &subject, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	e.ClientID = stringOrEmpty(clientID)
	e.Subject = stringOrEmpty(subject)
	e.Payload = parseJSONMap(payload)
	return &e, nil
}
