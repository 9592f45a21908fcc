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

// CreateClient inserts a tenant. A missing id gets a fresh UUID; a missing
// plan defaults to basic; missing branding gets the default blob.
func (db *DB) CreateClient(ctx context.Context, c *models.Client) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Plan == "" {
		c.Plan = models.PlanBasic
	}
	if c.Branding == nil {
		c.Branding = models.DefaultBranding()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO clients (id, name, slug, logo_url, branding, contact, plan, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Slug, nullString(c.LogoURL), jsonToString(c.Branding),
		nullString(c.Contact), c.Plan, c.Active, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("client slug %q: %w", c.Slug, ErrConflict)
		}
		return fmt.Errorf("failed to insert client: %w", err)
	}

	return nil
}

// GetClient fetches one tenant by id.
func (db *DB) GetClient(ctx context.Context, id string) (*models.Client, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, slug, logo_url, branding, contact, plan, active, created_at, updated_at
		 FROM clients WHERE id = ?`, id)

	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

// ListClients returns all tenants ordered by creation time.
func (db *DB) ListClients(ctx context.Context) ([]*models.Client, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, slug, logo_url, branding, contact, plan, active, created_at, updated_at
		 FROM clients ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer closeWithLog(rows, "clients rows")

	var out []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateClient rewrites the mutable tenant fields.
func (db *DB) UpdateClient(ctx context.Context, c *models.Client) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	c.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE clients SET name = ?, slug = ?, logo_url = ?, branding = ?, contact = ?, plan = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Slug, nullString(c.LogoURL), jsonToString(c.Branding),
		nullString(c.Contact), c.Plan, c.Active, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("client slug %q: %w", c.Slug, ErrConflict)
		}
		return fmt.Errorf("failed to update client: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("client %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// DeleteClient removes a tenant and everything it owns: locations, screens,
// playlists, schedules, announcements, and sync groups, all in one
// transaction. The bootstrap tenant is protected.
func (db *DB) DeleteClient(ctx context.Context, id string) error {
	if id == models.BootstrapClientID {
		return fmt.Errorf("bootstrap client cannot be deleted: %w", ErrForbidden)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cascade delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("client %s: %w", id, ErrNotFound)
	}

	// DuckDB does not run ON DELETE CASCADE; children go explicitly.
	cascade := []string{
		`DELETE FROM locations WHERE client_id = ?`,
		`DELETE FROM screens WHERE client_id = ?`,
		`DELETE FROM playlists WHERE client_id = ?`,
		`DELETE FROM schedules WHERE client_id = ?`,
		`DELETE FROM announcements WHERE client_id = ?`,
		`DELETE FROM sync_groups WHERE client_id = ?`,
	}
	for _, q := range cascade {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to cascade delete: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cascade delete: %w", err)
	}

	metrics.RecordDBQuery("cascade_delete", "clients", time.Since(start), nil)
	return nil
}

// scanClient maps one row onto a Client. Works for both QueryRow and rows.Next.
func scanClient(row interface{ Scan(...interface{}) error }) (*models.Client, error) {
	var c models.Client
	var logoURL, branding, contact sql.NullString

	err := row.Scan(&c.ID, &c.Name, &c.Slug, &logoURL, &branding, &contact,
		&c.Plan, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.LogoURL = stringOrEmpty(logoURL)
	c.Branding = parseJSONMap(branding)
	c.Contact = stringOrEmpty(contact)
	return &c, nil
}
