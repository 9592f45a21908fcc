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
	"sort"
	"strconv"
	"time"

	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/models"
)

// GetSettings returns every settings pair as a flat map.
func (db *DB) GetSettings(ctx context.Context) (map[string]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer closeWithLog(rows, "settings rows")

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// GetSetting returns one settings value.
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// GetSettingInt returns one settings value parsed as an integer, falling
// back to def when the key is missing or not numeric.
func (db *DB) GetSettingInt(ctx context.Context, key string, def int) int {
	value, err := db.GetSetting(ctx, key)
	if err != nil {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn().Str("key", key).Str("value", value).Msg("Setting is not numeric, using default")
		return def
	}
	return n
}

// UpdateSettings upserts a batch of pairs in one transaction. Keys are
// written in sorted order so concurrent batches cannot deadlock.
func (db *DB) UpdateSettings(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settings update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
			k, pairs[k], now); err != nil {
			return fmt.Errorf("failed to upsert setting %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings update: %w", err)
	}
	return nil
}

// seedDefaults inserts the bootstrap tenant and default settings. Both are
// idempotent: an existing row is never overwritten, so operator edits
// survive restarts.
func (db *DB) seedDefaults() error {
	ctx, cancel := schemaContext()
	defer cancel()

	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO clients (id, name, slug, branding, plan, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, TRUE, ?, ?)
		 ON CONFLICT DO NOTHING`,
		models.BootstrapClientID, "Parkwise", models.BootstrapClientID,
		jsonToString(models.DefaultBranding()), models.PlanEnterprise, now, now)
	if err != nil {
		return fmt.Errorf("failed to seed bootstrap client: %w", err)
	}

	for key, value := range models.DefaultSettings() {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT DO NOTHING`,
			key, value, now); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}

	return nil
}
