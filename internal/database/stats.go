// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/parkwise/signage/internal/metrics"
	"github.com/parkwise/signage/internal/models"
)

// GetDashboardStats aggregates catalogue counts for one tenant, or for
// every tenant when clientID is empty. Runtime-only figures (connected
// screens, playing groups, dropped messages) are filled in by the caller
// from the registry and sync engine.
func (db *DB) GetDashboardStats(ctx context.Context, clientID string) (*models.DashboardStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	stats := &models.DashboardStats{}

	scoped := func(table string) (string, []interface{}) {
		q := `SELECT COUNT(*) FROM ` + table
		if clientID == "" {
			return q, nil
		}
		return q + ` WHERE client_id = ?`, []interface{}{clientID}
	}

	count := func(query string, args ...interface{}) (int, error) {
		var n int
		err := db.conn.QueryRowContext(ctx, query, args...).Scan(&n)
		return n, err
	}

	var err error
	if clientID == "" {
		if stats.Clients, err = count(`SELECT COUNT(*) FROM clients`); err != nil {
			return nil, fmt.Errorf("failed to count clients: %w", err)
		}
	} else {
		stats.Clients = 1
	}

	q, args := scoped("locations")
	if stats.Locations, err = count(q, args...); err != nil {
		return nil, fmt.Errorf("failed to count locations: %w", err)
	}

	q, args = scoped("playlists")
	if stats.Playlists, err = count(q, args...); err != nil {
		return nil, fmt.Errorf("failed to count playlists: %w", err)
	}

	q, args = scoped("announcements")
	if stats.Announcements, err = count(q, args...); err != nil {
		return nil, fmt.Errorf("failed to count announcements: %w", err)
	}

	q, args = scoped("screens")
	if stats.Screens.Total, err = count(q, args...); err != nil {
		return nil, fmt.Errorf("failed to count screens: %w", err)
	}

	onlineQ := `SELECT COUNT(*) FROM screens WHERE status = 'online'`
	onlineArgs := []interface{}{}
	if clientID != "" {
		onlineQ += ` AND client_id = ?`
		onlineArgs = append(onlineArgs, clientID)
	}
	if stats.Screens.Online, err = count(onlineQ, onlineArgs...); err != nil {
		return nil, fmt.Errorf("failed to count online screens: %w", err)
	}
	stats.Screens.Offline = stats.Screens.Total - stats.Screens.Online

	q, args = scoped("schedules")
	if stats.Schedules.Total, err = count(q, args...); err != nil {
		return nil, fmt.Errorf("failed to count schedules: %w", err)
	}

	enabledQ := `SELECT COUNT(*) FROM schedules WHERE enabled = TRUE`
	enabledArgs := []interface{}{}
	if clientID != "" {
		enabledQ += ` AND client_id = ?`
		enabledArgs = append(enabledArgs, clientID)
	}
	if stats.Schedules.Enabled, err = count(enabledQ, enabledArgs...); err != nil {
		return nil, fmt.Errorf("failed to count enabled schedules: %w", err)
	}

	q, args = scoped("sync_groups")
	if stats.SyncGroups.Total, err = count(q, args...); err != nil {
		return nil, fmt.Errorf("failed to count sync groups: %w", err)
	}

	metrics.RecordDBQuery("dashboard_stats", "all", time.Since(start), nil)
	return stats, nil
}
