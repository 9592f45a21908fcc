// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/parkwise/signage/internal/logging"
)

// Sentinel errors the HTTP layer maps to response codes. Callers test with
// errors.Is; the wrapped message carries the entity and id.
var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on unique-constraint violations (duplicate
	// client slug, duplicate setting key in one batch).
	ErrConflict = errors.New("conflict")

	// ErrForbidden is returned for mutations the model forbids, such as
	// deleting the bootstrap tenant.
	ErrForbidden = errors.New("forbidden")
)

// isUniqueViolation reports whether err is a DuckDB unique/primary key
// constraint failure. The driver exposes no typed error for this, so the
// check is textual, matching both current and older message forms.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "Constraint Error")
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}

// closeWithLog closes a resource and logs any error. Use this for cleanup
// where errors should be acknowledged but not fail the operation.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}
