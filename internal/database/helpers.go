// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package database

import (
	"database/sql"

	json "github.com/goccy/go-json"

	"github.com/parkwise/signage/internal/logging"
)

// jsonToString marshals a JSON-shaped value to its TEXT column form.
// nil maps/slices become "null"; a failed marshal falls back to "null"
// and logs, since catalogue blobs are caller-supplied and non-critical.
func jsonToString(v interface{}) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to marshal JSON column")
		return "null"
	}
	return string(b)
}

// parseJSONMap parses a TEXT column back into a map. Empty, "null", and
// malformed values all yield nil so stored garbage cannot poison reads.
func parseJSONMap(s sql.NullString) map[string]interface{} {
	if !s.Valid || s.String == "" || s.String == "null" {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		logging.Warn().Err(err).Msg("Failed to parse JSON column")
		return nil
	}
	return m
}

// parseJSONInts parses a TEXT column holding a JSON int array (schedule days).
func parseJSONInts(s sql.NullString) []int {
	if !s.Valid || s.String == "" || s.String == "null" {
		return nil
	}
	var out []int
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		logging.Warn().Err(err).Msg("Failed to parse JSON int array column")
		return nil
	}
	return out
}

// nullString converts "" to NULL for optional TEXT columns.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// stringOrEmpty unwraps a nullable TEXT column.
func stringOrEmpty(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}
