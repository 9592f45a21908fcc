// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"errors"
	"net/http"

	"github.com/parkwise/signage/internal/database"
	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/models"
	"github.com/parkwise/signage/internal/playout"
	"github.com/parkwise/signage/internal/registry"
)

// mapError translates a domain error into an HTTP status and error code.
// Anything unrecognized is an internal failure; DEPENDENCY_FAILED never
// reaches this path because collector and bus errors are absorbed below
// the HTTP layer.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, registry.ErrScreenshotNotFound):
		return http.StatusNotFound, models.ErrCodeNotFound
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict, models.ErrCodeConflict
	case errors.Is(err, database.ErrForbidden):
		return http.StatusForbidden, models.ErrCodeForbidden
	case errors.Is(err, playout.ErrEmptyPlaylist):
		return http.StatusBadRequest, models.ErrCodeEmptyPlaylist
	case errors.Is(err, playout.ErrNotPlaying), errors.Is(err, playout.ErrBadItemIndex):
		return http.StatusBadRequest, models.ErrCodeInvalidInput
	default:
		return http.StatusInternalServerError, models.ErrCodeInternal
	}
}

// respondDomainError maps err onto the wire. Expected domain errors keep
// their message; unexpected ones are logged in full and answered with a
// generic message so internals never leak to callers.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code := mapError(err)
	if status == http.StatusInternalServerError {
		logging.Error().Err(err).Msg("Request failed")
		respondError(w, status, code, "unexpected internal error", nil)
		return
	}
	respondError(w, status, code, err.Error(), nil)
}
