// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"context"
	"net/http"

	"github.com/parkwise/signage/internal/models"
)

// fallbackAlertExpireMS is used when the alert_auto_expire_ms setting is
// unreadable. Matches the seeded default.
const fallbackAlertExpireMS = 30000

// dispatch turns a validated push request into a bus dispatch. Alerts
// with no duration borrow the auto-expire setting so screens always know
// when to dismiss.
func (h *Handler) dispatch(ctx context.Context, clientID string, req *models.PushRequest) (models.PushResult, error) {
	switch req.Type {
	case models.EnvelopeTypeClear:
		return h.registry.Clear(ctx, clientID, req.Target, models.SourceAPI)
	case models.EnvelopeTypeReload:
		return h.registry.Reload(ctx, clientID, req.Target, models.SourceAPI)
	case models.EnvelopeTypeAlert:
		level := req.Level
		if level == "" {
			level = models.AlertLevelInfo
		}
		duration := req.Duration
		if duration <= 0 {
			duration = int64(h.db.GetSettingInt(ctx, models.SettingAlertAutoExpireMS, fallbackAlertExpireMS))
		}
		env := models.NewAlertEnvelope(models.SourceAPI, level, duration, req.Content)
		return h.registry.Push(ctx, clientID, req.Target, env)
	default:
		env := models.NewEnvelope(models.SourceAPI, req.Type, req.Content)
		return h.registry.Push(ctx, clientID, req.Target, env)
	}
}

// Push is the generic dispatch endpoint: resolve target, wrap content in
// an envelope stamped source=api, fan out. Zero matches is still success.
func (h *Handler) Push(w http.ResponseWriter, r *http.Request) {
	var req models.PushRequest
	if !decodeValid(w, r, &req) {
		return
	}

	result, err := h.dispatch(r.Context(), TenantID(r.Context()), &req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, result)
}

// PushWidget dispatches a widget envelope.
func (h *Handler) PushWidget(w http.ResponseWriter, r *http.Request) {
	var req models.WidgetPushRequest
	if !decodeValid(w, r, &req) {
		return
	}

	env := models.NewEnvelope(models.SourceAPI, models.EnvelopeTypeWidget, map[string]interface{}{
		"widget": req.Widget,
		"config": req.Config,
	})
	result, err := h.registry.Push(r.Context(), TenantID(r.Context()), req.Target, env)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, result)
}

// PushAlert dispatches an alert. Duration zero falls back to the
// alert_auto_expire_ms setting; screens auto-dismiss after that long.
func (h *Handler) PushAlert(w http.ResponseWriter, r *http.Request) {
	var req models.AlertPushRequest
	if !decodeValid(w, r, &req) {
		return
	}

	level := req.Level
	if level == "" {
		level = models.AlertLevelInfo
	}
	duration := req.Duration
	if duration <= 0 {
		duration = int64(h.db.GetSettingInt(r.Context(), models.SettingAlertAutoExpireMS, fallbackAlertExpireMS))
	}

	env := models.NewAlertEnvelope(models.SourceAPI, level, duration, map[string]interface{}{
		"message": req.Message,
	})
	result, err := h.registry.Push(r.Context(), TenantID(r.Context()), req.Target, env)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, result)
}

// PushClear blanks the target. An empty target clears the whole tenant.
func (h *Handler) PushClear(w http.ResponseWriter, r *http.Request) {
	var req models.ClearRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	target := req.Target
	if target == "" {
		target = "all"
	}

	result, err := h.registry.Clear(r.Context(), TenantID(r.Context()), target, models.SourceAPI)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, result)
}

// ReloadAll asks every connected screen of the tenant to reload its
// player shell.
func (h *Handler) ReloadAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.registry.Reload(r.Context(), TenantID(r.Context()), "all", models.SourceAPI)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, result)
}
