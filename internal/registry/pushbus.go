// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package registry

import (
	"context"
	"time"

	"github.com/parkwise/signage/internal/events"
	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/metrics"
	"github.com/parkwise/signage/internal/models"
	"github.com/parkwise/signage/internal/websocket"
)

// TargetAll is the literal target addressing every connected screen of
// the caller's tenant.
const TargetAll = "all"

// Target kinds, in resolution order.
const (
	TargetKindAll      = "all"
	TargetKindGroup    = "group"
	TargetKindLocation = "location"
	TargetKindScreen   = "screen"
	TargetKindNone     = "none"
)

// ResolvedTarget is a target string resolved to the connected screens it
// addresses right now. ScreenIDs holds only connected screens; Kind
// records which resolution rule matched.
type ResolvedTarget struct {
	Kind      string
	ScreenIDs []string
}

// ResolveTarget maps a target to connected screens of one tenant:
//
//  1. "all" addresses every connected screen of the tenant;
//  2. a group id matches group_id or sync_group tags;
//  3. a location id matches screens at that location;
//  4. anything else is a single screen id.
//
// A target that matches rows but none connected resolves to its kind
// with zero screens; a target matching nothing resolves to kind none.
// Neither is an error: push is idempotent fire-and-forget.
func (r *Registry) ResolveTarget(ctx context.Context, clientID, target string) (ResolvedTarget, error) {
	screens, err := r.db.ListScreens(ctx, models.ScreenFilter{ClientID: clientID})
	if err != nil {
		return ResolvedTarget{Kind: TargetKindNone}, err
	}

	pick := func(kind string, match func(*models.Screen) bool) (ResolvedTarget, bool) {
		var any bool
		var ids []string
		for _, s := range screens {
			if !match(s) {
				continue
			}
			any = true
			if r.hub.IsConnected(s.ID) {
				ids = append(ids, s.ID)
			}
		}
		return ResolvedTarget{Kind: kind, ScreenIDs: ids}, any
	}

	if target == TargetAll {
		rt, _ := pick(TargetKindAll, func(*models.Screen) bool { return true })
		return rt, nil
	}
	if rt, ok := pick(TargetKindGroup, func(s *models.Screen) bool {
		return s.GroupID == target || s.SyncGroup == target
	}); ok {
		return rt, nil
	}
	if rt, ok := pick(TargetKindLocation, func(s *models.Screen) bool {
		return s.LocationID == target
	}); ok {
		return rt, nil
	}
	if rt, ok := pick(TargetKindScreen, func(s *models.Screen) bool {
		return s.ID == target
	}); ok {
		return rt, nil
	}
	return ResolvedTarget{Kind: TargetKindNone}, nil
}

// frameFor maps an envelope to its wire frame type. Content payloads go
// out as content frames; clear, mode and reload ride command frames.
func frameFor(env models.Envelope) websocket.Frame {
	switch env.Type {
	case models.EnvelopeTypeClear:
		return websocket.Frame{Type: websocket.FrameCommandClear, Data: env}
	case models.EnvelopeTypeMode:
		return websocket.Frame{Type: websocket.FrameCommandMode, Data: env}
	case models.EnvelopeTypeReload:
		return websocket.Frame{Type: websocket.FrameCommandReload, Data: env}
	default:
		return websocket.Frame{Type: websocket.FrameContent, Data: env}
	}
}

// Push resolves the target and enqueues the envelope on every resolved
// channel. Absent or disconnected targets are a no-op success; only
// persistence failures during resolution error.
func (r *Registry) Push(ctx context.Context, clientID, target string, env models.Envelope) (models.PushResult, error) {
	resolved, err := r.ResolveTarget(ctx, clientID, target)
	if err != nil {
		return models.PushResult{}, err
	}

	result := models.PushResult{Matched: len(resolved.ScreenIDs)}
	if result.Matched == 0 {
		metrics.PushMatchedEmpty.Inc()
		logging.Debug().
			Str("target", target).
			Str("kind", resolved.Kind).
			Str("type", env.Type).
			Msg("Push matched no connected screens")
		return result, nil
	}

	result.Dispatched = r.hub.SendMany(resolved.ScreenIDs, frameFor(env))
	metrics.RecordDispatch(env.Source, env.Type, result.Dispatched)

	events.Emit(ctx, r.bus, &models.Event{
		Type:     models.EventDispatchSent,
		ClientID: clientID,
		Subject:  target,
		Payload: map[string]interface{}{
			"kind":       resolved.Kind,
			"type":       env.Type,
			"source":     env.Source,
			"matched":    result.Matched,
			"dispatched": result.Dispatched,
		},
	})

	logging.Debug().
		Str("target", target).
		Str("kind", resolved.Kind).
		Str("type", env.Type).
		Int("matched", result.Matched).
		Int("dispatched", result.Dispatched).
		Msg("Push dispatched")
	return result, nil
}

// Reload sends a reload envelope to the target.
func (r *Registry) Reload(ctx context.Context, clientID, target, source string) (models.PushResult, error) {
	return r.Push(ctx, clientID, target, models.NewEnvelope(source, models.EnvelopeTypeReload, nil))
}

// Clear removes current content from the target without reloading.
func (r *Registry) Clear(ctx context.Context, clientID, target, source string) (models.PushResult, error) {
	return r.Push(ctx, clientID, target, models.NewEnvelope(source, models.EnvelopeTypeClear, nil))
}

// ForceMode asks one screen to switch mode. The runtime mode map is not
// updated here; the screen confirms via screens:mode-update, which is
// the authoritative transition.
func (r *Registry) ForceMode(ctx context.Context, clientID, screenID, mode string) (models.PushResult, error) {
	if _, err := r.db.GetScreen(ctx, clientID, screenID); err != nil {
		return models.PushResult{}, err
	}
	env := models.NewEnvelope(models.SourceAPI, models.EnvelopeTypeMode, map[string]interface{}{
		"mode": mode,
	})
	result := models.PushResult{}
	if r.hub.IsConnected(screenID) {
		result.Matched = 1
		if r.hub.Send(screenID, frameFor(env)) {
			result.Dispatched = 1
		}
	}
	metrics.RecordDispatch(env.Source, env.Type, result.Dispatched)
	return result, nil
}

// Identify flashes each resolved screen's id on its display so installers
// can tell group members apart.
func (r *Registry) Identify(ctx context.Context, clientID, target string) (models.PushResult, error) {
	resolved, err := r.ResolveTarget(ctx, clientID, target)
	if err != nil {
		return models.PushResult{}, err
	}
	result := models.PushResult{Matched: len(resolved.ScreenIDs)}
	for _, id := range resolved.ScreenIDs {
		f := websocket.Frame{
			Type: websocket.FrameCommandIdentify,
			Data: map[string]interface{}{
				"screenId":  id,
				"timestamp": time.Now().UnixMilli(),
			},
		}
		if r.hub.Send(id, f) {
			result.Dispatched++
		}
	}
	return result, nil
}

// CaptureScreenshot asks every resolved screen to send a screenshot;
// responses land in the screenshot cache asynchronously.
func (r *Registry) CaptureScreenshot(ctx context.Context, clientID, target string) (models.PushResult, error) {
	resolved, err := r.ResolveTarget(ctx, clientID, target)
	if err != nil {
		return models.PushResult{}, err
	}
	f := websocket.Frame{
		Type: websocket.FrameCommandScreenshot,
		Data: map[string]interface{}{
			"requestedAt": time.Now().UnixMilli(),
		},
	}
	result := models.PushResult{Matched: len(resolved.ScreenIDs)}
	result.Dispatched = r.hub.SendMany(resolved.ScreenIDs, f)
	return result, nil
}
