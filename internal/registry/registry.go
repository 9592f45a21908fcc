// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/parkwise/signage/internal/database"
	"github.com/parkwise/signage/internal/events"
	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/metrics"
	"github.com/parkwise/signage/internal/models"
	"github.com/parkwise/signage/internal/websocket"
)

// ChannelHub is the slice of the websocket hub the registry drives.
// *websocket.Hub satisfies it; tests substitute a recording fake.
type ChannelHub interface {
	BindScreen(screenID, clientID string, c *websocket.Conn) bool
	CloseScreen(screenID string) bool
	Send(screenID string, f websocket.Frame) bool
	SendMany(screenIDs []string, f websocket.Frame) int
	Broadcast(f websocket.Frame) int
	IsConnected(screenID string) bool
	ConnectedCount() int
}

// SyncHooks lets the sync engine react to player traffic without the
// registry importing it. All methods must be non-blocking; they run on
// read pump goroutines.
type SyncHooks interface {
	// ScreenReady fires when a player reports it can take sync ticks.
	// The engine sends a catch-up sync:state if the group is playing.
	ScreenReady(screenID, groupID string)

	// TickAcked fires on sync:ack.
	TickAcked(screenID, groupID string, itemIndex int)
}

// Registry owns the screen catalogue and its runtime state: the
// connected-channel map (via the hub), the per-screen mode map, and the
// screenshot cache. It implements websocket.ScreenEvents.
type Registry struct {
	db    *database.DB
	hub   ChannelHub
	shots *ScreenshotStore
	bus   events.Bus

	mu    sync.RWMutex
	modes map[string]string // screen id -> signage|interactive

	hooksMu sync.RWMutex
	hooks   SyncHooks
}

// New creates a registry. bus may be NopBus when the event pipeline is
// disabled; shots may be nil to disable the screenshot cache.
func New(db *database.DB, hub ChannelHub, shots *ScreenshotStore, bus events.Bus) *Registry {
	if bus == nil {
		bus = events.NopBus{}
	}
	return &Registry{
		db:    db,
		hub:   hub,
		shots: shots,
		bus:   bus,
		modes: make(map[string]string),
	}
}

// SetSyncHooks wires the sync engine in after construction.
func (r *Registry) SetSyncHooks(h SyncHooks) {
	r.hooksMu.Lock()
	r.hooks = h
	r.hooksMu.Unlock()
}

func (r *Registry) syncHooks() SyncHooks {
	r.hooksMu.RLock()
	defer r.hooksMu.RUnlock()
	return r.hooks
}

// ScreenRegistered persists the self-reported registration, binds the
// channel, and seeds the runtime mode. Idempotent: re-registering the
// same id updates the row and replaces any previous channel.
func (r *Registry) ScreenRegistered(conn *websocket.Conn, reg *websocket.RegisterFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientID := reg.ClientID
	if clientID == "" {
		clientID = models.BootstrapClientID
	}

	// The row's prior state decides which lifecycle event this is.
	prev, err := r.db.GetScreen(ctx, "", reg.ScreenID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		logging.Error().Err(err).Str("screen_id", reg.ScreenID).Msg("Registration lookup failed")
		return
	}

	screen, err := r.db.UpsertScreen(ctx, &models.ScreenRegistration{
		ID:           reg.ScreenID,
		Name:         reg.Name,
		ClientID:     clientID,
		GroupID:      reg.GroupID,
		LocationID:   reg.LocationID,
		Type:         reg.Type,
		Platform:     reg.Platform,
		Resolution:   reg.Resolution,
		Orientation:  reg.Orientation,
		Capabilities: reg.Capabilities,
	})
	if err != nil {
		logging.Error().Err(err).Str("screen_id", reg.ScreenID).Msg("Registration upsert failed")
		return
	}

	r.hub.BindScreen(screen.ID, screen.ClientID, conn)
	r.setMode(screen.ID, models.ModeSignage)
	metrics.ScreenRegistrations.Inc()

	eventType := models.EventScreenRegistered
	if prev != nil {
		eventType = models.EventScreenOnline
	}
	events.Emit(ctx, r.bus, &models.Event{
		Type:     eventType,
		ClientID: screen.ClientID,
		Subject:  screen.ID,
		Payload: map[string]interface{}{
			"name":     screen.Name,
			"platform": screen.Platform,
		},
	})

	logging.Info().
		Str("screen_id", screen.ID).
		Str("client_id", screen.ClientID).
		Str("platform", screen.Platform).
		Msg("Screen registered")
}

// ScreenHeartbeat stamps last_seen and stores an attached screenshot.
func (r *Registry) ScreenHeartbeat(hb *websocket.HeartbeatFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.db.TouchScreen(ctx, hb.ScreenID, time.Now().UnixMilli()); err != nil {
		logging.Warn().Err(err).Str("screen_id", hb.ScreenID).Msg("Heartbeat touch failed")
	}
	if hb.Screenshot != "" {
		r.storeScreenshot(hb.ScreenID, hb.Screenshot)
	}
}

// ScreenReady forwards to the sync engine for catch-up delivery.
func (r *Registry) ScreenReady(screenID, groupID string) {
	if h := r.syncHooks(); h != nil {
		h.ScreenReady(screenID, groupID)
	}
}

// SyncAcked forwards tick acknowledgements to the sync engine.
func (r *Registry) SyncAcked(screenID, groupID string, itemIndex int) {
	metrics.SyncAcks.WithLabelValues(groupID).Inc()
	if h := r.syncHooks(); h != nil {
		h.TickAcked(screenID, groupID, itemIndex)
	}
}

// ScreenshotReceived stores a command:screenshot response.
func (r *Registry) ScreenshotReceived(screenID, image string) {
	r.storeScreenshot(screenID, image)
}

func (r *Registry) storeScreenshot(screenID, image string) {
	if r.shots == nil {
		return
	}
	if err := r.shots.Put(screenID, image); err != nil {
		logging.Warn().Err(err).Str("screen_id", screenID).Msg("Screenshot store failed")
	}
}

// ModeReported accepts a screen's mode transition and rebroadcasts the
// accepted state. The screen is authoritative for its mode; forceMode
// only requests a transition.
func (r *Registry) ModeReported(screenID, mode string) {
	if mode != models.ModeSignage && mode != models.ModeInteractive {
		logging.Warn().Str("screen_id", screenID).Str("mode", mode).Msg("Ignoring unknown mode report")
		return
	}
	r.setMode(screenID, mode)
	r.hub.Broadcast(websocket.Frame{
		Type: websocket.FrameModeUpdate,
		Data: websocket.ModeFrame{ScreenID: screenID, Mode: mode},
	})
}

// ScreenDisconnected flips the row offline and clears runtime state.
func (r *Registry) ScreenDisconnected(screenID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r.clearMode(screenID)

	screen, err := r.db.GetScreen(ctx, "", screenID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			logging.Warn().Err(err).Str("screen_id", screenID).Msg("Disconnect lookup failed")
		}
		return
	}

	if err := r.db.SetScreenStatus(ctx, screenID, models.ScreenStatusOffline); err != nil {
		logging.Warn().Err(err).Str("screen_id", screenID).Msg("Disconnect status flip failed")
	}

	events.Emit(ctx, r.bus, &models.Event{
		Type:     models.EventScreenOffline,
		ClientID: screen.ClientID,
		Subject:  screenID,
		Payload:  map[string]interface{}{"reason": "disconnect"},
	})

	logging.Info().Str("screen_id", screenID).Msg("Screen disconnected")
}

// CurrentMode returns a screen's runtime mode, defaulting to signage.
func (r *Registry) CurrentMode(screenID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.modes[screenID]; ok {
		return m
	}
	return models.ModeSignage
}

func (r *Registry) setMode(screenID, mode string) {
	r.mu.Lock()
	r.modes[screenID] = mode
	r.mu.Unlock()
}

func (r *Registry) clearMode(screenID string) {
	r.mu.Lock()
	delete(r.modes, screenID)
	r.mu.Unlock()
}

// Decorate stitches runtime connectivity and mode onto persisted rows.
func (r *Registry) Decorate(screens []*models.Screen) {
	for _, s := range screens {
		s.Connected = r.hub.IsConnected(s.ID)
		if s.Connected {
			s.CurrentMode = r.CurrentMode(s.ID)
		}
	}
}

// ListScreens returns filtered rows with runtime state stitched on.
func (r *Registry) ListScreens(ctx context.Context, filter models.ScreenFilter) ([]*models.Screen, error) {
	screens, err := r.db.ListScreens(ctx, filter)
	if err != nil {
		return nil, err
	}
	r.Decorate(screens)
	return screens, nil
}

// GetScreen returns one row with runtime state stitched on.
func (r *Registry) GetScreen(ctx context.Context, clientID, id string) (*models.Screen, error) {
	screen, err := r.db.GetScreen(ctx, clientID, id)
	if err != nil {
		return nil, err
	}
	r.Decorate([]*models.Screen{screen})
	return screen, nil
}

// RegisterScreen persists an admin-side registration (POST /api/screens).
// Unlike player self-registration it does not bind a channel.
func (r *Registry) RegisterScreen(ctx context.Context, reg *models.ScreenRegistration) (*models.Screen, error) {
	if reg.ClientID == "" {
		reg.ClientID = models.BootstrapClientID
	}
	screen, err := r.db.UpsertScreen(ctx, reg)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, r.bus, &models.Event{
		Type:     models.EventScreenRegistered,
		ClientID: screen.ClientID,
		Subject:  screen.ID,
		Payload:  map[string]interface{}{"name": screen.Name, "via": "api"},
	})
	r.Decorate([]*models.Screen{screen})
	return screen, nil
}

// UpdateScreen applies an admin patch and reports the change.
func (r *Registry) UpdateScreen(ctx context.Context, clientID, id string, patch *models.ScreenPatch) (*models.Screen, error) {
	screen, err := r.db.UpdateScreen(ctx, clientID, id, patch)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, r.bus, &models.Event{
		Type:     models.EventRegistryChanged,
		ClientID: screen.ClientID,
		Subject:  screen.ID,
		Payload:  map[string]interface{}{"change": "update"},
	})
	r.Decorate([]*models.Screen{screen})
	return screen, nil
}

// DeleteScreen removes the row and closes any live channel.
func (r *Registry) DeleteScreen(ctx context.Context, clientID, id string) error {
	screen, err := r.db.GetScreen(ctx, clientID, id)
	if err != nil {
		return err
	}
	if err := r.db.DeleteScreen(ctx, clientID, id); err != nil {
		return err
	}

	r.hub.CloseScreen(id)
	r.clearMode(id)
	if r.shots != nil {
		if err := r.shots.Delete(id); err != nil {
			logging.Warn().Err(err).Str("screen_id", id).Msg("Screenshot delete failed")
		}
	}

	events.Emit(ctx, r.bus, &models.Event{
		Type:     models.EventScreenDeleted,
		ClientID: screen.ClientID,
		Subject:  id,
	})
	return nil
}

// Screenshot returns the cached screenshot for a screen.
func (r *Registry) Screenshot(screenID string) (*Screenshot, error) {
	if r.shots == nil {
		return nil, ErrScreenshotNotFound
	}
	return r.shots.Get(screenID)
}
