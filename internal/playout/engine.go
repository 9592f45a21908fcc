// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package playout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/parkwise/signage/internal/database"
	"github.com/parkwise/signage/internal/events"
	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/metrics"
	"github.com/parkwise/signage/internal/models"
	"github.com/parkwise/signage/internal/websocket"
)

// Sentinel errors the HTTP layer maps to response codes.
var (
	// ErrEmptyPlaylist is returned when play resolves to a playlist with
	// no items (or a group with no playlist bound at all).
	ErrEmptyPlaylist = errors.New("playlist has no items")

	// ErrNotPlaying is returned for controls that only apply to a
	// playing group, such as seek.
	ErrNotPlaying = errors.New("group is not playing")

	// ErrBadItemIndex is returned when a seek index falls outside the
	// current item list.
	ErrBadItemIndex = errors.New("item index out of range")
)

// fallbackItemSeconds guards against rows written before duration
// validation; the engine never arms a zero-duration timer.
const fallbackItemSeconds = 10

// Hub is the subset of the screen channel hub the engine dispatches
// through.
type Hub interface {
	Send(screenID string, f websocket.Frame) bool
	SendMany(screenIDs []string, f websocket.Frame) int
	IsConnected(screenID string) bool
}

// groupRun is the live playback state of one group plus its pending
// timer. gen identifies the run; a fired timer carrying an older gen is
// stale and must not advance.
type groupRun struct {
	clientID string
	state    models.SyncState
	gen      uint64
	timer    *time.Timer
}

// Engine owns the sync state map and all playback timers.
type Engine struct {
	db  *database.DB
	hub Hub
	bus events.Bus

	mu   sync.Mutex
	runs map[string]*groupRun
	gen  uint64
}

// New builds an engine over the catalogue, the screen hub and the event
// bus. A nil bus disables event emission.
func New(db *database.DB, hub Hub, bus events.Bus) *Engine {
	if bus == nil {
		bus = events.NopBus{}
	}
	return &Engine{
		db:   db,
		hub:  hub,
		bus:  bus,
		runs: make(map[string]*groupRun),
	}
}

// Play starts coordinated playback for a group at item 0. A playing
// group is restarted: the pending tick is cancelled and the run
// superseded. playlistID overrides the group's bound playlist when set.
func (e *Engine) Play(ctx context.Context, clientID, groupID, playlistID string) (*models.SyncState, error) {
	group, err := e.db.GetSyncGroup(ctx, clientID, groupID)
	if err != nil {
		return nil, err
	}

	pid := playlistID
	if pid == "" {
		pid = group.PlaylistID
	}
	if pid == "" {
		return nil, fmt.Errorf("sync group %s has no playlist: %w", groupID, ErrEmptyPlaylist)
	}

	playlist, err := e.db.GetPlaylist(ctx, clientID, pid)
	if err != nil {
		return nil, err
	}
	if playlist.IsEmpty() {
		return nil, fmt.Errorf("playlist %s: %w", playlist.ID, ErrEmptyPlaylist)
	}

	members, err := e.db.ListSyncGroupScreens(ctx, groupID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if prev, ok := e.runs[groupID]; ok {
		if prev.timer != nil {
			prev.timer.Stop()
		}
	}

	e.gen++
	run := &groupRun{
		clientID: clientID,
		gen:      e.gen,
		state: models.SyncState{
			GroupID:    groupID,
			PlaylistID: playlist.ID,
			Mode:       group.Mode,
			Playing:    true,
			ItemIndex:  0,
			StartedAt:  time.Now().UnixMilli(),
			Items:      playlist.Items,
		},
	}
	e.runs[groupID] = run
	metrics.SyncGroupsPlaying.Set(float64(len(e.runs)))

	e.fanOutLocked(run, members)
	e.scheduleLocked(run)

	events.Emit(ctx, e.bus, &models.Event{
		Type:     models.EventSyncPlayback,
		ClientID: clientID,
		Subject:  groupID,
		Payload: map[string]interface{}{
			"action":     "play",
			"playlistId": playlist.ID,
			"mode":       group.Mode,
			"items":      len(playlist.Items),
		},
	})

	logging.Info().
		Str("group_id", groupID).
		Str("playlist_id", playlist.ID).
		Str("mode", group.Mode).
		Int("items", len(playlist.Items)).
		Int("members", len(members)).
		Msg("Sync playback started")

	st := run.state
	return &st, nil
}

// Stop cancels the pending tick and discards the group's state. Stopping
// an idle group is a no-op success; members of a stopped run receive a
// final sync:state so players can settle.
func (e *Engine) Stop(ctx context.Context, clientID, groupID string) error {
	if _, err := e.db.GetSyncGroup(ctx, clientID, groupID); err != nil {
		return err
	}

	e.mu.Lock()
	run, ok := e.runs[groupID]
	if ok {
		if run.timer != nil {
			run.timer.Stop()
		}
		delete(e.runs, groupID)
		metrics.SyncGroupsPlaying.Set(float64(len(e.runs)))
	}
	e.mu.Unlock()

	if !ok {
		return nil
	}

	members, err := e.db.ListSyncGroupScreens(ctx, groupID)
	if err == nil {
		e.hub.SendMany(screenIDs(members), websocket.Frame{
			Type: websocket.FrameSyncState,
			Data: map[string]interface{}{
				"groupId":   groupID,
				"playing":   false,
				"timestamp": time.Now().UnixMilli(),
			},
		})
	}

	events.Emit(ctx, e.bus, &models.Event{
		Type:     models.EventSyncPlayback,
		ClientID: clientID,
		Subject:  groupID,
		Payload:  map[string]interface{}{"action": "stop"},
	})

	logging.Info().Str("group_id", groupID).Msg("Sync playback stopped")
	return nil
}

// Seek jumps a playing group to itemIndex, re-broadcasts position and
// content, and re-arms the timer for the new item.
func (e *Engine) Seek(ctx context.Context, clientID, groupID string, itemIndex int) (*models.SyncState, error) {
	if _, err := e.db.GetSyncGroup(ctx, clientID, groupID); err != nil {
		return nil, err
	}
	members, err := e.db.ListSyncGroupScreens(ctx, groupID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	run, ok := e.runs[groupID]
	if !ok {
		return nil, fmt.Errorf("sync group %s: %w", groupID, ErrNotPlaying)
	}
	if itemIndex < 0 || itemIndex >= len(run.state.Items) {
		return nil, fmt.Errorf("index %d outside 0..%d: %w", itemIndex, len(run.state.Items)-1, ErrBadItemIndex)
	}

	if run.timer != nil {
		run.timer.Stop()
	}
	e.gen++
	run.gen = e.gen
	run.state.ItemIndex = itemIndex
	run.state.StartedAt = time.Now().UnixMilli()

	e.broadcastStepLocked(run, members, websocket.FrameSyncSeek)
	e.fanOutLocked(run, members)
	e.scheduleLocked(run)

	events.Emit(ctx, e.bus, &models.Event{
		Type:     models.EventSyncPlayback,
		ClientID: clientID,
		Subject:  groupID,
		Payload:  map[string]interface{}{"action": "seek", "itemIndex": itemIndex},
	})

	st := run.state
	return &st, nil
}

// Status returns a copy of the group's runtime state. The second return
// reports whether the group is playing; idle groups get a zero-state
// skeleton.
func (e *Engine) Status(groupID string) (models.SyncState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	run, ok := e.runs[groupID]
	if !ok {
		return models.SyncState{GroupID: groupID}, false
	}
	st := run.state
	st.Items = append([]models.PlaylistItem(nil), run.state.Items...)
	return st, true
}

// PlayingCount returns how many groups are currently playing, optionally
// scoped to one tenant (empty clientID counts every tenant).
func (e *Engine) PlayingCount(clientID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, run := range e.runs {
		if clientID == "" || run.clientID == clientID {
			n++
		}
	}
	return n
}

// Identify flashes every member's on-screen id.
func (e *Engine) Identify(ctx context.Context, clientID, groupID string) (models.PushResult, error) {
	return e.command(ctx, clientID, groupID, websocket.FrameCommandIdentify)
}

// Screenshot asks every member for a screenshot; responses land in the
// screenshot cache asynchronously.
func (e *Engine) Screenshot(ctx context.Context, clientID, groupID string) (models.PushResult, error) {
	return e.command(ctx, clientID, groupID, websocket.FrameCommandScreenshot)
}

func (e *Engine) command(ctx context.Context, clientID, groupID, frameType string) (models.PushResult, error) {
	if _, err := e.db.GetSyncGroup(ctx, clientID, groupID); err != nil {
		return models.PushResult{}, err
	}
	members, err := e.db.ListSyncGroupScreens(ctx, groupID)
	if err != nil {
		return models.PushResult{}, err
	}

	result := models.PushResult{Matched: len(members)}
	now := time.Now().UnixMilli()
	for _, m := range members {
		f := websocket.Frame{
			Type: frameType,
			Data: map[string]interface{}{
				"screenId":  m.ID,
				"groupId":   groupID,
				"timestamp": now,
			},
		}
		if e.hub.Send(m.ID, f) {
			result.Dispatched++
		}
	}
	return result, nil
}

// AttachScreens adds screens to the group in attachment order. Screens
// attached to a playing group receive a catch-up sync:state immediately.
// Returns the resulting ordered member list.
func (e *Engine) AttachScreens(ctx context.Context, clientID, groupID string, screenIDs []string) ([]*models.Screen, error) {
	if _, err := e.db.GetSyncGroup(ctx, clientID, groupID); err != nil {
		return nil, err
	}
	for _, id := range screenIDs {
		if err := e.db.AttachScreenToSyncGroup(ctx, clientID, id, groupID); err != nil {
			return nil, err
		}
	}
	members, err := e.db.ListSyncGroupScreens(ctx, groupID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if run, ok := e.runs[groupID]; ok {
		for _, id := range screenIDs {
			e.catchUpLocked(run, members, id)
		}
	}
	e.mu.Unlock()

	events.Emit(ctx, e.bus, &models.Event{
		Type:     models.EventRegistryChanged,
		ClientID: clientID,
		Subject:  groupID,
		Payload:  map[string]interface{}{"action": "sync_attach", "screens": len(screenIDs)},
	})
	return members, nil
}

// DetachScreen removes one member. The screen must belong to this group;
// membership in another group is treated as not found.
func (e *Engine) DetachScreen(ctx context.Context, clientID, groupID, screenID string) error {
	if _, err := e.db.GetSyncGroup(ctx, clientID, groupID); err != nil {
		return err
	}
	screen, err := e.db.GetScreen(ctx, clientID, screenID)
	if err != nil {
		return err
	}
	if screen.SyncGroup != groupID {
		return fmt.Errorf("screen %s is not in group %s: %w", screenID, groupID, database.ErrNotFound)
	}
	if err := e.db.DetachScreenFromSyncGroup(ctx, clientID, screenID); err != nil {
		return err
	}

	events.Emit(ctx, e.bus, &models.Event{
		Type:     models.EventRegistryChanged,
		ClientID: clientID,
		Subject:  groupID,
		Payload:  map[string]interface{}{"action": "sync_detach", "screenId": screenID},
	})
	return nil
}

// DeleteGroup cancels any pending tick, removes the group row and
// unassigns its members in one transaction.
func (e *Engine) DeleteGroup(ctx context.Context, clientID, groupID string) error {
	if _, err := e.db.GetSyncGroup(ctx, clientID, groupID); err != nil {
		return err
	}

	e.mu.Lock()
	if run, ok := e.runs[groupID]; ok {
		if run.timer != nil {
			run.timer.Stop()
		}
		delete(e.runs, groupID)
		metrics.SyncGroupsPlaying.Set(float64(len(e.runs)))
	}
	e.mu.Unlock()

	if err := e.db.DeleteSyncGroup(ctx, clientID, groupID); err != nil {
		return err
	}

	events.Emit(ctx, e.bus, &models.Event{
		Type:     models.EventRegistryChanged,
		ClientID: clientID,
		Subject:  groupID,
		Payload:  map[string]interface{}{"action": "sync_group_deleted"},
	})
	return nil
}

// Shutdown cancels every pending timer. Screens keep their last content;
// a restarted server begins idle.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, run := range e.runs {
		if run.timer != nil {
			run.timer.Stop()
		}
		delete(e.runs, id)
	}
	metrics.SyncGroupsPlaying.Set(0)
}

// ScreenReady sends a catch-up sync:state when a screen's player reports
// ready and its group is mid-run. Satisfies the registry's sync hooks.
func (e *Engine) ScreenReady(screenID, groupID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gid := groupID
	if gid == "" {
		screen, err := e.db.GetScreen(ctx, "", screenID)
		if err != nil {
			return
		}
		gid = screen.SyncGroup
	}
	if gid == "" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	run, ok := e.runs[gid]
	if !ok {
		return
	}
	members, err := e.db.ListSyncGroupScreens(ctx, gid)
	if err != nil {
		logging.Warn().Err(err).Str("group_id", gid).Msg("Catch-up member list failed")
		return
	}
	e.catchUpLocked(run, members, screenID)
}

// TickAcked records a member's tick acknowledgement. Baseline drift
// handling observes only; timers stay authoritative.
func (e *Engine) TickAcked(screenID, groupID string, itemIndex int) {
	e.mu.Lock()
	run, ok := e.runs[groupID]
	var lagMS int64
	var stale bool
	if ok {
		lagMS = time.Now().UnixMilli() - run.state.StartedAt
		stale = itemIndex != run.state.ItemIndex
	}
	e.mu.Unlock()

	if !ok {
		return
	}
	logging.Debug().
		Str("screen_id", screenID).
		Str("group_id", groupID).
		Int("item_index", itemIndex).
		Int64("ack_lag_ms", lagMS).
		Bool("stale", stale).
		Msg("Sync tick acknowledged")
}

// advance is the timer callback: step the playhead, broadcast, re-arm.
func (e *Engine) advance(groupID string, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	e.mu.Lock()
	defer e.mu.Unlock()

	run, ok := e.runs[groupID]
	if !ok || run.gen != gen {
		return // superseded by stop, seek or replay
	}

	run.state.ItemIndex = (run.state.ItemIndex + 1) % len(run.state.Items)
	run.state.StartedAt = time.Now().UnixMilli()

	members, err := e.db.ListSyncGroupScreens(ctx, groupID)
	if err != nil {
		logging.Warn().Err(err).Str("group_id", groupID).Msg("Tick member list failed")
		e.scheduleLocked(run) // keep the rotation alive
		return
	}

	e.broadcastStepLocked(run, members, websocket.FrameSyncTick)
	e.fanOutLocked(run, members)
	metrics.SyncTicks.WithLabelValues(groupID).Inc()
	e.scheduleLocked(run)
}

// scheduleLocked arms the one-shot timer for the current item.
func (e *Engine) scheduleLocked(run *groupRun) {
	groupID := run.state.GroupID
	gen := run.gen
	run.timer = time.AfterFunc(itemDuration(run.state.CurrentItem()), func() {
		e.advance(groupID, gen)
	})
}

// broadcastStepLocked announces the playhead position to every member.
// Used for both sync:tick (timer advance) and sync:seek (manual jump).
func (e *Engine) broadcastStepLocked(run *groupRun, members []*models.Screen, frameType string) {
	e.hub.SendMany(screenIDs(members), websocket.Frame{
		Type: frameType,
		Data: map[string]interface{}{
			"groupId":   run.state.GroupID,
			"itemIndex": run.state.ItemIndex,
			"timestamp": run.state.StartedAt,
			"duration":  run.state.CurrentItem().Duration,
		},
	})
}

// fanOutLocked sends each member its mode-resolved content payload.
func (e *Engine) fanOutLocked(run *groupRun, members []*models.Screen) {
	total := len(members)
	for i, m := range members {
		env := e.memberEnvelope(run, i, total)
		if e.hub.Send(m.ID, websocket.Frame{Type: websocket.FrameContent, Data: env}) {
			metrics.RecordDispatch(models.SourceSync, env.Type, 1)
		}
	}
}

// memberEnvelope resolves what the member at position pos should show.
func (e *Engine) memberEnvelope(run *groupRun, pos, total int) models.Envelope {
	idx := run.state.ItemIndex
	if run.state.Mode == models.SyncModeComplementary {
		idx = (run.state.ItemIndex + pos) % len(run.state.Items)
	}
	item := run.state.Items[idx]

	content := map[string]interface{}{
		"groupId":     run.state.GroupID,
		"mode":        run.state.Mode,
		"itemIndex":   idx,
		"item":        item,
		"screenIndex": pos,
	}
	if run.state.Mode == models.SyncModeSpan {
		content["viewport"] = models.Viewport{ScreenIndex: pos, TotalScreens: total}
	}
	return models.NewEnvelope(models.SourceSync, envelopeTypeFor(item), content)
}

// catchUpLocked sends one screen the full current position so it can
// join a run mid-item.
func (e *Engine) catchUpLocked(run *groupRun, members []*models.Screen, screenID string) {
	pos := -1
	for i, m := range members {
		if m.ID == screenID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}

	env := e.memberEnvelope(run, pos, len(members))
	data := map[string]interface{}{
		"groupId":   run.state.GroupID,
		"playing":   true,
		"mode":      run.state.Mode,
		"itemIndex": run.state.ItemIndex,
		"startedAt": run.state.StartedAt,
		"duration":  run.state.CurrentItem().Duration,
		"timestamp": time.Now().UnixMilli(),
		"content":   env,
	}
	e.hub.Send(screenID, websocket.Frame{Type: websocket.FrameSyncState, Data: data})
}

// envelopeTypeFor maps a playlist item onto the push envelope vocabulary.
// Templates render client-side and ride the widget type.
func envelopeTypeFor(item models.PlaylistItem) string {
	switch item.ContentType {
	case models.ContentTypeURL:
		return models.EnvelopeTypeURL
	case models.ContentTypeWidget, models.ContentTypeTemplate:
		return models.EnvelopeTypeWidget
	default:
		return models.EnvelopeTypeMedia
	}
}

func itemDuration(item models.PlaylistItem) time.Duration {
	if item.Duration <= 0 {
		return fallbackItemSeconds * time.Second
	}
	return time.Duration(item.Duration) * time.Second
}

func screenIDs(screens []*models.Screen) []string {
	ids := make([]string, len(screens))
	for i, s := range screens {
		ids[i] = s.ID
	}
	return ids
}
