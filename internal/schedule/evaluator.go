// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parkwise/signage/internal/database"
	"github.com/parkwise/signage/internal/events"
	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/metrics"
	"github.com/parkwise/signage/internal/models"
)

// Pusher is the slice of push bus behaviour the evaluator needs.
type Pusher interface {
	Push(ctx context.Context, clientID, target string, env models.Envelope) (models.PushResult, error)
	Clear(ctx context.Context, clientID, target, source string) (models.PushResult, error)
}

// Config holds evaluation cadence settings.
type Config struct {
	// Interval is the fixed wall-clock evaluation period.
	Interval time.Duration

	// MutationDelay is how long a mutation nudge is held so bursts of
	// schedule edits coalesce into one evaluation.
	MutationDelay time.Duration
}

// DefaultConfig returns production cadence defaults.
func DefaultConfig() Config {
	return Config{
		Interval:      time.Minute,
		MutationDelay: 5 * time.Second,
	}
}

// targetKey identifies one dispatch target within one tenant. The
// last-applied bookkeeping is keyed per tenant so identical target
// strings in different tenants never shadow each other.
type targetKey struct {
	clientID string
	target   string
}

// Evaluator periodically selects, per target, the highest-priority
// matching schedule and dispatches its playlist when the selection
// changed. Evaluation passes are serialized; the loop is the only
// steady-state caller.
//
// Windows match in the target's timezone: a location target (or a screen
// pinned to a location) uses the location's IANA zone, everything else
// the server zone.
type Evaluator struct {
	db     *database.DB
	push   Pusher
	bus    events.Bus
	config Config

	// evalMu serializes passes and guards applied and zones.
	evalMu  sync.Mutex
	applied map[targetKey]string
	zones   map[string]*time.Location

	nudgeCh chan struct{}

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates an evaluator. bus may be nil when the event pipeline is
// disabled.
func New(db *database.DB, push Pusher, bus events.Bus, cfg Config) *Evaluator {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MutationDelay <= 0 {
		cfg.MutationDelay = 5 * time.Second
	}
	if bus == nil {
		bus = events.NopBus{}
	}
	return &Evaluator{
		db:      db,
		push:    push,
		bus:     bus,
		config:  cfg,
		applied: make(map[targetKey]string),
		zones:   make(map[string]*time.Location),
		nudgeCh: make(chan struct{}, 1),
	}
}

// Notify requests an evaluation within the mutation delay. Safe from any
// goroutine and before Start; concurrent nudges coalesce.
func (e *Evaluator) Notify() {
	select {
	case e.nudgeCh <- struct{}{}:
	default:
	}
}

// Start begins the evaluation loop.
func (e *Evaluator) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("evaluator already running")
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.mu.Unlock()

	logging.Info().
		Dur("interval", e.config.Interval).
		Dur("mutation_delay", e.config.MutationDelay).
		Msg("Starting schedule evaluator")

	go e.run(ctx)
	return nil
}

// Stop stops the evaluation loop and waits for it to complete.
func (e *Evaluator) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	close(e.stopCh)
	<-e.doneCh

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()

	logging.Info().Msg("Schedule evaluator stopped")
	return nil
}

func (e *Evaluator) run(ctx context.Context) {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	// Evaluate immediately so restarts converge fast.
	e.Evaluate(ctx)

	for {
		select {
		case <-ticker.C:
			e.Evaluate(ctx)
		case <-e.nudgeCh:
			if !e.holdMutationDelay(ctx) {
				return
			}
			e.Evaluate(ctx)
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// holdMutationDelay waits out the mutation delay, absorbing further
// nudges into the same upcoming pass. Returns false when shut down
// during the wait.
func (e *Evaluator) holdMutationDelay(ctx context.Context) bool {
	timer := time.NewTimer(e.config.MutationDelay)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return true
		case <-e.nudgeCh:
		case <-e.stopCh:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

// Evaluate runs one pass against the current wall clock.
func (e *Evaluator) Evaluate(ctx context.Context) {
	e.evaluateAt(ctx, time.Now())
}

// evaluateAt runs one pass at the given instant: pick a winner per
// target, push selections that changed, clear targets whose last applied
// playlist no longer matches anything.
func (e *Evaluator) evaluateAt(ctx context.Context, now time.Time) (applied, cleared int) {
	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	start := time.Now()

	schedules, err := e.db.ListEnabledSchedules(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Schedule evaluation failed")
		return 0, 0
	}

	// The list is ordered priority descending, then newest createdAt, so
	// the first matching schedule per target is the winner.
	winners := make(map[targetKey]*models.Schedule)
	var order []targetKey
	zones := make(map[targetKey]*time.Location)

	for _, s := range schedules {
		k := targetKey{clientID: s.ClientID, target: s.ScreenTarget}
		if _, done := winners[k]; done {
			continue
		}

		zone, ok := zones[k]
		if !ok {
			zone = e.zoneFor(ctx, s.ClientID, s.ScreenTarget)
			zones[k] = zone
		}

		local := now.In(zone)
		if !s.MatchesDay(int(local.Weekday())) {
			continue
		}
		if !s.MatchesClock(local.Format("15:04")) {
			continue
		}

		winners[k] = s
		order = append(order, k)
	}

	for _, k := range order {
		s := winners[k]
		if e.applied[k] == s.PlaylistID {
			continue
		}
		if e.apply(ctx, k, s) {
			e.applied[k] = s.PlaylistID
			applied++
		}
	}

	for k := range e.applied {
		if _, ok := winners[k]; ok {
			continue
		}
		if _, err := e.push.Clear(ctx, k.clientID, k.target, models.SourceSchedule); err != nil {
			logging.Error().Err(err).
				Str("target", k.target).
				Msg("Schedule clear failed")
			continue
		}
		delete(e.applied, k)
		cleared++

		logging.Info().
			Str("client_id", k.clientID).
			Str("target", k.target).
			Msg("Schedule window closed, target cleared")
	}

	metrics.RecordScheduleEvaluation(time.Since(start), applied, cleared)
	return applied, cleared
}

// apply pushes the schedule's playlist to its target. Returns false when
// the playlist cannot be loaded or the push itself errors; the selection
// is then not recorded, so the next pass retries.
func (e *Evaluator) apply(ctx context.Context, k targetKey, s *models.Schedule) bool {
	playlist, err := e.db.GetPlaylist(ctx, k.clientID, s.PlaylistID)
	if err != nil {
		logging.Warn().Err(err).
			Str("schedule_id", s.ID).
			Str("playlist_id", s.PlaylistID).
			Msg("Scheduled playlist unavailable")
		return false
	}

	env := models.NewEnvelope(models.SourceSchedule, models.EnvelopeTypePlaylist, map[string]interface{}{
		"playlistId": playlist.ID,
		"playlist":   playlist,
		"scheduleId": s.ID,
	})
	result, err := e.push.Push(ctx, k.clientID, k.target, env)
	if err != nil {
		logging.Error().Err(err).
			Str("schedule_id", s.ID).
			Str("target", k.target).
			Msg("Schedule push failed")
		return false
	}

	events.Emit(ctx, e.bus, &models.Event{
		Type:     models.EventScheduleApplied,
		ClientID: k.clientID,
		Subject:  s.ID,
		Payload: map[string]interface{}{
			"playlistId": playlist.ID,
			"target":     k.target,
			"priority":   s.Priority,
			"matched":    result.Matched,
			"dispatched": result.Dispatched,
		},
	})

	logging.Info().
		Str("schedule_id", s.ID).
		Str("playlist_id", playlist.ID).
		Str("target", k.target).
		Int("priority", s.Priority).
		Int("dispatched", result.Dispatched).
		Msg("Schedule applied")
	return true
}

// zoneFor resolves the timezone a target's window is interpreted in. A
// location id uses that location's zone; a screen id pinned to a
// location uses its location's zone; "all", group targets and anything
// unresolvable evaluate in server time.
func (e *Evaluator) zoneFor(ctx context.Context, clientID, target string) *time.Location {
	if target == models.ScheduleTargetAll {
		return time.Local
	}
	if loc, err := e.db.GetLocation(ctx, clientID, target); err == nil {
		return e.loadZone(loc.Timezone)
	}
	if s, err := e.db.GetScreen(ctx, clientID, target); err == nil && s.LocationID != "" {
		if loc, err := e.db.GetLocation(ctx, clientID, s.LocationID); err == nil {
			return e.loadZone(loc.Timezone)
		}
	}
	return time.Local
}

// loadZone resolves an IANA zone name, caching lookups. Unknown names
// fall back to server time.
func (e *Evaluator) loadZone(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	if z, ok := e.zones[name]; ok {
		return z
	}
	z, err := time.LoadLocation(name)
	if err != nil {
		logging.Warn().
			Str("timezone", name).
			Msg("Unknown timezone, evaluating in server time")
		z = time.Local
	}
	e.zones[name] = z
	return z
}
