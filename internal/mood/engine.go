// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package mood

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/parkwise/signage/internal/config"
	"github.com/parkwise/signage/internal/database"
	"github.com/parkwise/signage/internal/metrics"
	"github.com/parkwise/signage/internal/models"
	"github.com/parkwise/signage/internal/websocket"
)

// Broadcaster is the hub slice the engine needs: fan a frame out to
// every connected screen.
type Broadcaster interface {
	Broadcast(f websocket.Frame) int
}

// site is the collector set running for one location. cancel tears the
// set down; updatedAt detects location edits that need a rebuild (a
// changed timezone or moodSources block).
type site struct {
	updatedAt time.Time
	cancel    context.CancelFunc
}

// Engine derives a per-location ambience vector from environmental
// signals and streams it to screens.
//
// Three loops run on one goroutine: every LerpInterval each location's
// current vector moves a per-component step toward its target; every
// RefreshInterval targets are recomputed from the signal cache and the
// collector sets are reconciled against the locations table; every
// BroadcastInterval the current vectors go out as context:mood frames.
// Collectors run on their own goroutines and only touch the signal
// cache.
type Engine struct {
	db      *database.DB
	hub     Broadcaster
	config  config.MoodConfig
	client  *http.Client
	limiter *rate.Limiter
	signals *signalStore

	moodMu  sync.Mutex
	current map[string]models.MoodVector
	target  map[string]models.MoodVector

	sitesMu sync.Mutex
	sites   map[string]*site

	breakersMu sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker[[]byte]

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a mood engine. Zero config values fall back to the default
// cadence: 500ms lerp, 2s broadcast, 2s refresh, 10s poll timeout, 30s
// stream reconnect.
func New(db *database.DB, hub Broadcaster, cfg config.MoodConfig) *Engine {
	if cfg.LerpInterval <= 0 {
		cfg.LerpInterval = 500 * time.Millisecond
	}
	if cfg.BroadcastInterval <= 0 {
		cfg.BroadcastInterval = 2 * time.Second
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 2 * time.Second
	}
	if cfg.PollTimeout <= 0 || cfg.PollTimeout > 10*time.Second {
		cfg.PollTimeout = 10 * time.Second
	}
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = 30 * time.Second
	}
	rps := cfg.PollRatePerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	return &Engine{
		db:       db,
		hub:      hub,
		config:   cfg,
		client:   &http.Client{Timeout: cfg.PollTimeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		signals:  newSignalStore(),
		current:  make(map[string]models.MoodVector),
		target:   make(map[string]models.MoodVector),
		sites:    make(map[string]*site),
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]byte]),
	}
}

// Start launches the engine loop. Returns an error if already running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return errors.New("mood engine already running")
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})

	log.Info().
		Dur("lerp_interval", e.config.LerpInterval).
		Dur("broadcast_interval", e.config.BroadcastInterval).
		Dur("refresh_interval", e.config.RefreshInterval).
		Msg("Starting mood engine")

	go e.run(ctx)
	return nil
}

// Stop shuts the loop and every collector down and waits for the loop
// goroutine to exit. Safe to call when not running.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	<-e.doneCh
	log.Info().Msg("Mood engine stopped")
	return nil
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.doneCh)

	// Collectors live under one child context so loop exit tears every
	// site down regardless of why the loop ended.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer e.clearSites()

	e.refreshSites(runCtx)
	e.refreshTargets()

	lerp := time.NewTicker(e.config.LerpInterval)
	defer lerp.Stop()
	broadcast := time.NewTicker(e.config.BroadcastInterval)
	defer broadcast.Stop()
	refresh := time.NewTicker(e.config.RefreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-lerp.C:
			e.lerpStep()
		case <-broadcast.C:
			e.broadcast()
		case <-refresh.C:
			e.refreshSites(runCtx)
			e.refreshTargets()
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// refreshSites reconciles collector sets against the locations table:
// new locations get collectors, edited ones are rebuilt so timezone and
// moodSources changes take effect, deleted ones are torn down and their
// state dropped.
func (e *Engine) refreshSites(ctx context.Context) {
	dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	locs, err := e.db.ListLocations(dbCtx, "")
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list locations for mood collectors")
		return
	}

	e.sitesMu.Lock()
	defer e.sitesMu.Unlock()

	seen := make(map[string]bool, len(locs))
	for _, loc := range locs {
		seen[loc.ID] = true
		if s, ok := e.sites[loc.ID]; ok {
			if s.updatedAt.Equal(loc.UpdatedAt) {
				continue
			}
			s.cancel()
			log.Debug().Str("location_id", loc.ID).Msg("Location changed, rebuilding mood collectors")
		}
		siteCtx, cancelSite := context.WithCancel(ctx)
		e.sites[loc.ID] = &site{updatedAt: loc.UpdatedAt, cancel: cancelSite}
		e.startSiteCollectors(siteCtx, loc)
	}

	for id, s := range e.sites {
		if seen[id] {
			continue
		}
		s.cancel()
		delete(e.sites, id)
		e.signals.forget(id)
		e.moodMu.Lock()
		delete(e.current, id)
		delete(e.target, id)
		e.moodMu.Unlock()
	}
}

func (e *Engine) clearSites() {
	e.sitesMu.Lock()
	defer e.sitesMu.Unlock()
	for id, s := range e.sites {
		s.cancel()
		delete(e.sites, id)
	}
}

// refreshTargets recomputes every tracked location's target from its
// signal snapshot. A location's first sighting seeds current = target
// so new screens do not fade in from neutral.
func (e *Engine) refreshTargets() {
	e.sitesMu.Lock()
	ids := make([]string, 0, len(e.sites))
	for id := range e.sites {
		ids = append(ids, id)
	}
	e.sitesMu.Unlock()

	e.moodMu.Lock()
	defer e.moodMu.Unlock()
	for _, id := range ids {
		tgt := ComputeTarget(e.signals.snapshot(id))
		e.target[id] = tgt
		if _, ok := e.current[id]; !ok {
			e.current[id] = tgt
		}
	}
}

// lerpStep moves every current vector one smoothing step toward its
// target.
func (e *Engine) lerpStep() {
	e.moodMu.Lock()
	defer e.moodMu.Unlock()
	for id, cur := range e.current {
		tgt, ok := e.target[id]
		if !ok {
			continue
		}
		e.current[id] = Lerp(cur, tgt)
	}
}

// broadcast fans every location's context out to all connected screens.
// Screens filter by their own location id; delivery is fire-and-forget.
func (e *Engine) broadcast() {
	now := time.Now().UnixMilli()
	for _, mc := range e.Contexts() {
		e.hub.Broadcast(websocket.Frame{
			Type: websocket.FrameContextMood,
			Data: map[string]interface{}{
				"locationId": mc.LocationID,
				"mood":       mc.Current,
				"signals":    mc.Signals,
				"timestamp":  now,
			},
		})
		metrics.MoodBroadcasts.Inc()
	}
}

// Contexts returns the mood context of every tracked location, sorted
// by location id.
func (e *Engine) Contexts() []models.MoodContext {
	e.moodMu.Lock()
	defer e.moodMu.Unlock()

	out := make([]models.MoodContext, 0, len(e.current))
	for id, cur := range e.current {
		sig := e.signals.snapshot(id)
		out = append(out, models.MoodContext{
			LocationID: id,
			Current:    cur,
			Target:     e.target[id],
			Signals:    sig,
			UpdatedAt:  sig.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out
}

// Context returns one location's mood context, false when the location
// is not tracked.
func (e *Engine) Context(locationID string) (models.MoodContext, bool) {
	e.moodMu.Lock()
	defer e.moodMu.Unlock()

	cur, ok := e.current[locationID]
	if !ok {
		return models.MoodContext{}, false
	}
	sig := e.signals.snapshot(locationID)
	return models.MoodContext{
		LocationID: locationID,
		Current:    cur,
		Target:     e.target[locationID],
		Signals:    sig,
		UpdatedAt:  sig.UpdatedAt,
	}, true
}

// breakerFor returns the circuit breaker for one endpoint, creating it
// on first use. Keyed by collector name and URL so a per-location
// override gets its own failure budget.
func (e *Engine) breakerFor(name, endpoint string) *gobreaker.CircuitBreaker[[]byte] {
	e.breakersMu.Lock()
	defer e.breakersMu.Unlock()

	key := name + " " + endpoint
	if br, ok := e.breakers[key]; ok {
		return br
	}
	br := newCollectorBreaker(name)
	e.breakers[key] = br
	return br
}
