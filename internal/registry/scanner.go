// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parkwise/signage/internal/events"
	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/metrics"
	"github.com/parkwise/signage/internal/models"
)

// offlineThresholdKey is the settings-table override, in minutes, for the
// configured offline threshold.
const offlineThresholdKey = "offline_threshold_minutes"

// ScannerConfig holds offline scan cadence settings.
type ScannerConfig struct {
	// Interval is how often to scan for stale screens.
	Interval time.Duration

	// Threshold is how far last_seen may trail before a screen flips
	// offline. The settings table can override it at runtime.
	Threshold time.Duration
}

// DefaultScannerConfig returns production scan defaults.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		Interval:  time.Minute,
		Threshold: 10 * time.Minute,
	}
}

// Scanner flips screens whose heartbeats stopped. Connected channels for
// flipped screens are closed so the connected-map invariant holds: a key
// present means the screen is reachable and fresh.
type Scanner struct {
	registry *Registry
	config   ScannerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScanner creates an offline scanner over the registry.
func NewScanner(registry *Registry, cfg ScannerConfig) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 10 * time.Minute
	}
	return &Scanner{
		registry: registry,
		config:   cfg,
	}
}

// Start begins the scan loop.
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scanner already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	logging.Info().
		Dur("interval", s.config.Interval).
		Dur("threshold", s.config.Threshold).
		Msg("Starting offline scanner")

	go s.run(ctx)
	return nil
}

// Stop stops the scan loop and waits for it to complete.
func (s *Scanner) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	logging.Info().Msg("Offline scanner stopped")
	return nil
}

func (s *Scanner) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Scan immediately so restarts converge fast.
	s.scan(ctx)

	for {
		select {
		case <-ticker.C:
			s.scan(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// scan flips stale screens offline, closes their channels, and refreshes
// the status gauges.
func (s *Scanner) scan(ctx context.Context) {
	threshold := s.threshold(ctx)
	cutoff := time.Now().Add(-threshold).UnixMilli()

	flipped, err := s.registry.db.MarkScreensOffline(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Offline scan failed")
		return
	}

	for _, f := range flipped {
		s.registry.hub.CloseScreen(f.ID)
		s.registry.clearMode(f.ID)
		metrics.ScreenOfflineFlips.Inc()

		events.Emit(ctx, s.registry.bus, &models.Event{
			Type:     models.EventScreenOffline,
			ClientID: f.ClientID,
			Subject:  f.ID,
			Payload:  map[string]interface{}{"reason": "heartbeat_timeout"},
		})

		logging.Info().
			Str("screen_id", f.ID).
			Str("client_id", f.ClientID).
			Dur("threshold", threshold).
			Msg("Screen flipped offline")
	}

	s.updateGauges(ctx)
}

// threshold returns the effective offline threshold, preferring the
// settings-table override when present and sane.
func (s *Scanner) threshold(ctx context.Context) time.Duration {
	minutes := s.registry.db.GetSettingInt(ctx, offlineThresholdKey, 0)
	if minutes > 0 {
		return time.Duration(minutes) * time.Minute
	}
	return s.config.Threshold
}

func (s *Scanner) updateGauges(ctx context.Context) {
	online, offline, err := s.registry.db.CountScreensByStatus(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Screen gauge refresh failed")
		return
	}
	metrics.UpdateScreenGauges(s.registry.hub.ConnectedCount(), online, offline)
}
