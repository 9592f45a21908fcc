// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package registry

import (
	"context"
	"testing"
	"time"

	"github.com/parkwise/signage/internal/models"
)

func TestScanner_FlipsStaleScreens(t *testing.T) {
	reg, hub, bus := setupRegistry(t)
	ctx := context.Background()

	registerScreen(reg, "stale", models.BootstrapClientID, "", "")
	registerScreen(reg, "fresh", models.BootstrapClientID, "", "")

	// Backdate the stale screen past the threshold; the fresh one keeps
	// its registration timestamp.
	past := time.Now().Add(-30 * time.Minute).UnixMilli()
	if err := reg.db.TouchScreen(ctx, "stale", past); err != nil {
		t.Fatalf("TouchScreen() error = %v", err)
	}

	s := NewScanner(reg, ScannerConfig{Interval: time.Minute, Threshold: 10 * time.Minute})
	s.scan(ctx)

	got, err := reg.GetScreen(ctx, "", "stale")
	if err != nil {
		t.Fatalf("GetScreen(stale) error = %v", err)
	}
	if got.Status != models.ScreenStatusOffline {
		t.Errorf("stale status = %q, want offline", got.Status)
	}
	if got.Connected {
		t.Error("stale screen should have its channel closed")
	}

	fresh, err := reg.GetScreen(ctx, "", "fresh")
	if err != nil {
		t.Fatalf("GetScreen(fresh) error = %v", err)
	}
	if fresh.Status != models.ScreenStatusOnline {
		t.Errorf("fresh status = %q, want online", fresh.Status)
	}
	if !fresh.Connected {
		t.Error("fresh screen should stay connected")
	}

	closed := hub.closedScreens()
	if len(closed) != 1 || closed[0] != "stale" {
		t.Errorf("closed = %v, want [stale]", closed)
	}
	events := bus.byType(models.EventScreenOffline)
	if len(events) != 1 {
		t.Fatalf("screen.offline events = %d, want 1", len(events))
	}
	if reason := events[0].Payload["reason"]; reason != "heartbeat_timeout" {
		t.Errorf("offline reason = %v, want heartbeat_timeout", reason)
	}

	// Pushing to the flipped screen now matches nothing.
	result, err := reg.Push(ctx, models.BootstrapClientID, "stale",
		models.NewEnvelope(models.SourceAPI, models.EnvelopeTypeURL, nil))
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if result.Matched != 0 {
		t.Errorf("matched = %d, want 0 after offline flip", result.Matched)
	}
}

func TestScanner_ScanIsIdempotent(t *testing.T) {
	reg, _, bus := setupRegistry(t)
	ctx := context.Background()

	registerScreen(reg, "stale", models.BootstrapClientID, "", "")
	past := time.Now().Add(-30 * time.Minute).UnixMilli()
	if err := reg.db.TouchScreen(ctx, "stale", past); err != nil {
		t.Fatalf("TouchScreen() error = %v", err)
	}

	s := NewScanner(reg, ScannerConfig{Interval: time.Minute, Threshold: 10 * time.Minute})
	s.scan(ctx)
	s.scan(ctx)

	if got := len(bus.byType(models.EventScreenOffline)); got != 1 {
		t.Errorf("screen.offline events = %d, want 1 (second scan flips nothing)", got)
	}
}

func TestScanner_SettingsOverrideThreshold(t *testing.T) {
	reg, _, _ := setupRegistry(t)
	ctx := context.Background()

	registerScreen(reg, "s1", models.BootstrapClientID, "", "")
	// Stale for a 2-minute threshold, fine for the 10-minute default.
	past := time.Now().Add(-5 * time.Minute).UnixMilli()
	if err := reg.db.TouchScreen(ctx, "s1", past); err != nil {
		t.Fatalf("TouchScreen() error = %v", err)
	}

	s := NewScanner(reg, DefaultScannerConfig())
	s.scan(ctx)

	got, err := reg.GetScreen(ctx, "", "s1")
	if err != nil {
		t.Fatalf("GetScreen() error = %v", err)
	}
	if got.Status != models.ScreenStatusOnline {
		t.Fatalf("status = %q, want online under the default threshold", got.Status)
	}

	if err := reg.db.UpdateSettings(ctx, map[string]string{offlineThresholdKey: "2"}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	s.scan(ctx)

	got, err = reg.GetScreen(ctx, "", "s1")
	if err != nil {
		t.Fatalf("GetScreen() error = %v", err)
	}
	if got.Status != models.ScreenStatusOffline {
		t.Errorf("status = %q, want offline under the tightened threshold", got.Status)
	}
}

func TestScanner_StartStop(t *testing.T) {
	reg, _, _ := setupRegistry(t)

	s := NewScanner(reg, ScannerConfig{Interval: 10 * time.Millisecond, Threshold: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("second Start() should fail while running")
	}

	time.Sleep(30 * time.Millisecond)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() when stopped should be a no-op, got %v", err)
	}
}
