// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// hubDouble implements ContextHub. Without a configured error it behaves
// like the real hub: run until told to stop.
type hubDouble struct {
	err  error
	runs atomic.Int32
}

func (h *hubDouble) RunWithContext(ctx context.Context) error {
	h.runs.Add(1)
	if h.err != nil {
		return h.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubService_Basics(t *testing.T) {
	var _ suture.Service = (*WebSocketHubService)(nil)

	hub := &hubDouble{}
	svc := NewWebSocketHubService(hub)
	if svc.hub != hub {
		t.Error("hub not retained")
	}
	if got := svc.String(); got != "websocket-hub" {
		t.Errorf("String() = %q, want websocket-hub", got)
	}
}

func TestWebSocketHubService_Serve(t *testing.T) {
	t.Run("delegates the whole lifetime to the hub", func(t *testing.T) {
		hub := &hubDouble{}
		svc := NewWebSocketHubService(hub)

		ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
		defer cancel()

		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() = %v, want the hub's ctx error", err)
		}
		if n := hub.runs.Load(); n != 1 {
			t.Errorf("RunWithContext calls = %d, want 1", n)
		}
	})

	t.Run("hub failure propagates so suture restarts it", func(t *testing.T) {
		hub := &hubDouble{err: errors.New("accept loop wedged")}
		svc := NewWebSocketHubService(hub)

		if err := svc.Serve(context.Background()); !errors.Is(err, hub.err) {
			t.Errorf("Serve() = %v, want the hub error", err)
		}
	})
}

// A hub crash must come back without operator action; screens re-register
// on reconnect, so a restarted hub resumes from empty state safely.
func TestWebSocketHubService_RestartedAfterCrash(t *testing.T) {
	hub := &hubDouble{err: errors.New("poisoned frame")}
	svc := NewWebSocketHubService(hub)

	sup := suture.New("screens-layer", suture.Spec{
		FailureThreshold: 50,
		FailureDecay:     1,
		FailureBackoff:   5 * time.Millisecond,
		Timeout:          100 * time.Millisecond,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && hub.runs.Load() < 2 {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.runs.Load() < 2 {
		t.Errorf("runs = %d, want >= 2 (crash then restart)", hub.runs.Load())
	}

	cancel()
	<-errCh
}
