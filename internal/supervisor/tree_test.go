// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func TestNewSupervisorTree(t *testing.T) {
	t.Run("builds all four supervisors", func(t *testing.T) {
		tree := newTestTree(t, TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  10 * time.Second,
		})
		if tree.Root() == nil {
			t.Fatal("Root() = nil")
		}
		if tree.storage == nil || tree.screens == nil || tree.api == nil {
			t.Error("child supervisors missing")
		}
	})

	t.Run("zero config gets suture defaults", func(t *testing.T) {
		tree := newTestTree(t, TreeConfig{ShutdownTimeout: time.Second})

		if got := tree.config.FailureThreshold; got != 5.0 {
			t.Errorf("FailureThreshold = %f, want 5.0", got)
		}
		if got := tree.config.FailureDecay; got != 30.0 {
			t.Errorf("FailureDecay = %f, want 30.0", got)
		}
		if got := tree.config.FailureBackoff; got != 15*time.Second {
			t.Errorf("FailureBackoff = %v, want 15s", got)
		}
	})

	t.Run("nil logger is rejected", func(t *testing.T) {
		if _, err := NewSupervisorTree(nil, TreeConfig{}); err == nil {
			t.Error("NewSupervisorTree(nil, ...) should fail")
		}
	})
}

func TestTree_ServeAndServeBackground(t *testing.T) {
	t.Run("Serve blocks until cancel", func(t *testing.T) {
		tree := newTestTree(t, TreeConfig{FailureBackoff: 100 * time.Millisecond})
		svc := NewMockService("mood-engine")
		tree.AddScreenService(svc)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- tree.Serve(ctx) }()

		waitForStarts(t, svc, 1)
		cancel()

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Serve() did not return after cancel")
		}
	})

	t.Run("ServeBackground delivers the result on its channel", func(t *testing.T) {
		tree := newTestTree(t, TreeConfig{})
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		drain(t, tree.ServeBackground(ctx))
	})
}

// Each Add method must land the service in a layer that actually serves it.
func TestTree_EveryLayerServes(t *testing.T) {
	layers := []struct {
		name string
		add  func(*SupervisorTree, suture.Service) suture.ServiceToken
	}{
		{"storage", func(tr *SupervisorTree, s suture.Service) suture.ServiceToken { return tr.AddStorageService(s) }},
		{"screens", func(tr *SupervisorTree, s suture.Service) suture.ServiceToken { return tr.AddScreenService(s) }},
		{"api", func(tr *SupervisorTree, s suture.Service) suture.ServiceToken { return tr.AddAPIService(s) }},
	}

	for _, layer := range layers {
		t.Run(layer.name, func(t *testing.T) {
			tree := newTestTree(t, TreeConfig{})
			svc := NewMockService(layer.name + "-probe")
			layer.add(tree, svc)

			ctx, cancel := context.WithCancel(context.Background())
			errCh := tree.ServeBackground(ctx)

			waitForStarts(t, svc, 1)

			cancel()
			drain(t, errCh)
		})
	}
}

func TestTree_RemoveScreenServiceByToken(t *testing.T) {
	tree := newTestTree(t, TreeConfig{})
	svc := NewMockService("removable")
	token := tree.AddScreenService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitForStarts(t, svc, 1)

	if err := tree.RemoveScreenService(token); err != nil {
		t.Fatalf("RemoveScreenService() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && svc.StopCount() < 1 {
		time.Sleep(10 * time.Millisecond)
	}
	if svc.StopCount() < 1 {
		t.Error("removed service kept running")
	}

	cancel()
	drain(t, errCh)
}

// Tokens are scoped to the supervisor that issued them; handing a
// screens-layer token to the root's Remove is a caller bug and suture
// rejects it.
func TestTree_TokenScopedToIssuingLayer(t *testing.T) {
	tree := newTestTree(t, TreeConfig{})
	token := tree.AddScreenService(NewMockService("scoped"))

	if err := tree.Remove(token); err == nil {
		t.Error("root Remove() accepted a screens-layer token")
	}
}

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()

	want := TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
	if cfg != want {
		t.Errorf("DefaultTreeConfig() = %+v, want %+v", cfg, want)
	}
}
