// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTree(t *testing.T, cfg TreeConfig) *SupervisorTree {
	t.Helper()
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 500 * time.Millisecond
	}
	tree, err := NewSupervisorTree(quietLogger(), cfg)
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	return tree
}

// drain waits for the tree's error channel to close after shutdown.
func drain(t *testing.T, errCh <-chan error) {
	t.Helper()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("tree returned %v on shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("tree still serving after shutdown deadline")
	}
}

// The production layout: pipeline and GC under storage, hub and engines
// under screens, the API server on its own. Everything must come up, and a
// root cancel must bring everything down.
func TestTree_FullLayout(t *testing.T) {
	tree := newTestTree(t, TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   50 * time.Millisecond,
	})

	pipeline := NewMockService("event-pipeline")
	gc := NewMockService("screenshot-gc")
	hub := NewMockService("websocket-hub")
	scanner := NewMockService("offline-scanner")
	evaluator := NewMockService("schedule-evaluator")
	api := NewMockService("http-server")

	tree.AddStorageService(pipeline)
	tree.AddStorageService(gc)
	tree.AddScreenService(hub)
	tree.AddScreenService(scanner)
	tree.AddScreenService(evaluator)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range []*MockService{pipeline, gc, hub, scanner, evaluator, api} {
		waitForStarts(t, svc, 1)
	}

	cancel()
	drain(t, errCh)

	for _, svc := range []*MockService{pipeline, gc, hub, scanner, evaluator, api} {
		if svc.StopCount() < 1 {
			t.Errorf("%s never stopped", svc)
		}
	}
}

// A crash-looping scanner in the screens layer must not disturb storage or
// the API layer.
func TestTree_LayerIsolation(t *testing.T) {
	tree := newTestTree(t, TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
	})

	flaky := NewMockService("offline-scanner")
	flaky.SetFailCount(3)
	storage := NewMockService("screenshot-gc")
	api := NewMockService("http-server")

	tree.AddStorageService(storage)
	tree.AddScreenService(flaky)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitForStarts(t, flaky, 3)

	if storage.StartCount() != 1 {
		t.Errorf("storage starts = %d, want 1 (no collateral restart)", storage.StartCount())
	}
	if api.StartCount() != 1 {
		t.Errorf("api starts = %d, want 1 (no collateral restart)", api.StartCount())
	}

	cancel()
	drain(t, errCh)
}

func TestTree_ConcurrentAdds(t *testing.T) {
	tree := newTestTree(t, TreeConfig{})

	// Registration happens from one goroutine in production, but nothing in
	// the API forbids concurrent setup; it must at least be race-free.
	added := make(chan *MockService, 12)
	for i := 0; i < 12; i++ {
		go func(idx int) {
			svc := NewMockService(fmt.Sprintf("svc-%d", idx))
			switch idx % 3 {
			case 0:
				tree.AddStorageService(svc)
			case 1:
				tree.AddScreenService(svc)
			default:
				tree.AddAPIService(svc)
			}
			added <- svc
		}(i)
	}
	services := make([]*MockService, 0, 12)
	for i := 0; i < 12; i++ {
		services = append(services, <-added)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range services {
		waitForStarts(t, svc, 1)
	}

	cancel()
	drain(t, errCh)
}

func TestTree_EmptyTreeLifecycle(t *testing.T) {
	tree := newTestTree(t, TreeConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	drain(t, tree.ServeBackground(ctx))
}

func TestTree_RootAccessor(t *testing.T) {
	tree := newTestTree(t, TreeConfig{})
	if tree.Root() == nil {
		t.Error("Root() = nil")
	}
}
