// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// stubAPIServer stands in for the control-plane *http.Server. ListenAndServe
// parks until Shutdown releases it, mirroring a real listener.
type stubAPIServer struct {
	serveErr    error
	shutdownErr error

	serves    atomic.Int32
	shutdowns atomic.Int32

	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newStubAPIServer() *stubAPIServer {
	return &stubAPIServer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (s *stubAPIServer) ListenAndServe() error {
	s.serves.Add(1)
	select {
	case s.started <- struct{}{}:
	default:
	}
	if s.serveErr != nil {
		return s.serveErr
	}
	<-s.release
	return http.ErrServerClosed
}

func (s *stubAPIServer) Shutdown(ctx context.Context) error {
	s.shutdowns.Add(1)
	s.once.Do(func() { close(s.release) })
	return s.shutdownErr
}

func (s *stubAPIServer) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-s.started:
	case <-time.After(time.Second):
		t.Fatal("listener never came up")
	}
}

func TestHTTPServerService_Interface(t *testing.T) {
	var _ suture.Service = (*HTTPServerService)(nil)
}

func TestNewHTTPServerService(t *testing.T) {
	stub := newStubAPIServer()

	svc := NewHTTPServerService(stub, 3*time.Second)
	if svc.server != stub {
		t.Error("wrapped server not retained")
	}
	if svc.shutdownTimeout != 3*time.Second {
		t.Errorf("shutdownTimeout = %v, want 3s", svc.shutdownTimeout)
	}
	if got := svc.String(); got != "http-server" {
		t.Errorf("String() = %q, want http-server", got)
	}

	// Zero and negative timeouts fall back to the default so a bad config
	// can't produce an instant-kill shutdown.
	for _, d := range []time.Duration{0, -time.Second} {
		if svc := NewHTTPServerService(stub, d); svc.shutdownTimeout != 10*time.Second {
			t.Errorf("NewHTTPServerService(%v) timeout = %v, want 10s", d, svc.shutdownTimeout)
		}
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Run("drains and reports ctx error on cancellation", func(t *testing.T) {
		stub := newStubAPIServer()
		svc := NewHTTPServerService(stub, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		stub.waitStarted(t)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve() still running after cancel")
		}

		if n := stub.serves.Load(); n != 1 {
			t.Errorf("ListenAndServe calls = %d, want 1", n)
		}
		if n := stub.shutdowns.Load(); n != 1 {
			t.Errorf("Shutdown calls = %d, want 1", n)
		}
	})

	t.Run("bind failure surfaces for the supervisor to back off on", func(t *testing.T) {
		bindErr := errors.New("listen tcp :3400: bind: address already in use")
		stub := newStubAPIServer()
		stub.serveErr = bindErr

		svc := NewHTTPServerService(stub, time.Second)
		if err := svc.Serve(context.Background()); !errors.Is(err, bindErr) {
			t.Errorf("Serve() = %v, want the bind error", err)
		}
	})

	t.Run("shutdown failure wins over the ctx error", func(t *testing.T) {
		stub := newStubAPIServer()
		stub.shutdownErr = errors.New("connections still draining")

		svc := NewHTTPServerService(stub, time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		stub.waitStarted(t)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, stub.shutdownErr) {
				t.Errorf("Serve() = %v, want the shutdown error", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve() still running after cancel")
		}
	})
}

func TestHTTPServerService_UnderSupervisor(t *testing.T) {
	stub := newStubAPIServer()
	svc := NewHTTPServerService(stub, time.Second)

	sup := suture.New("api-layer", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          2 * time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	stub.waitStarted(t)
	cancel()
	<-errCh

	if stub.shutdowns.Load() < 1 {
		t.Error("supervised shutdown never reached the wrapped server")
	}
}
