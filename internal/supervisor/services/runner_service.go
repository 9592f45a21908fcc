// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package services

import (
	"context"
	"fmt"
)

// Runner interface matches the Start/Stop lifecycle shared by the
// background engines in this codebase.
//
// Satisfied by:
//   - *registry.Scanner (offline sweep)
//   - *schedule.Evaluator (schedule ticks)
//   - *mood.Engine (context vector collection and interpolation)
//
// Start launches the engine's goroutines and returns; the goroutines
// themselves exit when the Start context is canceled. Stop waits for
// them to drain.
type Runner interface {
	Start(ctx context.Context) error
	Stop() error
}

// RunnerService adapts a Start/Stop engine to suture's Serve pattern:
//
//  1. Calls Start(ctx) to launch the engine
//  2. Blocks until the context is canceled
//  3. Calls Stop() to wait for the engine's goroutines to drain
//
// If Start fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
//
// Example usage:
//
//	evaluator := schedule.NewEvaluator(db, engine, hub, cfg)
//	svc := services.NewRunnerService("schedule-evaluator", evaluator)
//	tree.AddScreenService(svc)
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService creates a supervised wrapper around a Start/Stop engine.
// The name identifies the service in supervisor logs.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{
		runner: runner,
		name:   name,
	}
}

// Serve implements suture.Service.
func (r *RunnerService) Serve(ctx context.Context) error {
	if err := r.runner.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", r.name, err)
	}

	// Wait for shutdown signal
	<-ctx.Done()

	// The engine's goroutines observe the same context; Stop just waits
	// for them to drain.
	if err := r.runner.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", r.name, err)
	}

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (r *RunnerService) String() string {
	return r.name
}
