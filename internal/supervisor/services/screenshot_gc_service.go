// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package services

import (
	"context"
)

// ScreenshotGC interface matches *registry.ScreenshotStore's maintenance
// loop. RunGC drives BadgerDB value log garbage collection until the
// context is canceled.
type ScreenshotGC interface {
	RunGC(ctx context.Context) error
}

// ScreenshotGCService wraps screenshot store maintenance as a supervised
// service. The store itself is opened and closed by main; this service
// only owns the periodic GC loop, so a restart is harmless.
//
// Example usage:
//
//	shots, _ := registry.NewScreenshotStore(cfg.Cache.Dir, cfg.Cache.ScreenshotTTL)
//	defer shots.Close()
//	svc := services.NewScreenshotGCService(shots)
//	tree.AddStorageService(svc)
type ScreenshotGCService struct {
	store ScreenshotGC
	name  string
}

// NewScreenshotGCService creates a new screenshot GC service wrapper.
func NewScreenshotGCService(store ScreenshotGC) *ScreenshotGCService {
	return &ScreenshotGCService{
		store: store,
		name:  "screenshot-gc",
	}
}

// Serve implements suture.Service. It delegates to store.RunGC which
// blocks until the context is canceled.
func (s *ScreenshotGCService) Serve(ctx context.Context) error {
	return s.store.RunGC(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *ScreenshotGCService) String() string {
	return s.name
}
