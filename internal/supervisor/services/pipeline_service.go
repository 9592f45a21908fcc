// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package services

import (
	"context"
)

// PipelineRunner interface matches *events.Pipeline's consumer loop.
//
// Only Run is delegated here. The pipeline's Close method tears down the
// NATS connection and the embedded server; calling it from Serve would
// make a suture restart permanent, so Close belongs to main's shutdown
// path instead.
type PipelineRunner interface {
	Run(ctx context.Context) error
}

// EventPipelineService wraps the event pipeline's consumer as a
// supervised service. A restart re-enters Run on the same JetStream
// subscription; the durable consumer resumes where it left off.
//
// Example usage:
//
//	pipeline, _ := events.NewPipeline(ctx, &cfg.Events, db, hub)
//	defer pipeline.Close()
//	svc := services.NewEventPipelineService(pipeline)
//	tree.AddStorageService(svc)
type EventPipelineService struct {
	pipeline PipelineRunner
	name     string
}

// NewEventPipelineService creates a new event pipeline service wrapper.
func NewEventPipelineService(pipeline PipelineRunner) *EventPipelineService {
	return &EventPipelineService{
		pipeline: pipeline,
		name:     "event-pipeline",
	}
}

// Serve implements suture.Service. It delegates to pipeline.Run which
// consumes the event feed until the context is canceled.
func (s *EventPipelineService) Serve(ctx context.Context) error {
	return s.pipeline.Run(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *EventPipelineService) String() string {
	return s.name
}
