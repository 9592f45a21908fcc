// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/metrics"
	"github.com/parkwise/signage/internal/models"
	"github.com/parkwise/signage/internal/websocket"
)

// EventStore is the slice of the database the consumer writes.
type EventStore interface {
	InsertEvent(ctx context.Context, e *models.Event) error
	PruneEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

// Broadcaster fans a frame to every connected channel. The hub
// implements it.
type Broadcaster interface {
	Broadcast(f websocket.Frame) int
}

// ConsumerConfig holds feed consumer settings.
type ConsumerConfig struct {
	Topic string
	// Retention bounds the feed table; rows older than it are pruned.
	Retention     time.Duration
	PruneInterval time.Duration
}

// DefaultConsumerConfig returns feed consumer defaults.
func DefaultConsumerConfig(prefix string, retention time.Duration) ConsumerConfig {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return ConsumerConfig{
		Topic:         WildcardTopic(prefix),
		Retention:     retention,
		PruneInterval: time.Hour,
	}
}

// Consumer drains the event stream into the activity feed table and
// nudges connected channels when the registry shape changed. One
// consumer instance runs per process.
type Consumer struct {
	sub        message.Subscriber
	store      EventStore
	hub        Broadcaster
	config     ConsumerConfig
	serializer *Serializer
}

// NewConsumer creates a feed consumer reading from sub. hub may be nil
// in which case registry-change nudges are skipped.
func NewConsumer(sub message.Subscriber, store EventStore, hub Broadcaster, cfg ConsumerConfig) *Consumer {
	if cfg.Topic == "" {
		cfg.Topic = WildcardTopic("")
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = time.Hour
	}
	return &Consumer{
		sub:        sub,
		store:      store,
		hub:        hub,
		config:     cfg,
		serializer: NewSerializer(),
	}
}

// Run processes messages until context cancellation. Messages are acked
// on success and nacked on persistence failure so JetStream redelivers;
// undecodable payloads are acked and counted, not retried.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.sub.Subscribe(ctx, c.config.Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.config.Topic, err)
	}

	pruneTicker := time.NewTicker(c.config.PruneInterval)
	defer pruneTicker.Stop()

	logging.Info().
		Str("topic", c.config.Topic).
		Dur("retention", c.config.Retention).
		Msg("Event feed consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pruneTicker.C:
			c.prune(ctx)
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg *message.Message) {
	event, err := c.serializer.Unmarshal(msg.Payload)
	if err != nil {
		metrics.RecordNATSParseFailed()
		logging.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Msg("Dropping undecodable event")
		msg.Ack()
		return
	}

	if err := c.store.InsertEvent(ctx, event); err != nil {
		logging.Error().
			Err(err).
			Str("event_type", event.Type).
			Msg("Failed to persist event, requeueing")
		msg.Nack()
		return
	}

	metrics.RecordNATSConsume()
	msg.Ack()

	if c.hub != nil && NotifiesRegistryChange(event.Type) {
		c.hub.Broadcast(websocket.Frame{
			Type: websocket.FrameScreensUpdate,
			Data: map[string]interface{}{
				"reason":  event.Type,
				"subject": event.Subject,
			},
		})
	}
}

func (c *Consumer) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-c.config.Retention)
	n, err := c.store.PruneEvents(ctx, cutoff)
	if err != nil {
		logging.Warn().Err(err).Msg("Event feed prune failed")
		return
	}
	if n > 0 {
		logging.Debug().Int64("pruned", n).Msg("Event feed pruned")
	}
}

// NotifiesRegistryChange reports whether an event type changes the
// registry shape the admin UI renders, warranting a screens:update nudge.
func NotifiesRegistryChange(eventType string) bool {
	switch eventType {
	case models.EventScreenRegistered,
		models.EventScreenOnline,
		models.EventScreenOffline,
		models.EventScreenDeleted,
		models.EventRegistryChanged:
		return true
	default:
		return false
	}
}
