// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/parkwise/signage/internal/models"
	"github.com/parkwise/signage/internal/websocket"
)

// memStore records inserted events. failures counts down: while
// positive, InsertEvent errors, exercising nack/redelivery.
type memStore struct {
	mu       sync.Mutex
	events   []*models.Event
	failures int
	pruned   []time.Time
}

func (s *memStore) InsertEvent(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("insert failed")
	}
	s.events = append(s.events, e)
	return nil
}

func (s *memStore) PruneEvents(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruned = append(s.pruned, olderThan)
	return 0, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *memStore) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

// recordingBroadcaster captures frames fanned to screens.
type recordingBroadcaster struct {
	mu     sync.Mutex
	frames []websocket.Frame
}

func (b *recordingBroadcaster) Broadcast(f websocket.Frame) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, f)
	return 1
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

func (b *recordingBroadcaster) last() (websocket.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.frames) == 0 {
		return websocket.Frame{}, false
	}
	return b.frames[len(b.frames)-1], true
}

// startConsumer runs a consumer over an in-memory pub/sub for the test's
// lifetime. The gochannel topic is concrete; subject routing is a broker
// concern the consumer never sees.
func startConsumer(t *testing.T, store *memStore, hub Broadcaster) (*gochannel.GoChannel, string) {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 16,
		Persistent:          true,
	}, watermill.NopLogger{})

	topic := "events-feed-test"
	consumer := NewConsumer(pubSub, store, hub, ConsumerConfig{
		Topic:         topic,
		Retention:     time.Hour,
		PruneInterval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = consumer.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("consumer did not stop within timeout")
		}
		if err := pubSub.Close(); err != nil {
			t.Errorf("pubSub.Close() error = %v", err)
		}
	})

	return pubSub, topic
}

func publishEvent(t *testing.T, pub message.Publisher, topic string, e *models.Event) {
	t.Helper()
	data, err := SerializeEvent(e)
	if err != nil {
		t.Fatalf("SerializeEvent() error = %v", err)
	}
	if err := pub.Publish(topic, message.NewMessage(e.ID, data)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}

// waitForCount waits until the store holds want events or timeout.
func waitForCount(t *testing.T, store *memStore, want int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for store.count() < want && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := store.count(); got < want {
		t.Fatalf("persisted events = %d, want %d", got, want)
	}
}

func TestConsumerPersistsAndNudges(t *testing.T) {
	store := &memStore{}
	hub := &recordingBroadcaster{}
	pubSub, topic := startConsumer(t, store, hub)

	publishEvent(t, pubSub, topic, &models.Event{
		ID:       "evt-1",
		Type:     models.EventScreenOffline,
		ClientID: "acme",
		Subject:  "screen-lobby",
	})

	waitForCount(t, store, 1, 2*time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for hub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	frame, ok := hub.last()
	if !ok {
		t.Fatal("registry-change event should trigger a screens:update nudge")
	}
	if frame.Type != websocket.FrameScreensUpdate {
		t.Errorf("frame type = %q, want %q", frame.Type, websocket.FrameScreensUpdate)
	}
	data, ok := frame.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("frame data type = %T, want map", frame.Data)
	}
	if data["reason"] != models.EventScreenOffline {
		t.Errorf("nudge reason = %v, want %q", data["reason"], models.EventScreenOffline)
	}
}

func TestConsumerSkipsNudgeForDispatchEvents(t *testing.T) {
	store := &memStore{}
	hub := &recordingBroadcaster{}
	pubSub, topic := startConsumer(t, store, hub)

	publishEvent(t, pubSub, topic, &models.Event{
		ID:      "evt-2",
		Type:    models.EventDispatchSent,
		Subject: "playlist-1",
	})

	waitForCount(t, store, 1, 2*time.Second)

	// Give a misdirected nudge time to show up before asserting absence.
	time.Sleep(50 * time.Millisecond)
	if hub.count() != 0 {
		t.Errorf("dispatch event produced %d nudges, want 0", hub.count())
	}
}

func TestConsumerSurvivesPoisonMessage(t *testing.T) {
	store := &memStore{}
	pubSub, topic := startConsumer(t, store, nil)

	if err := pubSub.Publish(topic, message.NewMessage("poison", []byte("{not json"))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	publishEvent(t, pubSub, topic, &models.Event{
		ID:   "evt-3",
		Type: models.EventScheduleApplied,
	})

	waitForCount(t, store, 1, 2*time.Second)
	if got := store.types(); got[0] != models.EventScheduleApplied {
		t.Errorf("persisted type = %q, want %q", got[0], models.EventScheduleApplied)
	}
}

func TestConsumerRetriesFailedInsert(t *testing.T) {
	store := &memStore{failures: 1}
	pubSub, topic := startConsumer(t, store, nil)

	publishEvent(t, pubSub, topic, &models.Event{
		ID:   "evt-4",
		Type: models.EventScreenRegistered,
	})

	// First insert fails and is nacked; redelivery must land it.
	waitForCount(t, store, 1, 3*time.Second)
}
