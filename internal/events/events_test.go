// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package events

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func TestTopic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		prefix    string
		eventType string
		want      string
	}{
		{"default prefix", "", models.EventScreenOffline, "signage.events.screen.offline"},
		{"custom prefix", "custom.ns", models.EventSyncPlayback, "custom.ns.syncgroup.playback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Topic(tt.prefix, tt.eventType); got != tt.want {
				t.Errorf("Topic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWildcardTopic(t *testing.T) {
	t.Parallel()

	if got := WildcardTopic(""); got != "signage.events.>" {
		t.Errorf("WildcardTopic() = %q, want signage.events.>", got)
	}
}

func TestEventTypeFromTopic(t *testing.T) {
	t.Parallel()

	if got := EventTypeFromTopic("", "signage.events.screen.online"); got != "screen.online" {
		t.Errorf("EventTypeFromTopic() = %q, want screen.online", got)
	}
	if got := EventTypeFromTopic("", "other.ns.screen.online"); got != "" {
		t.Errorf("EventTypeFromTopic() on foreign subject = %q, want empty", got)
	}
}

func TestSerializerRoundTrip(t *testing.T) {
	t.Parallel()

	in := &models.Event{
		ID:       "evt-1",
		Type:     models.EventScreenRegistered,
		ClientID: "acme",
		Subject:  "screen-lobby",
		Payload:  map[string]interface{}{"platform": "webos"},
	}

	data, err := SerializeEvent(in)
	if err != nil {
		t.Fatalf("SerializeEvent() error = %v", err)
	}

	out, err := DeserializeEvent(data)
	if err != nil {
		t.Fatalf("DeserializeEvent() error = %v", err)
	}
	if out.Type != in.Type || out.ClientID != in.ClientID || out.Subject != in.Subject {
		t.Errorf("round trip lost fields: got %+v", out)
	}
	if out.Payload["platform"] != "webos" {
		t.Errorf("Payload[platform] = %v, want webos", out.Payload["platform"])
	}
}

func TestSerializerRejectsUntyped(t *testing.T) {
	t.Parallel()

	if _, err := SerializeEvent(&models.Event{ID: "evt-2"}); err == nil {
		t.Error("SerializeEvent() with empty type should fail")
	}
	if _, err := DeserializeEvent([]byte(`{"id":"evt-3"}`)); err == nil {
		t.Error("DeserializeEvent() with empty type should fail")
	}
}

// failingBus always errors, standing in for a down broker.
type failingBus struct{ calls int }

func (b *failingBus) PublishEvent(context.Context, *models.Event) error {
	b.calls++
	return errors.New("broker unavailable")
}
func (b *failingBus) Close() error { return nil }

func TestEmitSwallowsPublishFailure(t *testing.T) {
	t.Parallel()

	bus := &failingBus{}
	event := &models.Event{Type: models.EventScreenOnline, Subject: "s1"}

	// Must not panic or propagate; dispatch paths depend on that.
	Emit(context.Background(), bus, event)

	if bus.calls != 1 {
		t.Errorf("bus calls = %d, want 1", bus.calls)
	}
	if event.ID == "" {
		t.Error("Emit should assign an event ID")
	}
	if event.CreatedAt.IsZero() {
		t.Error("Emit should stamp CreatedAt")
	}
}

func TestEmitNilBus(t *testing.T) {
	t.Parallel()

	// Subsystems are allowed to hold a nil bus before wiring completes.
	Emit(context.Background(), nil, &models.Event{Type: models.EventScreenOnline})
}

func TestNopBus(t *testing.T) {
	t.Parallel()

	var bus Bus = NopBus{}
	if err := bus.PublishEvent(context.Background(), &models.Event{Type: "x"}); err != nil {
		t.Errorf("NopBus.PublishEvent() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("NopBus.Close() error = %v", err)
	}
}

func TestNotifiesRegistryChange(t *testing.T) {
	t.Parallel()

	changes := []string{
		models.EventScreenRegistered,
		models.EventScreenOnline,
		models.EventScreenOffline,
		models.EventScreenDeleted,
		models.EventRegistryChanged,
	}
	for _, typ := range changes {
		if !NotifiesRegistryChange(typ) {
			t.Errorf("NotifiesRegistryChange(%q) = false, want true", typ)
		}
	}
	for _, typ := range []string{models.EventDispatchSent, models.EventSyncPlayback, models.EventScheduleApplied} {
		if NotifiesRegistryChange(typ) {
			t.Errorf("NotifiesRegistryChange(%q) = true, want false", typ)
		}
	}
}

func TestDefaultStreamConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultStreamConfig("", 0)
	if cfg.Name != StreamName {
		t.Errorf("Name = %q, want %q", cfg.Name, StreamName)
	}
	if len(cfg.Subjects) != 1 || cfg.Subjects[0] != "signage.events.>" {
		t.Errorf("Subjects = %v, want [signage.events.>]", cfg.Subjects)
	}
	if cfg.MaxAge != 7*24*time.Hour {
		t.Errorf("MaxAge = %s, want 168h default", cfg.MaxAge)
	}
}

func TestServerConfigFromURL(t *testing.T) {
	t.Parallel()

	cfg, err := ServerConfigFromURL("nats://0.0.0.0:14222", "/tmp/js")
	if err != nil {
		t.Fatalf("ServerConfigFromURL() error = %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 14222 {
		t.Errorf("host:port = %s:%d, want 0.0.0.0:14222", cfg.Host, cfg.Port)
	}
	if cfg.StoreDir != "/tmp/js" {
		t.Errorf("StoreDir = %q, want /tmp/js", cfg.StoreDir)
	}

	cfg, err = ServerConfigFromURL("", "/tmp/js")
	if err != nil {
		t.Fatalf("ServerConfigFromURL(empty) error = %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 4222 {
		t.Errorf("defaults = %s:%d, want 127.0.0.1:4222", cfg.Host, cfg.Port)
	}
}
