// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package events

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/parkwise/signage/internal/models"
)

// DefaultSubjectPrefix is the NATS subject namespace for control-plane
// events. Event types append to it, e.g. signage.events.screen.offline.
const DefaultSubjectPrefix = "signage.events"

// StreamName is the JetStream stream holding all control-plane events.
// Stream names cannot contain wildcards, so subscribers bind to it by
// name and subscribe to the wildcard topic.
const StreamName = "SIGNAGE_EVENTS"

// Topic returns the NATS subject for one event type.
func Topic(prefix, eventType string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + "." + eventType
}

// WildcardTopic returns the subject matching every event under the prefix.
func WildcardTopic(prefix string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + ".>"
}

// EventTypeFromTopic recovers the event type from a full subject, or ""
// when the subject is outside the prefix namespace.
func EventTypeFromTopic(prefix, topic string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if !strings.HasPrefix(topic, prefix+".") {
		return ""
	}
	return topic[len(prefix)+1:]
}

// Serializer handles event encoding/decoding for NATS messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal converts an event to JSON bytes.
func (s *Serializer) Marshal(event *models.Event) ([]byte, error) {
	if event.Type == "" {
		return nil, fmt.Errorf("marshal event: missing type")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal converts JSON bytes to an event.
func (s *Serializer) Unmarshal(data []byte) (*models.Event, error) {
	var event models.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("unmarshal event: missing type")
	}
	return &event, nil
}

// SerializeEvent is a convenience function that marshals an event to JSON.
func SerializeEvent(event *models.Event) ([]byte, error) {
	return NewSerializer().Marshal(event)
}

// DeserializeEvent is a convenience function that unmarshals JSON to an event.
func DeserializeEvent(data []byte) (*models.Event, error) {
	return NewSerializer().Unmarshal(data)
}
