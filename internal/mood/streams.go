// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package mood

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// streamCollector consumes a push-style WebSocket signal feed (audio
// analysis, people counters). Disconnects reconnect on a fixed backoff
// until the site context is cancelled.
type streamCollector struct {
	name    string
	url     string
	backoff time.Duration
	onMsg   func(data []byte)
}

func (s *streamCollector) run(ctx context.Context) {
	for {
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Warn().
			Err(err).
			Str("collector", s.name).
			Str("url", s.url).
			Dur("backoff", s.backoff).
			Msg("Stream collector disconnected, reconnecting")

		select {
		case <-time.After(s.backoff):
		case <-ctx.Done():
			return
		}
	}
}

// consume holds one connection open and feeds every message to onMsg.
// Returns when the connection drops or the context is cancelled.
func (s *streamCollector) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, s.url, nil)
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// ReadMessage has no context support; close the socket from the
	// side when the site shuts down so the read unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("websocket read: %w", err)
		}
		s.onMsg(data)
	}
}

// audioSample is one reading inside the sliding window.
type audioSample struct {
	at    time.Time
	level float64
	spike bool
}

// audioWindow keeps one minute of audio readings and reduces them to the
// level / spike-frequency / sustained-loud trio the processor consumes.
type audioWindow struct {
	mu      sync.Mutex
	span    time.Duration
	samples []audioSample
}

func newAudioWindow() *audioWindow {
	return &audioWindow{span: time.Minute}
}

func (w *audioWindow) add(at time.Time, level float64, spike bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, audioSample{at: at, level: level, spike: spike})
	w.trim(at)
}

// trim drops samples older than the window span. Callers hold w.mu.
func (w *audioWindow) trim(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.samples) && w.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.samples = append(w.samples[:0], w.samples[i:]...)
	}
}

// stats reduces the current window. Spike frequency normalises twenty
// spikes per minute to 1.0; sustained means the window has averaged loud
// for at least thirty seconds.
func (w *audioWindow) stats(now time.Time) (level, spikeFreq float64, sustained bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.trim(now)
	if len(w.samples) == 0 {
		return 0, 0, false
	}

	var sum float64
	var spikes int
	for _, s := range w.samples {
		sum += s.level
		if s.spike {
			spikes++
		}
	}
	level = sum / float64(len(w.samples))
	spikeFreq = math.Min(1, float64(spikes)/20)
	sustained = level >= 0.7 && now.Sub(w.samples[0].at) >= 30*time.Second
	return level, spikeFreq, sustained
}
