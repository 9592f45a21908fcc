// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package mood

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/parkwise/signage/internal/metrics"
)

// maxCollectorBody caps how much of a collector response we read.
const maxCollectorBody = 1 << 20

// poller runs one HTTP signal source for one location on a fixed
// interval. All pollers share the engine's rate limiter; each endpoint
// gets its own circuit breaker so a dead weather service cannot trip
// the occupancy feed.
type poller struct {
	name     string
	url      string
	interval time.Duration
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	headers  map[string]string

	// handle parses a successful response body into the signal store.
	handle func(body []byte) error

	// onError runs after a failed poll, for stale-keep fallbacks.
	onError func()
}

// newCollectorBreaker builds the per-endpoint breaker. Trips after
// three consecutive failures, probes again after 30 seconds.
func newCollectorBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(n string, from, to gobreaker.State) {
			metrics.UpdateCollectorBreakerState(n, int(to))
			log.Warn().
				Str("collector", n).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Collector circuit breaker state changed")
		},
	})
}

// run polls once immediately, then on every interval tick until the
// site context is cancelled.
func (p *poller) run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *poller) poll(ctx context.Context) {
	if err := p.limiter.Wait(ctx); err != nil {
		return
	}

	body, err := p.breaker.Execute(func() ([]byte, error) {
		return p.fetch(ctx)
	})

	// An open breaker means the fetch never ran. Count it separately
	// so failure rates reflect real attempts.
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.MoodCollectorRuns.WithLabelValues(p.name, "skipped").Inc()
		return
	}

	if err == nil {
		err = p.handle(body)
	}
	metrics.RecordCollectorRun(p.name, err)

	if err != nil {
		log.Warn().
			Err(err).
			Str("collector", p.name).
			Str("url", p.url).
			Msg("Collector poll failed, keeping cached signals")
		if p.onError != nil {
			p.onError()
		}
	}
}

func (p *poller) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCollectorBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
