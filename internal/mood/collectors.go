// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package mood

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/parkwise/signage/internal/models"
)

// Collector names. They double as metric labels and as keys into a
// location's moodSources override block.
const (
	collectorTime        = "time"
	collectorWeather     = "weather"
	collectorAudio       = "audio"
	collectorOccupancy   = "occupancy"
	collectorSecurity    = "security"
	collectorPeopleCount = "peopleCount"
)

// startSiteCollectors launches every enabled signal source for one
// location under the site's context. The clock collector always runs;
// the rest need an endpoint from global config or the location's
// moodSources block.
//
// The calendar collector is intentionally absent: the signal bag
// reserves CalendarBusy but no feed exists yet.
// TODO: wire the facilities calendar feed once the endpoint exists.
func (e *Engine) startSiteCollectors(ctx context.Context, loc *models.Location) {
	go e.runClock(ctx, loc)

	if e.config.Weather.Enabled {
		e.startWeather(ctx, loc)
	}
	if e.config.Occupancy.Enabled {
		e.startOccupancy(ctx, loc)
	}
	if e.config.Security.Enabled {
		e.startSecurity(ctx, loc)
	}
	if e.config.Audio.Enabled {
		e.startAudio(ctx, loc)
	}
	if e.config.PeopleCount.Enabled {
		e.startPeopleCount(ctx, loc)
	}
}

// runClock derives wall-clock signals in the location's zone once a
// minute. No endpoint, never fails.
func (e *Engine) runClock(ctx context.Context, loc *models.Location) {
	zone, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		log.Warn().
			Str("location_id", loc.ID).
			Str("timezone", loc.Timezone).
			Msg("Unknown timezone, clock signals use server time")
		zone = time.Local
	}

	e.tickClock(loc.ID, zone)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.tickClock(loc.ID, zone)
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) tickClock(locationID string, zone *time.Location) {
	now := time.Now().In(zone)
	hour := now.Hour()
	weekend := now.Weekday() == time.Saturday || now.Weekday() == time.Sunday

	e.signals.update(locationID, func(sig *models.Signals) {
		sig.LocalHour = &hour
		sig.IsWeekend = &weekend
		sig.Period = PeriodOf(hour)
		sig.Season = SeasonOf(now.Month())
	})
}

func (e *Engine) startWeather(ctx context.Context, loc *models.Location) {
	endpoint := e.collectorURL(loc, collectorWeather, e.config.Weather.URL)
	if endpoint == "" {
		return
	}
	endpoint = withLocationParams(endpoint, loc, true)

	var headers map[string]string
	if e.config.Weather.APIKey != "" {
		headers = map[string]string{"X-Api-Key": e.config.Weather.APIKey}
	}

	locID := loc.ID
	p := &poller{
		name:     collectorWeather,
		url:      endpoint,
		interval: e.config.Weather.Interval,
		client:   e.client,
		limiter:  e.limiter,
		breaker:  e.breakerFor(collectorWeather, endpoint),
		headers:  headers,
		handle: func(body []byte) error {
			var payload struct {
				TemperatureC *float64 `json:"temperatureC"`
				Condition    string   `json:"condition"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return fmt.Errorf("failed to parse weather payload: %w", err)
			}
			e.signals.update(locID, func(sig *models.Signals) {
				if payload.TemperatureC != nil {
					sig.TemperatureC = payload.TemperatureC
				}
				if payload.Condition != "" {
					sig.Condition = payload.Condition
				}
			})
			return nil
		},
	}
	go p.run(ctx)
}

func (e *Engine) startOccupancy(ctx context.Context, loc *models.Location) {
	endpoint := e.collectorURL(loc, collectorOccupancy, e.config.Occupancy.URL)
	if endpoint == "" {
		return
	}
	endpoint = withLocationParams(endpoint, loc, false)

	locID := loc.ID
	p := &poller{
		name:     collectorOccupancy,
		url:      endpoint,
		interval: e.config.Occupancy.Interval,
		client:   e.client,
		limiter:  e.limiter,
		breaker:  e.breakerFor(collectorOccupancy, endpoint),
		handle: func(body []byte) error {
			var payload struct {
				Ratio     *float64 `json:"ratio"`
				EntryRate *float64 `json:"entryRate"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return fmt.Errorf("failed to parse occupancy payload: %w", err)
			}
			e.signals.update(locID, func(sig *models.Signals) {
				if payload.Ratio != nil {
					sig.OccupancyRatio = payload.Ratio
				}
				if payload.EntryRate != nil {
					sig.EntryRate = payload.EntryRate
				}
			})
			return nil
		},
		// A location that never produced a reading borrows the mean of
		// its peers; an existing stale reading is kept instead.
		onError: func() {
			e.signals.fallbackOccupancy(locID)
		},
	}
	go p.run(ctx)
}

func (e *Engine) startSecurity(ctx context.Context, loc *models.Location) {
	endpoint := e.collectorURL(loc, collectorSecurity, e.config.Security.URL)
	if endpoint == "" {
		return
	}
	endpoint = withLocationParams(endpoint, loc, false)

	locID := loc.ID
	p := &poller{
		name:     collectorSecurity,
		url:      endpoint,
		interval: e.config.Security.Interval,
		client:   e.client,
		limiter:  e.limiter,
		breaker:  e.breakerFor(collectorSecurity, endpoint),
		handle: func(body []byte) error {
			var payload struct {
				Level           *int   `json:"level"`
				ActiveIncidents *int   `json:"activeIncidents"`
				HighestSeverity string `json:"highestSeverity"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return fmt.Errorf("failed to parse security payload: %w", err)
			}
			e.signals.update(locID, func(sig *models.Signals) {
				if payload.Level != nil {
					sig.SecurityLevel = payload.Level
				}
				if payload.ActiveIncidents != nil {
					sig.ActiveIncidents = payload.ActiveIncidents
				}
				if payload.HighestSeverity != "" {
					sig.HighestSeverity = payload.HighestSeverity
				}
			})
			return nil
		},
	}
	go p.run(ctx)
}

func (e *Engine) startAudio(ctx context.Context, loc *models.Location) {
	endpoint := e.collectorURL(loc, collectorAudio, e.config.Audio.URL)
	if endpoint == "" {
		return
	}

	window := newAudioWindow()
	locID := loc.ID
	sc := &streamCollector{
		name:    collectorAudio,
		url:     withLocationParams(endpoint, loc, false),
		backoff: e.config.ReconnectBackoff,
		onMsg: func(data []byte) {
			var payload struct {
				Level float64 `json:"level"`
				Spike bool    `json:"spike"`
			}
			if err := json.Unmarshal(data, &payload); err != nil {
				log.Warn().Err(err).Str("collector", collectorAudio).Msg("Discarding malformed audio sample")
				return
			}
			now := time.Now()
			window.add(now, clamp01(payload.Level), payload.Spike)
			level, spikes, sustained := window.stats(now)
			e.signals.update(locID, func(sig *models.Signals) {
				sig.AudioLevel = &level
				sig.SpikeFrequency = &spikes
				sig.SustainedLoud = sustained
			})
		},
	}
	go sc.run(ctx)
}

func (e *Engine) startPeopleCount(ctx context.Context, loc *models.Location) {
	endpoint := e.collectorURL(loc, collectorPeopleCount, e.config.PeopleCount.URL)
	if endpoint == "" {
		return
	}

	locID := loc.ID
	sc := &streamCollector{
		name:    collectorPeopleCount,
		url:     withLocationParams(endpoint, loc, false),
		backoff: e.config.ReconnectBackoff,
		onMsg: func(data []byte) {
			var payload struct {
				Count *int `json:"count"`
			}
			if err := json.Unmarshal(data, &payload); err != nil || payload.Count == nil {
				log.Warn().Str("collector", collectorPeopleCount).Msg("Discarding malformed people count")
				return
			}
			e.signals.update(locID, func(sig *models.Signals) {
				sig.PeopleCount = payload.Count
			})
		},
	}
	go sc.run(ctx)
}

// collectorURL resolves the endpoint for one collector at one location:
// the location's moodSources override wins over the global default.
func (e *Engine) collectorURL(loc *models.Location, name, global string) string {
	if override := loc.MoodSource(name); override != "" {
		return override
	}
	return global
}

// withLocationParams appends the location id (and for geo-aware feeds
// the coordinates) as query parameters. Returns the endpoint unchanged
// when it does not parse.
func withLocationParams(endpoint string, loc *models.Location, geo bool) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	q.Set("locationId", loc.ID)
	if geo && (loc.Latitude != 0 || loc.Longitude != 0) {
		q.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
