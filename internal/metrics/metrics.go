// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Screen registry (connections, registrations, offline flips)
// - Push bus dispatch and per-screen queue drops
// - Sync engine playback
// - Schedule evaluator
// - Mood collectors and broadcasts
// - Database query performance (DuckDB)
// - API endpoint latency and throughput
// - NATS event pipeline

var (
	// Screen Registry Metrics
	ScreensConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_screens_connected",
			Help: "Current number of screens with an open event channel",
		},
	)

	ScreensByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signage_screens_by_status",
			Help: "Registered screens by persisted status",
		},
		[]string{"status"}, // "online", "offline"
	)

	ScreenRegistrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_screen_registrations_total",
			Help: "Total number of screen register/upsert operations",
		},
	)

	ScreenOfflineFlips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_screen_offline_flips_total",
			Help: "Total number of screens flipped offline by the heartbeat scanner",
		},
	)

	// Push Bus Metrics
	PushDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_push_dispatched_total",
			Help: "Total envelopes enqueued to screens",
		},
		[]string{"source", "type"}, // source: api/schedule/sync/mood
	)

	PushMatchedEmpty = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_push_matched_empty_total",
			Help: "Total pushes whose target resolved to zero connected screens",
		},
	)

	PushDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_push_dropped_total",
			Help: "Total messages dropped from full per-screen send queues (oldest first)",
		},
		[]string{"screen_id"},
	)

	// WebSocket Metrics
	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_ws_messages_sent_total",
			Help: "Total frames written to screen channels",
		},
		[]string{"type"},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_ws_messages_received_total",
			Help: "Total frames received from screens",
		},
		[]string{"type"},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_ws_errors_total",
			Help: "Total WebSocket errors",
		},
		[]string{"error_type"}, // "read", "write", "upgrade", "decode"
	)

	// Sync Engine Metrics
	SyncGroupsPlaying = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_sync_groups_playing",
			Help: "Current number of sync groups with active playback",
		},
	)

	SyncTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_sync_ticks_total",
			Help: "Total playback advances fanned out to sync groups",
		},
		[]string{"group_id"},
	)

	SyncAcks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_sync_acks_total",
			Help: "Total tick acknowledgements received from screens",
		},
		[]string{"group_id"},
	)

	// Schedule Evaluator Metrics
	ScheduleEvaluations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_schedule_evaluations_total",
			Help: "Total evaluator passes",
		},
	)

	ScheduleApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_schedule_applied_total",
			Help: "Total playlist switches dispatched by the evaluator",
		},
	)

	ScheduleCleared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_schedule_cleared_total",
			Help: "Total clears dispatched when no schedule matches",
		},
	)

	ScheduleEvalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signage_schedule_eval_duration_seconds",
			Help:    "Duration of one evaluator pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Mood Engine Metrics
	MoodCollectorRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_mood_collector_runs_total",
			Help: "Total collector poll attempts",
		},
		[]string{"collector", "result"}, // result: "success", "failure", "skipped"
	)

	MoodBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_mood_broadcasts_total",
			Help: "Total context:mood frames broadcast to locations",
		},
	)

	MoodCollectorBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signage_mood_collector_breaker_state",
			Help: "Collector circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"collector"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s .. 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Screenshot Cache Metrics
	ScreenshotCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_screenshot_cache_hits_total",
			Help: "Total screenshot cache hits",
		},
	)

	ScreenshotCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_screenshot_cache_misses_total",
			Help: "Total screenshot cache misses",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// NATS Event Pipeline Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of events published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of events consumed from NATS",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_parse_failed_total",
			Help: "Total number of events that failed to parse",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDispatch records envelopes enqueued by one push call.
func RecordDispatch(source, envType string, dispatched int) {
	if dispatched == 0 {
		PushMatchedEmpty.Inc()
		return
	}
	PushDispatched.WithLabelValues(source, envType).Add(float64(dispatched))
}

// RecordQueueDrop records a message dropped from a full per-screen queue.
func RecordQueueDrop(screenID string) {
	PushDropped.WithLabelValues(screenID).Inc()
}

// RecordFrameSent records a frame written to a screen channel.
func RecordFrameSent(frameType string) {
	WSMessagesSent.WithLabelValues(frameType).Inc()
}

// RecordFrameReceived records a frame received from a screen.
func RecordFrameReceived(frameType string) {
	WSMessagesReceived.WithLabelValues(frameType).Inc()
}

// RecordWSError records a WebSocket error by category.
func RecordWSError(errorType string) {
	WSErrors.WithLabelValues(errorType).Inc()
}

// UpdateScreenGauges refreshes the registry gauges after a registry change.
func UpdateScreenGauges(connected, online, offline int) {
	ScreensConnected.Set(float64(connected))
	ScreensByStatus.WithLabelValues("online").Set(float64(online))
	ScreensByStatus.WithLabelValues("offline").Set(float64(offline))
}

// RecordScheduleEvaluation records one evaluator pass and its outcome counts.
func RecordScheduleEvaluation(duration time.Duration, applied, cleared int) {
	ScheduleEvaluations.Inc()
	ScheduleEvalDuration.Observe(duration.Seconds())
	ScheduleApplied.Add(float64(applied))
	ScheduleCleared.Add(float64(cleared))
}

// RecordCollectorRun records a mood collector poll attempt.
func RecordCollectorRun(collector string, err error) {
	if err != nil {
		MoodCollectorRuns.WithLabelValues(collector, "failure").Inc()
		return
	}
	MoodCollectorRuns.WithLabelValues(collector, "success").Inc()
}

// UpdateCollectorBreakerState mirrors a gobreaker state change onto the gauge.
func UpdateCollectorBreakerState(collector string, state int) {
	MoodCollectorBreakerState.WithLabelValues(collector).Set(float64(state))
}

// RecordNATSPublish records an event published to NATS
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records an event consumed from NATS
func RecordNATSConsume() {
	NATSMessagesConsumed.Inc()
}

// RecordNATSParseFailed records an event that failed to parse
func RecordNATSParseFailed() {
	NATSMessagesParseFailed.Inc()
}
