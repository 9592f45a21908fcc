// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

// Package config provides layered configuration for the signage server.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all settings
//  2. Config File: optional YAML file (signage.yaml) for persistent settings
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Events   EventsConfig   `koanf:"events"`
	Registry RegistryConfig `koanf:"registry"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Mood     MoodConfig     `koanf:"mood"`
	Content  ContentConfig  `koanf:"content"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`

	// Secret is the process secret used to decrypt enc:-prefixed config
	// values (collector credentials). Empty disables decryption.
	Secret string `koanf:"secret"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: listen port (default: 3400)
//   - HTTP_HOST: bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: read/write timeout (default: 30s)
//   - MAX_SCREENS: cap on simultaneously connected screens (default: 1000)
type ServerConfig struct {
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxScreens int           `koanf:"max_screens"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment Variables:
//   - DUCKDB_PATH: database file path (default: /data/signage.duckdb)
//   - DUCKDB_MAX_MEMORY: memory limit (default: 1GB)
//   - DUCKDB_THREADS: worker threads, 0 = runtime.NumCPU()
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// CacheConfig holds the badger store settings used for the screenshot cache.
type CacheConfig struct {
	Dir           string        `koanf:"dir"`
	ScreenshotTTL time.Duration `koanf:"screenshot_ttl"`
}

// EventsConfig holds the embedded NATS JetStream event pipeline settings.
//
// Environment Variables:
//   - EVENTS_ENABLED: enable the lifecycle event pipeline (default: true)
//   - NATS_URL: broker URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: run the broker in-process (default: true)
//   - NATS_STORE_DIR: JetStream storage directory
type EventsConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	SubjectPrefix  string `koanf:"subject_prefix"`
	RetentionDays  int    `koanf:"retention_days"`
}

// RegistryConfig holds screen registry and push bus settings.
//
// OfflineThreshold is the default; the settings table key
// "offline_threshold_minutes" overrides it at runtime.
type RegistryConfig struct {
	HeartbeatInterval   time.Duration `koanf:"heartbeat_interval"`
	OfflineThreshold    time.Duration `koanf:"offline_threshold"`
	OfflineScanInterval time.Duration `koanf:"offline_scan_interval"`
	SendQueueSize       int           `koanf:"send_queue_size"`
}

// ScheduleConfig holds schedule evaluator cadence settings.
type ScheduleConfig struct {
	Interval      time.Duration `koanf:"interval"`
	MutationDelay time.Duration `koanf:"mutation_delay"`
}

// MoodConfig holds context engine settings. Collector endpoints here are
// global defaults; a location's config JSON (moodSources) overrides them
// per location.
type MoodConfig struct {
	Enabled           bool          `koanf:"enabled"`
	LerpInterval      time.Duration `koanf:"lerp_interval"`
	BroadcastInterval time.Duration `koanf:"broadcast_interval"`
	RefreshInterval   time.Duration `koanf:"refresh_interval"`
	PollTimeout       time.Duration `koanf:"poll_timeout"`
	ReconnectBackoff  time.Duration `koanf:"reconnect_backoff"`
	PollRatePerSecond float64       `koanf:"poll_rate_per_second"`

	Weather     WeatherConfig   `koanf:"weather"`
	Audio       CollectorConfig `koanf:"audio"`
	Occupancy   CollectorConfig `koanf:"occupancy"`
	Security    CollectorConfig `koanf:"security"`
	PeopleCount CollectorConfig `koanf:"people_count"`
}

// WeatherConfig holds the weather poll endpoint. APIKey may be stored
// encrypted in the config file with an enc: prefix.
type WeatherConfig struct {
	Enabled  bool          `koanf:"enabled"`
	URL      string        `koanf:"url"`
	APIKey   string        `koanf:"api_key"`
	Interval time.Duration `koanf:"interval"`
}

// CollectorConfig holds one signal source endpoint.
type CollectorConfig struct {
	Enabled  bool          `koanf:"enabled"`
	URL      string        `koanf:"url"`
	Interval time.Duration `koanf:"interval"`
}

// ContentConfig holds static content settings.
type ContentConfig struct {
	VideoDir string `koanf:"video_dir"`
}

// APIConfig holds HTTP API behavior settings.
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the assembled configuration and returns the first problem
// found. Called by Load(); the process refuses to start on error.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.MaxScreens <= 0 {
		return fmt.Errorf("server.max_screens must be positive, got %d", c.Server.MaxScreens)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Registry.SendQueueSize <= 0 {
		return fmt.Errorf("registry.send_queue_size must be positive, got %d", c.Registry.SendQueueSize)
	}
	if c.Registry.OfflineThreshold <= 0 {
		return fmt.Errorf("registry.offline_threshold must be positive, got %s", c.Registry.OfflineThreshold)
	}
	if c.Registry.OfflineScanInterval <= 0 {
		return fmt.Errorf("registry.offline_scan_interval must be positive, got %s", c.Registry.OfflineScanInterval)
	}
	if c.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive, got %s", c.Schedule.Interval)
	}
	if c.Schedule.MutationDelay <= 0 {
		return fmt.Errorf("schedule.mutation_delay must be positive, got %s", c.Schedule.MutationDelay)
	}
	if c.Mood.Enabled {
		if c.Mood.LerpInterval <= 0 {
			return fmt.Errorf("mood.lerp_interval must be positive, got %s", c.Mood.LerpInterval)
		}
		if c.Mood.BroadcastInterval <= 0 {
			return fmt.Errorf("mood.broadcast_interval must be positive, got %s", c.Mood.BroadcastInterval)
		}
		if c.Mood.RefreshInterval <= 0 {
			return fmt.Errorf("mood.refresh_interval must be positive, got %s", c.Mood.RefreshInterval)
		}
		if c.Mood.PollTimeout <= 0 || c.Mood.PollTimeout > 10*time.Second {
			return fmt.Errorf("mood.poll_timeout must be in (0s, 10s], got %s", c.Mood.PollTimeout)
		}
		if c.Mood.Weather.Enabled && c.Mood.Weather.URL == "" {
			return fmt.Errorf("mood.weather.url required when weather collector enabled")
		}
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events.url required when events enabled")
	}
	return nil
}
