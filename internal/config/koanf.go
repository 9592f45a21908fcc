// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"signage.yaml",
	"signage.yml",
	"config/signage.yaml",
	"/etc/signage/signage.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. These are loaded
// first, then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       3400,
			Timeout:    30 * time.Second,
			MaxScreens: 1000,
		},
		Database: DatabaseConfig{
			Path:      "/data/signage.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Cache: CacheConfig{
			Dir:           "/data/cache",
			ScreenshotTTL: 24 * time.Hour,
		},
		Events: EventsConfig{
			Enabled:        true,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			SubjectPrefix:  "signage.events",
			RetentionDays:  7,
		},
		Registry: RegistryConfig{
			HeartbeatInterval:   30 * time.Second,
			OfflineThreshold:    10 * time.Minute,
			OfflineScanInterval: time.Minute,
			SendQueueSize:       64,
		},
		Schedule: ScheduleConfig{
			Interval:      time.Minute,
			MutationDelay: 5 * time.Second,
		},
		Mood: MoodConfig{
			Enabled:           true,
			LerpInterval:      500 * time.Millisecond,
			BroadcastInterval: 2 * time.Second,
			RefreshInterval:   2 * time.Second,
			PollTimeout:       10 * time.Second,
			ReconnectBackoff:  30 * time.Second,
			PollRatePerSecond: 5,
			Weather: WeatherConfig{
				Enabled:  false,
				Interval: 10 * time.Minute,
			},
			Audio:       CollectorConfig{Enabled: false},
			Occupancy:   CollectorConfig{Enabled: false, Interval: time.Minute},
			Security:    CollectorConfig{Enabled: false, Interval: 30 * time.Second},
			PeopleCount: CollectorConfig{Enabled: false},
		},
		Content: ContentConfig{
			VideoDir: "/data/videos",
		},
		API: APIConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
// defaults, then an optional YAML file, then environment variables.
// enc:-prefixed secret values are decrypted when a process secret is set.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.decryptSecrets(); err != nil {
		return nil, fmt.Errorf("failed to decrypt config secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, honoring CONFIG_PATH first.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// set via environment variables.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML): leave as-is.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so random environment noise cannot leak
// into the configuration.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - MOOD_WEATHER_URL -> mood.weather.url
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"max_screens":  "server.max_screens",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Cache
		"cache_dir":      "cache.dir",
		"screenshot_ttl": "cache.screenshot_ttl",

		// Events / NATS
		"events_enabled":       "events.enabled",
		"nats_url":             "events.url",
		"nats_embedded":        "events.embedded_server",
		"nats_store_dir":       "events.store_dir",
		"events_prefix":        "events.subject_prefix",
		"events_retention_days": "events.retention_days",

		// Registry
		"heartbeat_interval":    "registry.heartbeat_interval",
		"offline_threshold":     "registry.offline_threshold",
		"offline_scan_interval": "registry.offline_scan_interval",
		"screen_queue_size":     "registry.send_queue_size",

		// Schedule evaluator
		"schedule_interval":       "schedule.interval",
		"schedule_mutation_delay": "schedule.mutation_delay",

		// Mood engine
		"mood_enabled":            "mood.enabled",
		"mood_lerp_interval":      "mood.lerp_interval",
		"mood_broadcast_interval": "mood.broadcast_interval",
		"mood_refresh_interval":   "mood.refresh_interval",
		"mood_poll_timeout":       "mood.poll_timeout",
		"mood_reconnect_backoff":  "mood.reconnect_backoff",
		"mood_poll_rate":          "mood.poll_rate_per_second",
		"mood_weather_enabled":    "mood.weather.enabled",
		"mood_weather_url":        "mood.weather.url",
		"mood_weather_api_key":    "mood.weather.api_key",
		"mood_weather_interval":   "mood.weather.interval",
		"mood_audio_enabled":      "mood.audio.enabled",
		"mood_audio_url":          "mood.audio.url",
		"mood_occupancy_enabled":  "mood.occupancy.enabled",
		"mood_occupancy_url":      "mood.occupancy.url",
		"mood_occupancy_interval": "mood.occupancy.interval",
		"mood_security_enabled":   "mood.security.enabled",
		"mood_security_url":       "mood.security.url",
		"mood_security_interval":  "mood.security.interval",
		"mood_people_enabled":     "mood.people_count.enabled",
		"mood_people_url":         "mood.people_count.url",

		// Content
		"video_dir": "content.video_dir",

		// API
		"cors_origins":        "api.cors_origins",
		"rate_limit_requests": "api.rate_limit_reqs",
		"rate_limit_window":   "api.rate_limit_window",
		"disable_rate_limit":  "api.rate_limit_disabled",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Secrets
		"signage_secret": "secret",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}

// decryptSecrets decrypts enc:-prefixed values in place. A missing process
// secret with encrypted values present is an error; plaintext values pass
// through untouched.
func (c *Config) decryptSecrets() error {
	fields := []*string{
		&c.Mood.Weather.APIKey,
	}

	var enc *CredentialEncryptor
	for _, f := range fields {
		if !strings.HasPrefix(*f, encryptedPrefix) {
			continue
		}
		if c.Secret == "" {
			return fmt.Errorf("encrypted config value present but SIGNAGE_SECRET is not set")
		}
		if enc == nil {
			var err error
			if enc, err = NewCredentialEncryptor(c.Secret); err != nil {
				return err
			}
		}
		plain, err := enc.Decrypt(strings.TrimPrefix(*f, encryptedPrefix))
		if err != nil {
			return err
		}
		*f = plain
	}
	return nil
}

// WatchConfigFile sets up a file watcher for hot-reload. The caller owns
// mutex protection around configuration access during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
