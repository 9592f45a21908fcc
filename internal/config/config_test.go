// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.Server.Port != 3400 {
		t.Errorf("expected default port 3400, got %d", cfg.Server.Port)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.Server.Timeout)
	}
	if cfg.Registry.OfflineThreshold != 10*time.Minute {
		t.Errorf("expected default offline threshold 10m, got %v", cfg.Registry.OfflineThreshold)
	}
	if cfg.Registry.SendQueueSize != 64 {
		t.Errorf("expected default send queue size 64, got %d", cfg.Registry.SendQueueSize)
	}
	if cfg.Schedule.Interval != time.Minute {
		t.Errorf("expected default schedule interval 1m, got %v", cfg.Schedule.Interval)
	}
	if cfg.Schedule.MutationDelay != 5*time.Second {
		t.Errorf("expected default mutation delay 5s, got %v", cfg.Schedule.MutationDelay)
	}
	if cfg.Mood.LerpInterval != 500*time.Millisecond {
		t.Errorf("expected default lerp interval 500ms, got %v", cfg.Mood.LerpInterval)
	}
	if cfg.Mood.BroadcastInterval != 2*time.Second {
		t.Errorf("expected default broadcast interval 2s, got %v", cfg.Mood.BroadcastInterval)
	}
	if cfg.Events.SubjectPrefix != "signage.events" {
		t.Errorf("expected default subject prefix signage.events, got %s", cfg.Events.SubjectPrefix)
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "*" {
		t.Errorf("expected default CORS origins [*], got %v", cfg.API.CORSOrigins)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("DUCKDB_PATH", "/tmp/test.duckdb")
	t.Setenv("OFFLINE_THRESHOLD", "5m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080 from env, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("expected database path from env, got %s", cfg.Database.Path)
	}
	if cfg.Registry.OfflineThreshold != 5*time.Minute {
		t.Errorf("expected offline threshold 5m from env, got %v", cfg.Registry.OfflineThreshold)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug from env, got %s", cfg.Logging.Level)
	}
	if len(cfg.API.CORSOrigins) != 2 {
		t.Fatalf("expected 2 CORS origins, got %v", cfg.API.CORSOrigins)
	}
	if cfg.API.CORSOrigins[0] != "https://a.example.com" || cfg.API.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected CORS origins: %v", cfg.API.CORSOrigins)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signage.yaml")

	yaml := `
server:
  port: 4500
registry:
  send_queue_size: 128
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 4500 {
		t.Errorf("expected port 4500 from file, got %d", cfg.Server.Port)
	}
	if cfg.Registry.SendQueueSize != 128 {
		t.Errorf("expected queue size 128 from file, got %d", cfg.Registry.SendQueueSize)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn from file, got %s", cfg.Logging.Level)
	}
	// Untouched values keep their defaults.
	if cfg.Schedule.Interval != time.Minute {
		t.Errorf("expected default schedule interval, got %v", cfg.Schedule.Interval)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signage.yaml")

	yaml := "server:\n  port: 4500\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected env to win over file, got port %d", cfg.Server.Port)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "database.path"},
		{"NATS_URL", "events.url"},
		{"SCREEN_QUEUE_SIZE", "registry.send_queue_size"},
		{"MOOD_WEATHER_URL", "mood.weather.url"},
		{"SIGNAGE_SECRET", "secret"},
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_UNMAPPED_VAR", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"zero queue size", func(c *Config) { c.Registry.SendQueueSize = 0 }},
		{"zero offline threshold", func(c *Config) { c.Registry.OfflineThreshold = 0 }},
		{"zero schedule interval", func(c *Config) { c.Schedule.Interval = 0 }},
		{"zero mutation delay", func(c *Config) { c.Schedule.MutationDelay = 0 }},
		{"weather enabled without URL", func(c *Config) {
			c.Mood.Weather.Enabled = true
			c.Mood.Weather.URL = ""
		}},
		{"events enabled without URL", func(c *Config) {
			c.Events.Enabled = true
			c.Events.URL = ""
		}},
		{"poll timeout too large", func(c *Config) { c.Mood.PollTimeout = 11 * time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error for %s, got nil", tt.name)
			}
		})
	}
}

func TestCredentialEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewCredentialEncryptor("test-secret-for-unit-tests")
	if err != nil {
		t.Fatalf("NewCredentialEncryptor failed: %v", err)
	}

	plaintext := "weather-api-key-12345"

	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if ciphertext == plaintext {
		t.Fatal("ciphertext equals plaintext")
	}

	decrypted, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("round trip mismatch: got %q, want %q", decrypted, plaintext)
	}
}

func TestCredentialEncryptor_EmptySecret(t *testing.T) {
	if _, err := NewCredentialEncryptor(""); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("expected ErrEmptySecret, got %v", err)
	}
}

func TestCredentialEncryptor_WrongKey(t *testing.T) {
	enc1, err := NewCredentialEncryptor("secret-one")
	if err != nil {
		t.Fatalf("NewCredentialEncryptor failed: %v", err)
	}
	enc2, err := NewCredentialEncryptor("secret-two")
	if err != nil {
		t.Fatalf("NewCredentialEncryptor failed: %v", err)
	}

	ciphertext, err := enc1.Encrypt("payload")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := enc2.Decrypt(ciphertext); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("expected ErrInvalidCiphertext with wrong key, got %v", err)
	}
}

func TestCredentialEncryptor_MalformedCiphertext(t *testing.T) {
	enc, err := NewCredentialEncryptor("secret")
	if err != nil {
		t.Fatalf("NewCredentialEncryptor failed: %v", err)
	}

	tests := []string{"", "not-base64!!!", "QQ=="}
	for _, ct := range tests {
		if _, err := enc.Decrypt(ct); err == nil {
			t.Errorf("expected error decrypting %q, got nil", ct)
		}
	}
}

func TestLoad_DecryptsWeatherAPIKey(t *testing.T) {
	const secret = "process-secret"
	const apiKey = "owm-key-998877"

	enc, err := NewCredentialEncryptor(secret)
	if err != nil {
		t.Fatalf("NewCredentialEncryptor failed: %v", err)
	}
	ciphertext, err := enc.Encrypt(apiKey)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	t.Setenv("SIGNAGE_SECRET", secret)
	t.Setenv("MOOD_WEATHER_ENABLED", "true")
	t.Setenv("MOOD_WEATHER_URL", "https://api.weather.example/v1")
	t.Setenv("MOOD_WEATHER_API_KEY", encryptedPrefix+ciphertext)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Mood.Weather.APIKey != apiKey {
		t.Errorf("expected decrypted API key %q, got %q", apiKey, cfg.Mood.Weather.APIKey)
	}
}

func TestLoad_EncryptedValueWithoutSecret(t *testing.T) {
	t.Setenv("MOOD_WEATHER_ENABLED", "true")
	t.Setenv("MOOD_WEATHER_URL", "https://api.weather.example/v1")
	t.Setenv("MOOD_WEATHER_API_KEY", "enc:AAAA")

	if _, err := Load(); err == nil {
		t.Error("expected error for encrypted value without SIGNAGE_SECRET, got nil")
	}
}
