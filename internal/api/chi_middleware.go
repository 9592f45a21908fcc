// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/parkwise/signage/internal/config"
)

// ChiMiddlewareConfig holds configuration for the chi middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty, requiring explicit configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "X-Client-Id", "X-Request-ID"},
		CORSMaxAge:         86400,

		RateLimitRequests: 300,
		RateLimitWindow:   time.Minute,
	}
}

// ChiMiddleware provides chi-compatible middleware built from the
// production-hardened go-chi ecosystem implementations.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: cfg.CORSAllowedMethods,
		AllowedHeaders: cfg.CORSAllowedHeaders,
		MaxAge:         cfg.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: cfg,
		cors:   corsHandler,
	}
}

// NewChiMiddlewareFromConfig bridges the koanf API config block to the
// middleware factory.
func NewChiMiddlewareFromConfig(apiCfg *config.APIConfig) *ChiMiddleware {
	cfg := DefaultChiMiddlewareConfig()
	if apiCfg != nil {
		cfg.CORSAllowedOrigins = apiCfg.CORSOrigins
		if apiCfg.RateLimitReqs > 0 {
			cfg.RateLimitRequests = apiCfg.RateLimitReqs
		}
		if apiCfg.RateLimitWindow > 0 {
			cfg.RateLimitWindow = apiCfg.RateLimitWindow
		}
		cfg.RateLimitDisabled = apiCfg.RateLimitDisabled
	}
	return NewChiMiddleware(cfg)
}

// CORS returns the go-chi/cors middleware. Applied globally so OPTIONS
// preflights are answered on every route.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the default per-IP rate limiter.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// RateLimitConfig defines rate limit parameters for specific route groups.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Per-group rate limits. Dashboards poll stats and context aggressively,
// screens reconnect in storms after a venue network blip, and health is
// probed by orchestrators; each gets a budget matching that traffic.
var (
	// RateLimitHealth allows frequent liveness probes.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}

	// RateLimitWebSocket bounds upgrade attempts per IP, enough for a
	// venue's screen fleet to reconnect at once behind a shared NAT.
	RateLimitWebSocket = RateLimitConfig{Requests: 120, Window: time.Minute}

	// RateLimitPush bounds dispatch endpoints, which fan out to screens.
	RateLimitPush = RateLimitConfig{Requests: 120, Window: time.Minute}

	// RateLimitVideo bounds static media streaming requests.
	RateLimitVideo = RateLimitConfig{Requests: 300, Window: time.Minute}
)

// RateLimitCustom returns a per-IP limiter with route-specific bounds.
func (m *ChiMiddleware) RateLimitCustom(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByIP(cfg.Requests, cfg.Window)
}

// APISecurityHeaders adds defensive headers to API responses. CSP is
// omitted: these endpoints serve JSON, not HTML.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
