// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

import (
	"time"
)

// BootstrapClientID is the id of the tenant seeded at first start.
// It owns every request that does not name a tenant explicitly and can
// never be deleted.
const BootstrapClientID = "parkwise"

// Client plan tiers.
const (
	PlanBasic      = "basic"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Client represents a tenant. Every catalogue entity hangs off a client,
// and deleting a client cascades to all of them.
type Client struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name" validate:"required,min=1,max=200"`
	Slug     string                 `json:"slug" validate:"required,min=1,max=100"`
	LogoURL  string                 `json:"logo_url,omitempty" validate:"omitempty,url"`
	Branding map[string]interface{} `json:"branding,omitempty"`
	Contact  string                 `json:"contact,omitempty"`
	Plan     string                 `json:"plan" validate:"omitempty,oneof=basic pro enterprise"`
	Active   bool                   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsBootstrap reports whether this is the undeletable seed tenant.
func (c *Client) IsBootstrap() bool {
	return c.ID == BootstrapClientID
}

// DefaultBranding returns the branding blob applied to clients created
// without one. Keys mirror what the player themes understand.
func DefaultBranding() map[string]interface{} {
	return map[string]interface{}{
		"primaryColor":   "#1a73e8",
		"secondaryColor": "#174ea6",
		"accentColor":    "#fbbc04",
		"fontFamily":     "Inter, sans-serif",
		"theme":          "light",
	}
}
