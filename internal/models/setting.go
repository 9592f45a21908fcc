// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

import (
	"time"
)

// Well-known setting keys. Settings are process-wide string pairs seeded
// at first start; unknown keys round-trip untouched for forward compat.
const (
	SettingDefaultTransition       = "default_transition"
	SettingAlertAutoExpireMS       = "alert_auto_expire_ms"
	SettingOfflineThresholdMinutes = "offline_threshold_minutes"
	SettingBrandingTheme           = "branding_theme"
)

// Setting is one key/value pair.
type Setting struct {
	Key       string    `json:"key" validate:"required,min=1,max=100"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings returns the pairs seeded when the settings table is
// created. Values are strings even for numeric settings.
func DefaultSettings() map[string]string {
	return map[string]string{
		SettingDefaultTransition:       "fade",
		SettingAlertAutoExpireMS:       "30000",
		SettingOfflineThresholdMinutes: "10",
		SettingBrandingTheme:           "light",
	}
}
