// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package models

// Error codes carried in APIError.Code. DEPENDENCY_FAILED never crosses
// the HTTP boundary: collector and bus failures are logged and absorbed,
// surfacing at most as stale data.
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeEmptyPlaylist    = "EMPTY_PLAYLIST"
	ErrCodeDependencyFailed = "DEPENDENCY_FAILED"
	ErrCodeInternal         = "INTERNAL"
)

// APIResponse is the wrapper every HTTP endpoint returns.
//
// Example success:
//
//	{"success": true, "data": {"dispatched": 3, "matched": 3}}
//
// Example error:
//
//	{"success": false, "error": {"code": "NOT_FOUND", "message": "screen lobby-4 not found"}}
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError carries a machine-readable code plus a human-readable message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PushRequest is the generic push body: resolve Target, wrap the rest in
// an envelope stamped source="api".
type PushRequest struct {
	Target   string                 `json:"target" validate:"required"`
	Type     string                 `json:"type" validate:"required,oneof=url media widget playlist alert clear mode reload"`
	Content  map[string]interface{} `json:"content"`
	Level    string                 `json:"level,omitempty" validate:"omitempty,oneof=info warn error"`
	Duration int64                  `json:"duration,omitempty"`
}

// WidgetPushRequest is the POST /api/push/widget convenience body.
type WidgetPushRequest struct {
	Target string                 `json:"target" validate:"required"`
	Widget string                 `json:"widget" validate:"required"`
	Config map[string]interface{} `json:"config,omitempty"`
}

// AlertPushRequest is the POST /api/push/alert convenience body. Duration
// zero falls back to the alert_auto_expire_ms setting.
type AlertPushRequest struct {
	Target   string `json:"target" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Level    string `json:"level,omitempty" validate:"omitempty,oneof=info warn error"`
	Duration int64  `json:"duration,omitempty"`
}

// ClearRequest targets a clear dispatch. An empty target means "all".
type ClearRequest struct {
	Target string `json:"target"`
}

// ModeRequest forces a screen's mode.
type ModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=signage interactive"`
}

// SeekRequest jumps a playing sync group to an item index.
type SeekRequest struct {
	ItemIndex int `json:"itemIndex" validate:"min=0"`
}

// AttachScreensRequest attaches screens to a sync group or assigns them
// to a location, depending on the route.
type AttachScreensRequest struct {
	ScreenIDs []string `json:"screenIds" validate:"required,min=1,dive,required"`
}
