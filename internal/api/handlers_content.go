// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/models"
)

// builtinWidgets is the catalogue of widgets every player build ships with.
// The IDs are what playlist items and push payloads reference; the player
// resolves them locally, so adding an entry here without a matching player
// release produces blank screens.
var builtinWidgets = []models.ContentItem{
	{ID: "clock", Name: "Clock", Type: "widget", Description: "Analog or digital clock with timezone support"},
	{ID: "weather", Name: "Weather", Type: "widget", Description: "Current conditions and short-range forecast for the location"},
	{ID: "announcement", Name: "Announcement Board", Type: "widget", Description: "Scrolling list of active announcements for the tenant"},
	{ID: "ticker", Name: "News Ticker", Type: "widget", Description: "Horizontal ticker fed from an RSS or JSON feed URL"},
	{ID: "occupancy", Name: "Occupancy Gauge", Type: "widget", Description: "Live space availability gauge driven by the location occupancy feed"},
	{ID: "wayfinding", Name: "Wayfinding Arrow", Type: "widget", Description: "Directional arrow with distance and label, for guidance chains"},
	{ID: "qr", Name: "QR Code", Type: "widget", Description: "Generated QR code for a configurable URL"},
	{ID: "ambient", Name: "Ambient Scene", Type: "widget", Description: "Slow generative visuals that follow the location mood context"},
}

// builtinTemplates are full-screen layouts that compose widgets and media
// regions. Same contract as builtinWidgets: the player owns the rendering.
var builtinTemplates = []models.ContentItem{
	{ID: "fullscreen", Name: "Fullscreen Media", Type: "template", Description: "Single media region, edge to edge"},
	{ID: "split-horizontal", Name: "Horizontal Split", Type: "template", Description: "Media on top, widget strip below"},
	{ID: "sidebar", Name: "Sidebar", Type: "template", Description: "Main media region with a narrow widget column"},
	{ID: "menu-board", Name: "Menu Board", Type: "template", Description: "Three-column list layout for price or availability boards"},
	{ID: "welcome", Name: "Welcome Screen", Type: "template", Description: "Large greeting headline with clock and weather inset"},
	{ID: "emergency", Name: "Emergency Notice", Type: "template", Description: "High-contrast full-screen notice used by alert pushes"},
}

// videoExtensions is the allowlist for both the catalogue listing and the
// static file handler.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
}

// ListWidgets handles GET /api/content/widgets.
func (h *Handler) ListWidgets(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, builtinWidgets)
}

// ListTemplates handles GET /api/content/templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, builtinTemplates)
}

// ListVideos handles GET /api/content/videos. It enumerates the configured
// video directory on every call; signage libraries are small enough that
// caching the listing is not worth the staleness.
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	dir := h.cfg.Content.VideoDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			respondSuccess(w, []models.ContentItem{})
			return
		}
		logging.Error().Err(err).Str("dir", dir).Msg("Failed to read video directory")
		respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to list videos", nil)
		return
	}

	videos := make([]models.ContentItem, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !videoExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		item := models.ContentItem{
			ID:   name,
			Name: strings.TrimSuffix(name, filepath.Ext(name)),
			Type: "video",
			URL:  "/video/" + name,
		}
		if info, err := entry.Info(); err == nil {
			item.SizeBytes = info.Size()
		}
		videos = append(videos, item)
	}
	respondSuccess(w, videos)
}

// VideoFile handles GET /video/{filename}. http.ServeFile gives us Range
// support, which players rely on for seeking inside long loops.
func (h *Handler) VideoFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	// The filename must be a bare name inside the video dir. Anything that
	// survives filepath.Base differently than it arrived is a traversal
	// attempt.
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid video filename", nil)
		return
	}
	if !videoExtensions[strings.ToLower(filepath.Ext(name))] {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "video not found", nil)
		return
	}

	path := filepath.Join(h.cfg.Content.VideoDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "video not found", nil)
		return
	}

	http.ServeFile(w, r, path)
}
