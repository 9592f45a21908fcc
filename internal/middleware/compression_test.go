// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompression_WithGzipAccept(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat(`{"id":"lobby-4","status":"online"},`, 100)
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/screens", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Expected Content-Encoding gzip, got %q", got)
	}

	gz, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("Response body is not valid gzip: %v", err)
	}
	defer gz.Close()

	decompressed, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("Failed to decompress body: %v", err)
	}
	if string(decompressed) != payload {
		t.Error("Decompressed body does not match original payload")
	}
}

func TestCompression_WithoutGzipAccept(t *testing.T) {
	t.Parallel()

	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Expected no Content-Encoding, got %q", got)
	}
	if rec.Body.String() != `{"success":true}` {
		t.Errorf("Body altered without gzip negotiation: %s", rec.Body.String())
	}
}

func TestCompression_SkipsWebSocketUpgrade(t *testing.T) {
	t.Parallel()

	var sawWrappedWriter bool
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		_, sawWrappedWriter = w.(*gzipResponseWriter)
		w.WriteHeader(http.StatusSwitchingProtocols)
	})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if sawWrappedWriter {
		t.Error("WebSocket upgrade request must not receive a gzip writer")
	}
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Expected no Content-Encoding on upgrade, got %q", got)
	}
}

func TestCompression_StatusCodePreserved(t *testing.T) {
	t.Parallel()

	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/playlists/missing", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 through gzip writer, got %d", rec.Code)
	}
}

func TestGzipResponseWriter_ImplicitHeader(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	gz := gzip.NewWriter(rec.Body)
	w := &gzipResponseWriter{Writer: gz, ResponseWriter: rec}

	if _, err := w.Write([]byte("data")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	_ = gz.Close()

	if !w.wroteHeader {
		t.Error("Write should trigger an implicit WriteHeader")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected implicit status 200, got %d", rec.Code)
	}
}
