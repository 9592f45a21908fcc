// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata" // zone lookups must work in minimal test environments

	"github.com/goccy/go-json"

	"github.com/parkwise/signage/internal/config"
	"github.com/parkwise/signage/internal/database"
	"github.com/parkwise/signage/internal/logging"
	"github.com/parkwise/signage/internal/models"
	"github.com/parkwise/signage/internal/playout"
	"github.com/parkwise/signage/internal/registry"
	"github.com/parkwise/signage/internal/websocket"
)

//nolint:gochecknoinits // test logging setup
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// testDBSemaphore serializes database creation, matching the database
// package's guard against concurrent DuckDB CGO initialization.
var testDBSemaphore = make(chan struct{}, 1)

var testDBMutex sync.Mutex

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	}

	type result struct {
		db  *database.DB
		err error
	}

	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := database.New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Errorf("db.Close() error = %v", err)
			}
		})
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s")
		return nil
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:       "127.0.0.1",
			Port:       3400,
			Timeout:    30 * time.Second,
			MaxScreens: 100,
		},
		API: config.APIConfig{
			CORSOrigins:       []string{"*"},
			RateLimitDisabled: true,
		},
		Content: config.ContentConfig{
			VideoDir: t.TempDir(),
		},
	}
}

// testEnv is a fully wired control plane minus the schedule evaluator and
// mood engine, which the handlers treat as optional.
type testEnv struct {
	db       *database.DB
	hub      *websocket.Hub
	registry *registry.Registry
	engine   *playout.Engine
	cfg      *config.Config
	handler  *Handler
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	cfg := testConfig(t)
	hub := websocket.NewHub(8)
	reg := registry.New(db, hub, nil, nil)
	engine := playout.New(db, hub, nil)
	t.Cleanup(engine.Shutdown)

	handler := NewHandler(db, cfg, reg, engine, nil, nil, hub, nil)
	router := NewRouter(handler, &cfg.API).Setup()

	return &testEnv{
		db:       db,
		hub:      hub,
		registry: reg,
		engine:   engine,
		cfg:      cfg,
		handler:  handler,
		router:   router,
	}
}

// doJSON sends a request through the full router. Body may be empty.
func (env *testEnv) doJSON(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors the wire shape with Data left raw for typed decoding.
type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *models.APIError `json:"error"`
}

func parseEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Response is not a valid envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

// requireSuccess asserts status and success=true, then unmarshals data
// into out when non-nil.
func requireSuccess(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, out interface{}) {
	t.Helper()

	if rec.Code != wantStatus {
		t.Fatalf("Expected status %d, got %d\nbody: %s", wantStatus, rec.Code, rec.Body.String())
	}
	env := parseEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("Expected success envelope, got error: %+v", env.Error)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("Failed to decode data: %v\ndata: %s", err, string(env.Data))
		}
	}
}

// requireError asserts status, success=false and the error code.
func requireError(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()

	if rec.Code != wantStatus {
		t.Fatalf("Expected status %d, got %d\nbody: %s", wantStatus, rec.Code, rec.Body.String())
	}
	env := parseEnvelope(t, rec)
	if env.Success {
		t.Fatalf("Expected error envelope, got success\nbody: %s", rec.Body.String())
	}
	if env.Error == nil {
		t.Fatal("Error envelope has no error object")
	}
	if env.Error.Code != wantCode {
		t.Fatalf("Expected error code %s, got %s (%s)", wantCode, env.Error.Code, env.Error.Message)
	}
}

// Seed helpers go through the store directly so route tests start from a
// known catalogue without depending on other endpoints.

func seedClient(t *testing.T, db *database.DB, name, slug string) *models.Client {
	t.Helper()

	c := &models.Client{Name: name, Slug: slug, Active: true}
	if err := db.CreateClient(context.Background(), c); err != nil {
		t.Fatalf("Failed to seed client %s: %v", slug, err)
	}
	return c
}

func seedLocation(t *testing.T, db *database.DB, clientID, name string) *models.Location {
	t.Helper()

	l := &models.Location{ClientID: clientID, Name: name, Timezone: "UTC"}
	if err := db.CreateLocation(context.Background(), l); err != nil {
		t.Fatalf("Failed to seed location %s: %v", name, err)
	}
	return l
}

func seedScreen(t *testing.T, db *database.DB, clientID, id string) *models.Screen {
	t.Helper()

	s, err := db.UpsertScreen(context.Background(), &models.ScreenRegistration{
		ID:       id,
		Name:     id,
		ClientID: clientID,
	})
	if err != nil {
		t.Fatalf("Failed to seed screen %s: %v", id, err)
	}
	return s
}

func seedPlaylist(t *testing.T, db *database.DB, clientID, name string, items []models.PlaylistItem) *models.Playlist {
	t.Helper()

	p := &models.Playlist{ClientID: clientID, Name: name, Items: items, Loop: true}
	if err := db.CreatePlaylist(context.Background(), p); err != nil {
		t.Fatalf("Failed to seed playlist %s: %v", name, err)
	}
	return p
}

func seedSyncGroup(t *testing.T, db *database.DB, clientID, name, mode string) *models.SyncGroup {
	t.Helper()

	g := &models.SyncGroup{ClientID: clientID, Name: name, Mode: mode}
	if err := db.CreateSyncGroup(context.Background(), g); err != nil {
		t.Fatalf("Failed to seed sync group %s: %v", name, err)
	}
	return g
}

func widgetItems(n int) []models.PlaylistItem {
	items := make([]models.PlaylistItem, n)
	for i := range items {
		items[i] = models.PlaylistItem{
			ContentType: models.ContentTypeWidget,
			Widget:      "clock",
			Duration:    5,
		}
	}
	return items
}
