// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/parkwise/signage/internal/logging"
)

// Screenshot storage key prefix.
const screenshotKeyPrefix = "screenshot:"

// DefaultScreenshotTTL bounds how long a captured frame stays retrievable.
// Screenshots are diagnostics, not content; stale ones are worse than none.
const DefaultScreenshotTTL = 30 * time.Minute

// badgerGCInterval paces value log garbage collection. Captures are large
// and churn constantly, so expired frames reclaim real disk.
const badgerGCInterval = 10 * time.Minute

// badgerGCDiscardRatio rewrites a value log file when at least this share
// of it is stale.
const badgerGCDiscardRatio = 0.5

// ErrScreenshotNotFound is returned when no capture exists for a screen.
var ErrScreenshotNotFound = errors.New("screenshot not found")

// Screenshot is one captured frame, stored per screen (latest replaces).
type Screenshot struct {
	ScreenID   string    `json:"screen_id"`
	Image      string    `json:"image"` // base64 data URI as reported by the player
	CapturedAt time.Time `json:"captured_at"`
}

// ScreenshotStore keeps the latest capture per screen in BadgerDB with a
// TTL, so the store self-prunes screens that stop reporting.
type ScreenshotStore struct {
	db       *badger.DB
	ttl      time.Duration
	inMemory bool
}

// NewScreenshotStore opens a BadgerDB-backed store at path. An empty path
// selects an in-memory store, which is what tests use.
func NewScreenshotStore(path string, ttl time.Duration) (*ScreenshotStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for screenshots: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultScreenshotTTL
	}
	return &ScreenshotStore{db: db, ttl: ttl, inMemory: path == ""}, nil
}

// Put stores a capture, replacing any previous one for the screen.
func (s *ScreenshotStore) Put(screenID, image string) error {
	shot := Screenshot{
		ScreenID:   screenID,
		Image:      image,
		CapturedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(&shot)
	if err != nil {
		return fmt.Errorf("marshal screenshot: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(screenshotKeyPrefix + screenID)
		entry := badger.NewEntry(key, data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
}

// Get retrieves the latest capture for a screen.
func (s *ScreenshotStore) Get(screenID string) (*Screenshot, error) {
	var shot Screenshot

	err := s.db.View(func(txn *badger.Txn) error {
		key := []byte(screenshotKeyPrefix + screenID)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrScreenshotNotFound
		}
		if err != nil {
			return fmt.Errorf("get screenshot: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &shot)
		})
	})
	if err != nil {
		return nil, err
	}

	return &shot, nil
}

// Delete removes a screen's capture, used when the screen row is deleted.
func (s *ScreenshotStore) Delete(screenID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(screenshotKeyPrefix + screenID)
		if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete screenshot: %w", err)
		}
		return nil
	})
}

// Count returns how many captures are currently stored.
func (s *ScreenshotStore) Count() (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(screenshotKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// RunGC drives BadgerDB value log garbage collection until the context is
// canceled. Expired captures free index space immediately but their value
// log entries need rewriting to reclaim disk. In-memory stores have no
// value log; RunGC just blocks until shutdown.
func (s *ScreenshotStore) RunGC(ctx context.Context) error {
	if s.inMemory {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(badgerGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Each call rewrites at most one file; loop until nothing
			// qualifies so bursts of expired captures drain fully.
			for {
				err := s.db.RunValueLogGC(badgerGCDiscardRatio)
				if errors.Is(err, badger.ErrNoRewrite) {
					break
				}
				if err != nil {
					logging.Warn().Err(err).Msg("Screenshot store GC pass failed")
					break
				}
			}
		}
	}
}

// Close closes the underlying BadgerDB.
func (s *ScreenshotStore) Close() error {
	if err := s.db.Close(); err != nil {
		logging.Error().Err(err).Msg("failed to close screenshot store")
		return err
	}
	return nil
}
