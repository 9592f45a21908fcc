// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

package mood

import (
	"sync"
	"time"

	"github.com/parkwise/signage/internal/models"
)

// signalStore is the shared signal cache, one bag per location. Writers
// replace pointer fields wholesale, never mutate through them, so
// snapshots stay safe to hand out.
type signalStore struct {
	mu   sync.RWMutex
	bags map[string]*models.Signals
}

func newSignalStore() *signalStore {
	return &signalStore{bags: make(map[string]*models.Signals)}
}

// update applies a mutation to one location's bag and stamps it.
func (s *signalStore) update(locationID string, apply func(*models.Signals)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bag, ok := s.bags[locationID]
	if !ok {
		bag = &models.Signals{}
		s.bags[locationID] = bag
	}
	apply(bag)
	bag.UpdatedAt = time.Now().UnixMilli()
}

// snapshot returns a copy of one location's bag, zero when unseen.
func (s *signalStore) snapshot(locationID string) models.Signals {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if bag, ok := s.bags[locationID]; ok {
		return *bag
	}
	return models.Signals{}
}

// fallbackOccupancy fills a location that has never had an occupancy
// reading with the mean across locations that have one. Called when a
// poll fails; an existing stale reading is always kept instead.
func (s *signalStore) fallbackOccupancy(locationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bag, ok := s.bags[locationID]
	if ok && bag.OccupancyRatio != nil {
		return
	}

	var sum float64
	var n int
	for id, other := range s.bags {
		if id == locationID || other.OccupancyRatio == nil {
			continue
		}
		sum += *other.OccupancyRatio
		n++
	}
	if n == 0 {
		return
	}

	if !ok {
		bag = &models.Signals{}
		s.bags[locationID] = bag
	}
	avg := sum / float64(n)
	bag.OccupancyRatio = &avg
	bag.UpdatedAt = time.Now().UnixMilli()
}

// forget drops a location's bag when the location disappears.
func (s *signalStore) forget(locationID string) {
	s.mu.Lock()
	delete(s.bags, locationID)
	s.mu.Unlock()
}
