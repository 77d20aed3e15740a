// Package state is the thread-safe publication point for the latest fetched
// data. Monitors publish immutable snapshots into it; the UI reads a
// consistent copy on every wake. It is designed so that readers never wait on
// network I/O: writers fetch first and publish under a short lock.
package state

import (
	"sync"
	"time"

	"github.com/RonishNadar/mta-train-updates/internal/transit"
	"github.com/RonishNadar/mta-train-updates/internal/weather"
)

// ArrivalSnapshot is the latest known arrivals for one station.
// It is a value type, safe to use after the lock is released. The Arrivals
// slice is never mutated after publication.
type ArrivalSnapshot struct {
	// Arrivals is sorted ascending by ETA.
	Arrivals []transit.Arrival
	// FetchedAt is the time of the last successful fetch; zero if none yet.
	FetchedAt time.Time
	// LastError is the most recent fetch error, or "" after a success.
	LastError string
}

// NeverFetched reports whether no fetch has ever succeeded for this station.
func (s ArrivalSnapshot) NeverFetched() bool {
	return s.FetchedAt.IsZero()
}

// Stale reports whether the snapshot has aged past maxAge and must not be
// presented as live data.
func (s ArrivalSnapshot) Stale(now time.Time, maxAge time.Duration) bool {
	if s.FetchedAt.IsZero() {
		return true
	}
	return now.Sub(s.FetchedAt) >= maxAge
}

// Store holds the latest snapshots behind an RWMutex. Each station holds
// exactly one snapshot, replaced on publish, never appended.
type Store struct {
	mu       sync.RWMutex
	arrivals map[string]ArrivalSnapshot
	weather  weather.Snapshot
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{arrivals: make(map[string]ArrivalSnapshot)}
}

// PublishArrivals atomically replaces a station's snapshot after a successful
// fetch. The caller hands over ownership of the slice.
func (s *Store) PublishArrivals(key string, arrivals []transit.Arrival, fetchedAt time.Time) {
	s.mu.Lock()
	s.arrivals[key] = ArrivalSnapshot{Arrivals: arrivals, FetchedAt: fetchedAt}
	s.mu.Unlock()
}

// RecordError marks a failed fetch for a station. The previous arrivals and
// FetchedAt are retained so staleness can still be judged against the last
// good data; an error never erases another snapshot's contents.
func (s *Store) RecordError(key, msg string) {
	s.mu.Lock()
	snap := s.arrivals[key]
	snap.LastError = msg
	s.arrivals[key] = snap
	s.mu.Unlock()
}

// PublishWeather atomically replaces the global weather snapshot.
func (s *Store) PublishWeather(snap weather.Snapshot) {
	s.mu.Lock()
	s.weather = snap
	s.mu.Unlock()
}

// Read returns a point-in-time copy of all snapshots. The map is copied; the
// snapshot values share their immutable arrival slices, so the copy is cheap
// and bounded regardless of station count.
func (s *Store) Read() (map[string]ArrivalSnapshot, weather.Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]ArrivalSnapshot, len(s.arrivals))
	for k, v := range s.arrivals {
		out[k] = v
	}
	return out, s.weather
}

// Arrivals returns the snapshot for one station.
func (s *Store) Arrivals(key string) (ArrivalSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.arrivals[key]
	return snap, ok
}

// Weather returns the current weather snapshot.
func (s *Store) Weather() weather.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weather
}

// Retain drops snapshots for stations no longer in the configured set.
// Called after a config reload.
func (s *Store) Retain(keys []string) {
	keep := make(map[string]bool, len(keys))
	for _, k := range keys {
		keep[k] = true
	}

	s.mu.Lock()
	for k := range s.arrivals {
		if !keep[k] {
			delete(s.arrivals, k)
		}
	}
	s.mu.Unlock()
}
