// Package monitor polls the transit feeds and publishes per-station arrival
// snapshots into shared state.
package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/RonishNadar/mta-train-updates/internal/config"
	"github.com/RonishNadar/mta-train-updates/internal/state"
	"github.com/RonishNadar/mta-train-updates/internal/transit"
)

// backoffCap caps the exponential retry backoff as a multiple of the poll
// interval. One misbehaving feed slows itself down, never the others.
const backoffCap = 8

// Monitor runs one polling goroutine per feed. Stations sharing a feed are
// served by a single network call; failures are still attributed per station
// so staleness is judged independently.
type Monitor struct {
	fetcher transit.Fetcher
	store   *state.Store
	poll    time.Duration
	timeout time.Duration
	byFeed  map[string][]config.Station
	now     func() time.Time
	wg      sync.WaitGroup
}

// New creates a Monitor for the given stations.
func New(fetcher transit.Fetcher, store *state.Store, stations []config.Station, poll, timeout time.Duration, now func() time.Time) *Monitor {
	byFeed := make(map[string][]config.Station)
	for _, st := range stations {
		byFeed[st.Feed] = append(byFeed[st.Feed], st)
	}
	return &Monitor{
		fetcher: fetcher,
		store:   store,
		poll:    poll,
		timeout: timeout,
		byFeed:  byFeed,
		now:     now,
	}
}

// Start launches the per-feed polling loops. Each loop polls immediately,
// then on the poll interval, backing off on consecutive failures.
func (m *Monitor) Start(ctx context.Context) {
	for feed, stations := range m.byFeed {
		m.wg.Add(1)
		go func(feed string, stations []config.Station) {
			defer m.wg.Done()
			m.feedLoop(ctx, feed, stations)
		}(feed, stations)
	}
}

// Wait blocks until every polling loop has exited.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

func (m *Monitor) feedLoop(ctx context.Context, feed string, stations []config.Station) {
	// Per-station end times; zero means run indefinitely.
	endTimes := make(map[string]time.Time, len(stations))
	start := m.now()
	for _, st := range stations {
		if st.RunForSec > 0 {
			endTimes[st.Key()] = start.Add(time.Duration(st.RunForSec) * time.Second)
		}
	}

	failures := 0
	timer := time.NewTimer(0) // fire immediately for the initial poll
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		active := stations[:0:0]
		now := m.now()
		for _, st := range stations {
			if end, ok := endTimes[st.Key()]; ok && !now.Before(end) {
				continue
			}
			active = append(active, st)
		}
		if len(active) == 0 {
			log.Printf("monitor: all stations on feed %s finished, stopping loop", feed)
			return
		}

		if err := m.pollOnce(ctx, feed, active); err != nil {
			if ctx.Err() != nil {
				// Abandoned in-flight fetch; publish nothing.
				return
			}
			failures++
			log.Printf("monitor: feed %s fetch failed (attempt %d): %v", feed, failures, err)
			for _, st := range active {
				m.store.RecordError(st.Key(), err.Error())
			}
		} else {
			failures = 0
		}

		timer.Reset(m.nextWait(failures))
	}
}

// nextWait returns the delay before the next poll: the poll interval after a
// success, doubling per consecutive failure up to the cap.
func (m *Monitor) nextWait(failures int) time.Duration {
	if failures == 0 {
		return m.poll
	}
	mult := 1 << failures
	if mult > backoffCap {
		mult = backoffCap
	}
	return m.poll * time.Duration(mult)
}

// pollOnce fetches the feed once and publishes a fresh snapshot for every
// active station on it. The fetch happens before any lock is taken.
func (m *Monitor) pollOnce(ctx context.Context, feed string, stations []config.Station) error {
	fctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	records, err := m.fetcher.FetchFeed(fctx, feed)
	if err != nil {
		return err
	}

	now := m.now()
	for _, st := range stations {
		key := st.Key()
		m.store.PublishArrivals(key, transit.ForStop(records, key, now), now)
	}
	return nil
}
