package weather

import (
	"context"
	"log"
	"time"
)

// Worker refreshes the weather snapshot in the background so the UI never
// blocks on the weather API. Failures keep the previous snapshot.
type Worker struct {
	fetcher  Fetcher
	lat, lon float64
	interval time.Duration
	publish  func(Snapshot)
}

// NewWorker creates a Worker. publish is called with each fresh snapshot
// (typically state.Store.PublishWeather).
func NewWorker(fetcher Fetcher, lat, lon float64, interval time.Duration, publish func(Snapshot)) *Worker {
	return &Worker{
		fetcher:  fetcher,
		lat:      lat,
		lon:      lon,
		interval: interval,
		publish:  publish,
	}
}

// Run fetches once immediately, then on every interval tick until the
// context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.refreshOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refreshOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) refreshOnce(ctx context.Context) {
	snap, err := w.fetcher.Fetch(ctx, w.lat, w.lon)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("weather: fetch failed: %v", err)
		}
		return
	}
	w.publish(snap)
}
