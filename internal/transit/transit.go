// Package transit provides typed arrival records and the feed fetch port.
// The real implementation decodes MTA GTFS-Realtime protobuf feeds.
// The fake implementation allows testing without network access.
package transit

import (
	"context"
	"sort"
	"time"
)

// Arrival is one predicted stop arrival, normalized at the fetch boundary.
type Arrival struct {
	// StopID is the GTFS-Realtime stop_id, e.g. "N03N".
	StopID string
	TripID string
	// Route is the route label shown to the rider, e.g. "N" or "Q".
	Route string
	ETA   time.Time
}

// Fetcher fetches one feed and yields every arrival record in it.
type Fetcher interface {
	// FetchFeed returns the arrivals currently predicted for all stops
	// covered by the named feed, in no particular order.
	FetchFeed(ctx context.Context, feed string) ([]Arrival, error)
}

// Feed URLs for the MTA GTFS-Realtime endpoints, keyed by the route-group
// names used in settings. No API key required.
var feedURLs = map[string]string{
	"1234567S": "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs",
	"ACE":      "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-ace",
	"BDFM":     "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-bdfm",
	"G":        "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-g",
	"JZ":       "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-jz",
	"L":        "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-l",
	"NQRW":     "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-nqrw",
	"SIR":      "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-si",
}

// FeedURL returns the endpoint for a feed name.
func FeedURL(name string) (string, bool) {
	url, ok := feedURLs[name]
	return url, ok
}

// FeedNames returns the supported feed names, sorted.
func FeedNames() []string {
	names := make([]string, 0, len(feedURLs))
	for name := range feedURLs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForStop filters arrivals to one stop and returns them sorted ascending by
// ETA. Arrivals already in the past at fetch time are dropped, with a short
// grace window so a train at the platform doesn't vanish mid-countdown.
func ForStop(records []Arrival, stopID string, now time.Time) []Arrival {
	const grace = 30 * time.Second

	var out []Arrival
	for _, r := range records {
		if r.StopID != stopID {
			continue
		}
		if r.ETA.Before(now.Add(-grace)) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ETA.Before(out[j].ETA) })
	return out
}
