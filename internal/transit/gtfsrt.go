package transit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// GTFSRTFetcher fetches and decodes MTA GTFS-Realtime protobuf feeds.
type GTFSRTFetcher struct {
	client *http.Client
}

// NewGTFSRTFetcher creates a fetcher with the given per-request timeout.
// The timeout also bounds reading the response body.
func NewGTFSRTFetcher(timeout time.Duration) *GTFSRTFetcher {
	return &GTFSRTFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// FetchFeed downloads the named feed and returns every trip-update arrival in it.
func (f *GTFSRTFetcher) FetchFeed(ctx context.Context, feed string) ([]Arrival, error) {
	url, ok := FeedURL(feed)
	if !ok {
		return nil, fmt.Errorf("unknown feed %q", feed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned HTTP %d", feed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", feed, err)
	}

	msg := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("decode feed %s: %w", feed, err)
	}

	return extractArrivals(msg), nil
}

// extractArrivals flattens a feed message into typed arrival records.
// Records with no usable prediction time are skipped; past-ETA filtering is
// the caller's concern (ForStop).
func extractArrivals(msg *gtfs.FeedMessage) []Arrival {
	var out []Arrival
	for _, ent := range msg.Entity {
		tu := ent.TripUpdate
		if tu == nil {
			continue
		}

		var route, tripID string
		if tu.Trip != nil {
			if tu.Trip.RouteId != nil {
				route = *tu.Trip.RouteId
			}
			if tu.Trip.TripId != nil {
				tripID = *tu.Trip.TripId
			}
		}
		if route == "" {
			route = "?"
		}

		for _, stu := range tu.StopTimeUpdate {
			if stu.StopId == nil {
				continue
			}

			var eta int64
			if stu.Arrival != nil && stu.Arrival.Time != nil && *stu.Arrival.Time != 0 {
				eta = *stu.Arrival.Time
			} else if stu.Departure != nil && stu.Departure.Time != nil && *stu.Departure.Time != 0 {
				eta = *stu.Departure.Time
			} else {
				continue
			}

			out = append(out, Arrival{
				StopID: *stu.StopId,
				TripID: tripID,
				Route:  route,
				ETA:    time.Unix(eta, 0),
			})
		}
	}
	return out
}
