package transit

import (
	"context"
	"sync"
)

// FakeFetcher is a test double that returns scripted results per feed.
type FakeFetcher struct {
	mu sync.Mutex

	// Records holds the arrivals to return, keyed by feed name.
	Records map[string][]Arrival

	// Errors holds errors to return instead, keyed by feed name.
	Errors map[string]error

	// Calls counts FetchFeed invocations per feed.
	Calls map[string]int
}

// NewFakeFetcher creates a FakeFetcher with no scripted data.
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		Records: make(map[string][]Arrival),
		Errors:  make(map[string]error),
		Calls:   make(map[string]int),
	}
}

// SetFeed scripts a successful result for a feed.
func (f *FakeFetcher) SetFeed(feed string, records []Arrival) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Records[feed] = records
	delete(f.Errors, feed)
}

// SetError scripts a failure for a feed.
func (f *FakeFetcher) SetError(feed string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[feed] = err
}

// FetchFeed returns the scripted result for the feed.
func (f *FakeFetcher) FetchFeed(ctx context.Context, feed string) ([]Arrival, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls[feed]++
	if err := f.Errors[feed]; err != nil {
		return nil, err
	}
	return f.Records[feed], nil
}

// CallCount returns how many times a feed was fetched.
func (f *FakeFetcher) CallCount(feed string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[feed]
}
