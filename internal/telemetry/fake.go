package telemetry

import "sync"

// FakePublisher is a test double that records published events.
type FakePublisher struct {
	mu sync.Mutex

	// Advisories holds events passed to PublishAdvisory, in order.
	Advisories []AdvisoryEvent

	// Systems holds events passed to PublishSystem, in order.
	Systems []SystemEvent

	// PublishError, if set, is returned by both publish methods.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePublisher creates an empty FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishAdvisory records the event.
func (f *FakePublisher) PublishAdvisory(event AdvisoryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Advisories = append(f.Advisories, event)
	return nil
}

// PublishSystem records the event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Systems = append(f.Systems, event)
	return nil
}

// AdvisoryCount returns how many advisory events were published.
func (f *FakePublisher) AdvisoryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Advisories)
}

// Close marks the publisher closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
