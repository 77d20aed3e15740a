package buttons

import (
	"context"
	"log"
	"time"
)

// queueCap bounds the event queue. Human input rate is low; beyond this the
// oldest event is dropped rather than blocking the producer.
const queueCap = 64

// pumpInterval drives the debouncer clock between edges. It must be well
// under the settle window so settled changes commit promptly.
const pumpInterval = 10 * time.Millisecond

// Source consumes raw edges, debounces them, and delivers discrete events on
// a bounded FIFO queue. Construct with NewSource, then run Run in its own
// goroutine and receive from Events.
type Source struct {
	deb    *Debouncer
	edges  <-chan Edge
	events chan Event
}

// NewSource creates a Source reading raw transitions from edges.
func NewSource(edges <-chan Edge, settle, hold time.Duration) *Source {
	return &Source{
		deb:    NewDebouncer(settle, hold),
		edges:  edges,
		events: make(chan Event, queueCap),
	}
}

// Events is the queue consumed by the UI loop.
func (s *Source) Events() <-chan Event {
	return s.events
}

// Run pumps edges and clock ticks through the debouncer until the context is
// cancelled. The producer never blocks on a slow consumer.
func (s *Source) Run(ctx context.Context) {
	ticker := time.NewTicker(pumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-s.edges:
			if !ok {
				return
			}
			s.deliver(s.deb.Edge(e))
		case t := <-ticker.C:
			s.deliver(s.deb.Tick(t))
		}
	}
}

func (s *Source) deliver(events []Event) {
	for _, ev := range events {
		select {
		case s.events <- ev:
			continue
		default:
		}
		// Queue full: drop the oldest event to make room.
		select {
		case old := <-s.events:
			log.Printf("buttons: queue full, dropping %s %s", old.Button, old.Kind)
		default:
		}
		select {
		case s.events <- ev:
		default:
		}
	}
}
