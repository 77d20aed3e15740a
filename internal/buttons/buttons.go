// Package buttons turns raw GPIO edge transitions from the 5-button panel
// into discrete debounced press/hold/release events.
// This file contains pure logic only (no GPIO, no time.Sleep); time is always
// injectable via time.Time parameters.
package buttons

import "time"

// Button identifies one of the five physical buttons.
type Button string

const (
	Left   Button = "LEFT"
	Right  Button = "RIGHT"
	Select Button = "SELECT"
	Up     Button = "UP"
	Down   Button = "DOWN"
)

// All lists every button.
var All = []Button{Left, Right, Select, Up, Down}

// Kind classifies a button event.
type Kind string

const (
	// Press is a completed short press (stable press then release before the
	// hold threshold). A press cycle yields either Press or HoldReached,
	// never both.
	Press Kind = "PRESS"
	// HoldReached fires once when a stable press has lasted the hold
	// threshold; the button may still be held.
	HoldReached Kind = "HOLD_REACHED"
	// Release follows a HoldReached when the button is finally let go.
	Release Kind = "RELEASE"
)

// Event is one discrete input event.
type Event struct {
	Button Button
	Kind   Kind
	At     time.Time
}

// Edge is a raw electrical transition as seen at the GPIO line.
type Edge struct {
	Button  Button
	Pressed bool
	At      time.Time
}

// Default timing. The settle window rejects contact bounce; the hold
// threshold distinguishes a short press from a deliberate hold.
const (
	DefaultSettle = 30 * time.Millisecond
	DefaultHold   = 3 * time.Second
)

// buttonFSM tracks debounce state for a single button.
type buttonFSM struct {
	// stable is the debounced level (true = pressed).
	stable bool
	// pending is set while an observed level change waits out the settle
	// window.
	pending      bool
	pendingLevel bool
	pendingSince time.Time
	// pressedAt is when the current stable press began.
	pressedAt time.Time
	// holdFired is true once HoldReached was emitted for this press cycle.
	holdFired bool
}

// Debouncer drives the per-button finite-state machines. It is independent
// of any I/O mechanism: feed it timestamped edges and periodic ticks.
// Not safe for concurrent use; a single Source goroutine owns it.
type Debouncer struct {
	settle time.Duration
	hold   time.Duration
	fsms   map[Button]*buttonFSM
}

// NewDebouncer creates a Debouncer with the given settle window and hold
// threshold.
func NewDebouncer(settle, hold time.Duration) *Debouncer {
	d := &Debouncer{
		settle: settle,
		hold:   hold,
		fsms:   make(map[Button]*buttonFSM, len(All)),
	}
	for _, b := range All {
		d.fsms[b] = &buttonFSM{}
	}
	return d
}

// Edge feeds one raw transition and returns any events that became final.
func (d *Debouncer) Edge(e Edge) []Event {
	f, ok := d.fsms[e.Button]
	if !ok {
		return nil
	}

	// Let any pending change that has already settled commit first, so an
	// edge arriving long after the previous one observes the right state.
	events := d.advance(e.Button, f, e.At)

	if e.Pressed == f.stable {
		// Noise returning to the stable level; abandon any pending change.
		f.pending = false
		return events
	}

	if f.pending && f.pendingLevel == e.Pressed {
		// Same pending level again, keep the original observation time.
		return events
	}

	f.pending = true
	f.pendingLevel = e.Pressed
	f.pendingSince = e.At
	return events
}

// Tick advances time and returns any events that became final: settled level
// changes and hold thresholds crossed.
func (d *Debouncer) Tick(now time.Time) []Event {
	var events []Event
	for _, b := range All {
		events = append(events, d.advance(b, d.fsms[b], now)...)
	}
	return events
}

// advance commits a settled pending level and checks the hold threshold.
func (d *Debouncer) advance(b Button, f *buttonFSM, now time.Time) []Event {
	var events []Event

	if f.pending && now.Sub(f.pendingSince) >= d.settle {
		f.pending = false
		f.stable = f.pendingLevel
		if f.stable {
			// Press cycle starts at the moment the edge was first seen.
			f.pressedAt = f.pendingSince
			f.holdFired = false
		} else {
			// A press cycle resolves to exactly one semantic outcome:
			// a short press, or a hold followed by its release.
			if f.holdFired {
				events = append(events, Event{Button: b, Kind: Release, At: now})
			} else {
				events = append(events, Event{Button: b, Kind: Press, At: now})
			}
		}
	}

	// A pending release suspends the hold timer: if the rider let go before
	// the threshold, the cycle must resolve as a short press even though the
	// release has not settled yet.
	if f.stable && !f.pending && !f.holdFired && now.Sub(f.pressedAt) >= d.hold {
		f.holdFired = true
		events = append(events, Event{Button: b, Kind: HoldReached, At: now})
	}

	return events
}
