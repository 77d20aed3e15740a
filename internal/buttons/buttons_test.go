package buttons

import (
	"testing"
	"time"
)

func newTestDebouncer() *Debouncer {
	return NewDebouncer(DefaultSettle, DefaultHold)
}

func collect(events ...[]Event) []Event {
	var out []Event
	for _, evs := range events {
		out = append(out, evs...)
	}
	return out
}

func TestShortPressEmitsSinglePress(t *testing.T) {
	d := newTestDebouncer()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	evs := collect(
		d.Edge(Edge{Button: Select, Pressed: true, At: now}),
		d.Tick(now.Add(40*time.Millisecond)),
		d.Edge(Edge{Button: Select, Pressed: false, At: now.Add(200 * time.Millisecond)}),
		d.Tick(now.Add(240*time.Millisecond)),
	)

	if len(evs) != 1 {
		t.Fatalf("expected exactly 1 event, got %d: %v", len(evs), evs)
	}
	if evs[0].Button != Select || evs[0].Kind != Press {
		t.Errorf("expected SELECT PRESS, got %s %s", evs[0].Button, evs[0].Kind)
	}
}

func TestContactBounceCollapsesToOnePress(t *testing.T) {
	d := newTestDebouncer()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Bouncy press: level flaps for 20ms then settles pressed.
	var evs []Event
	evs = append(evs, d.Edge(Edge{Button: Up, Pressed: true, At: now})...)
	evs = append(evs, d.Edge(Edge{Button: Up, Pressed: false, At: now.Add(5 * time.Millisecond)})...)
	evs = append(evs, d.Edge(Edge{Button: Up, Pressed: true, At: now.Add(12 * time.Millisecond)})...)
	evs = append(evs, d.Edge(Edge{Button: Up, Pressed: false, At: now.Add(18 * time.Millisecond)})...)
	evs = append(evs, d.Edge(Edge{Button: Up, Pressed: true, At: now.Add(20 * time.Millisecond)})...)
	evs = append(evs, d.Tick(now.Add(60*time.Millisecond))...)

	if len(evs) != 0 {
		t.Fatalf("expected no events until release, got %v", evs)
	}

	// Bouncy release.
	evs = append(evs, d.Edge(Edge{Button: Up, Pressed: false, At: now.Add(200 * time.Millisecond)})...)
	evs = append(evs, d.Edge(Edge{Button: Up, Pressed: true, At: now.Add(208 * time.Millisecond)})...)
	evs = append(evs, d.Edge(Edge{Button: Up, Pressed: false, At: now.Add(215 * time.Millisecond)})...)
	evs = append(evs, d.Tick(now.Add(260*time.Millisecond))...)

	if len(evs) != 1 {
		t.Fatalf("expected exactly 1 event for a bouncy press cycle, got %d: %v", len(evs), evs)
	}
	if evs[0].Kind != Press {
		t.Errorf("expected PRESS, got %s", evs[0].Kind)
	}
}

func TestHoldJustUnderThresholdIsShortPress(t *testing.T) {
	d := newTestDebouncer()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Held 2.9s, released just before the 3s threshold. The release edge
	// arrives before any tick crosses the threshold, so the cycle must
	// resolve as a short press and never report a hold.
	evs := collect(
		d.Edge(Edge{Button: Select, Pressed: true, At: now}),
		d.Tick(now.Add(50*time.Millisecond)),
		d.Edge(Edge{Button: Select, Pressed: false, At: now.Add(2900 * time.Millisecond)}),
		d.Tick(now.Add(2950*time.Millisecond)),
		d.Tick(now.Add(3100*time.Millisecond)),
	)

	if len(evs) != 1 {
		t.Fatalf("expected exactly 1 event, got %d: %v", len(evs), evs)
	}
	if evs[0].Kind != Press {
		t.Errorf("expected PRESS for a 2.9s hold, got %s", evs[0].Kind)
	}
}

func TestHoldTimerSuspendedWhilePendingRelease(t *testing.T) {
	d := newTestDebouncer()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Release at 2.99s; a tick lands at 3.01s while the release is still
	// settling. The hold must not fire during that window.
	var evs []Event
	evs = append(evs, d.Edge(Edge{Button: Select, Pressed: true, At: now})...)
	evs = append(evs, d.Tick(now.Add(50*time.Millisecond))...)
	evs = append(evs, d.Edge(Edge{Button: Select, Pressed: false, At: now.Add(2990 * time.Millisecond)})...)
	evs = append(evs, d.Tick(now.Add(3010*time.Millisecond))...)

	for _, ev := range evs {
		if ev.Kind == HoldReached {
			t.Fatalf("hold fired while release was settling: %v", evs)
		}
	}

	evs = append(evs, d.Tick(now.Add(3030*time.Millisecond))...)
	if len(evs) != 1 || evs[0].Kind != Press {
		t.Fatalf("expected single PRESS after release settles, got %v", evs)
	}
}

func TestHoldReachedThenRelease(t *testing.T) {
	d := newTestDebouncer()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var evs []Event
	evs = append(evs, d.Edge(Edge{Button: Select, Pressed: true, At: now})...)
	evs = append(evs, d.Tick(now.Add(50*time.Millisecond))...)
	evs = append(evs, d.Tick(now.Add(3*time.Second))...)

	if len(evs) != 1 {
		t.Fatalf("expected HOLD_REACHED at the threshold, got %v", evs)
	}
	if evs[0].Kind != HoldReached {
		t.Errorf("expected HOLD_REACHED, got %s", evs[0].Kind)
	}

	// Holding longer fires nothing more.
	evs = d.Tick(now.Add(5 * time.Second))
	if len(evs) != 0 {
		t.Errorf("expected no repeat hold events, got %v", evs)
	}

	// Release after a hold emits RELEASE, not PRESS.
	evs = collect(
		d.Edge(Edge{Button: Select, Pressed: false, At: now.Add(6 * time.Second)}),
		d.Tick(now.Add(6*time.Second+40*time.Millisecond)),
	)
	if len(evs) != 1 {
		t.Fatalf("expected exactly 1 event on release, got %v", evs)
	}
	if evs[0].Kind != Release {
		t.Errorf("expected RELEASE after a hold, got %s", evs[0].Kind)
	}
}

func TestHoldFiresAtExactThreshold(t *testing.T) {
	d := newTestDebouncer()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	d.Edge(Edge{Button: Down, Pressed: true, At: now})
	d.Tick(now.Add(DefaultSettle))

	evs := d.Tick(now.Add(DefaultHold))
	if len(evs) != 1 || evs[0].Kind != HoldReached {
		t.Fatalf("expected HOLD_REACHED at exactly the threshold, got %v", evs)
	}
}

func TestButtonsAreIndependent(t *testing.T) {
	d := newTestDebouncer()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// LEFT and RIGHT pressed together; LEFT released short, RIGHT held past
	// the threshold. Each button resolves its own cycle.
	d.Edge(Edge{Button: Left, Pressed: true, At: now})
	d.Edge(Edge{Button: Right, Pressed: true, At: now.Add(2 * time.Millisecond)})
	d.Tick(now.Add(50 * time.Millisecond))

	evs := collect(
		d.Edge(Edge{Button: Left, Pressed: false, At: now.Add(300 * time.Millisecond)}),
		d.Tick(now.Add(350*time.Millisecond)),
	)
	if len(evs) != 1 || evs[0].Button != Left || evs[0].Kind != Press {
		t.Fatalf("expected LEFT PRESS, got %v", evs)
	}

	evs = d.Tick(now.Add(3100 * time.Millisecond))
	if len(evs) != 1 || evs[0].Button != Right || evs[0].Kind != HoldReached {
		t.Fatalf("expected RIGHT HOLD_REACHED, got %v", evs)
	}
}

func TestGlitchShorterThanSettleIgnored(t *testing.T) {
	d := newTestDebouncer()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// A 10ms spike never settles, so no event is produced.
	evs := collect(
		d.Edge(Edge{Button: Left, Pressed: true, At: now}),
		d.Edge(Edge{Button: Left, Pressed: false, At: now.Add(10 * time.Millisecond)}),
		d.Tick(now.Add(100*time.Millisecond)),
		d.Tick(now.Add(200*time.Millisecond)),
	)

	if len(evs) != 0 {
		t.Errorf("expected a sub-settle glitch to be ignored, got %v", evs)
	}
}

func TestUnknownButtonIgnored(t *testing.T) {
	d := newTestDebouncer()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	evs := d.Edge(Edge{Button: Button("BOGUS"), Pressed: true, At: now})
	if len(evs) != 0 {
		t.Errorf("expected unknown button edge to produce nothing, got %v", evs)
	}
}

func TestSecondPressAfterHoldCycle(t *testing.T) {
	d := newTestDebouncer()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Full hold cycle.
	d.Edge(Edge{Button: Select, Pressed: true, At: now})
	d.Tick(now.Add(50 * time.Millisecond))
	d.Tick(now.Add(3 * time.Second))
	d.Edge(Edge{Button: Select, Pressed: false, At: now.Add(4 * time.Second)})
	d.Tick(now.Add(4*time.Second + 50*time.Millisecond))

	// A following short press starts a fresh cycle.
	base := now.Add(5 * time.Second)
	evs := collect(
		d.Edge(Edge{Button: Select, Pressed: true, At: base}),
		d.Tick(base.Add(50*time.Millisecond)),
		d.Edge(Edge{Button: Select, Pressed: false, At: base.Add(200 * time.Millisecond)}),
		d.Tick(base.Add(250*time.Millisecond)),
	)

	if len(evs) != 1 || evs[0].Kind != Press {
		t.Fatalf("expected fresh PRESS after a completed hold cycle, got %v", evs)
	}
}
