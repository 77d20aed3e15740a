package buttons

import "time"

// FakeLines is a test double that replays scripted edges.
type FakeLines struct {
	edges chan Edge

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeLines creates a FakeLines with room for the scripted edges.
func NewFakeLines() *FakeLines {
	return &FakeLines{edges: make(chan Edge, 128)}
}

// Edges is the raw transition stream for a Source.
func (f *FakeLines) Edges() <-chan Edge {
	return f.edges
}

// PushEdge injects one raw transition.
func (f *FakeLines) PushEdge(b Button, pressed bool, at time.Time) {
	f.edges <- Edge{Button: b, Pressed: pressed, At: at}
}

// PressAndRelease injects a clean short-press edge pair.
func (f *FakeLines) PressAndRelease(b Button, at time.Time, held time.Duration) {
	f.PushEdge(b, true, at)
	f.PushEdge(b, false, at.Add(held))
}

// Close marks the fake as closed and ends the edge stream.
func (f *FakeLines) Close() error {
	if !f.Closed {
		f.Closed = true
		close(f.edges)
	}
	return nil
}
