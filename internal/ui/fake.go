package ui

import "sync"

// RecorderRenderer is a test double that records every rendered frame.
type RecorderRenderer struct {
	mu     sync.Mutex
	frames []Frame
}

// NewRecorderRenderer creates an empty recorder.
func NewRecorderRenderer() *RecorderRenderer {
	return &RecorderRenderer{}
}

// Render records the frame.
func (r *RecorderRenderer) Render(f Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

// Frames returns a copy of all recorded frames.
func (r *RecorderRenderer) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Last returns the most recent frame, if any.
func (r *RecorderRenderer) Last() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return Frame{}, false
	}
	return r.frames[len(r.frames)-1], true
}

// Count returns how many frames were rendered.
func (r *RecorderRenderer) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}
