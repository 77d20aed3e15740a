//go:build !linux

package buttons

import "errors"

// Pins maps buttons to BCM pin numbers.
type Pins map[Button]int

// DefaultPins returns an empty map on non-Linux platforms.
func DefaultPins() Pins { return Pins{} }

// RealLines is not available on non-Linux platforms.
type RealLines struct{}

// NewRealLines returns an error on non-Linux platforms.
func NewRealLines(Pins) (*RealLines, error) {
	return nil, errors.New("buttons: gpio not supported on this platform (requires Linux)")
}

// Edges is not implemented on non-Linux platforms.
func (r *RealLines) Edges() <-chan Edge { return nil }

// Close is a no-op on non-Linux platforms.
func (r *RealLines) Close() error { return nil }
