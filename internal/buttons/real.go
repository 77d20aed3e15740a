//go:build linux

package buttons

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Default BCM pin numbers for the button panel. Each button sits between its
// GPIO and ground; the internal pull-up keeps the line high until pressed.
const (
	DefaultPinLeft   = 16
	DefaultPinRight  = 20
	DefaultPinSelect = 21
	DefaultPinUp     = 19
	DefaultPinDown   = 26
)

// Pins maps buttons to BCM pin numbers.
type Pins map[Button]int

// DefaultPins returns the wiring used by the stock panel.
func DefaultPins() Pins {
	return Pins{
		Left:   DefaultPinLeft,
		Right:  DefaultPinRight,
		Select: DefaultPinSelect,
		Up:     DefaultPinUp,
		Down:   DefaultPinDown,
	}
}

// RealLines reads button edges from actual hardware using the Linux GPIO
// character device, delivering them on an Edge channel for a Source.
type RealLines struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
	edges chan Edge
}

// NewRealLines requests the button lines as inputs with pull-ups and
// both-edge event reporting.
func NewRealLines(pins Pins) (*RealLines, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealLines{
		chip: chip,
		// Raw bounce can burst; size the channel so the kernel handler
		// never drops edges under normal chatter.
		edges: make(chan Edge, 128),
	}

	for _, b := range All {
		pin, ok := pins[b]
		if !ok {
			r.Close()
			return nil, fmt.Errorf("no pin configured for %s", b)
		}

		button := b
		line, err := chip.RequestLine(pin,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				// Pull-up wiring: pressed connects the line to ground, so a
				// falling edge is a press.
				e := Edge{
					Button:  button,
					Pressed: evt.Type == gpiocdev.LineEventFallingEdge,
					At:      time.Now(),
				}
				select {
				case r.edges <- e:
				default:
					// Bounce storm; the debouncer would discard these anyway.
				}
			}))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", b, pin, err)
		}
		r.lines = append(r.lines, line)
	}

	return r, nil
}

// Edges is the raw transition stream for a Source.
func (r *RealLines) Edges() <-chan Edge {
	return r.edges
}

// Close releases the GPIO lines and chip.
func (r *RealLines) Close() error {
	var errs []error
	for _, line := range r.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
