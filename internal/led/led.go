// Package led pushes frames from the display engine to physical LEDs.
package led

import (
	"github.com/sweeney/tally-gauge/internal/logic"
)

// Driver renders complete frames.
type Driver interface {
	// Render replaces the whole LED state with frame.
	Render(frame logic.Frame) error

	// Close blanks the LEDs and releases the device.
	Close() error
}

// Nop discards frames. Used when no LED hardware is configured.
type Nop struct{}

// Render does nothing.
func (Nop) Render(logic.Frame) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
