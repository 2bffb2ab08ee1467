//go:build !linux

package led

import (
	"errors"

	"github.com/sweeney/tally-gauge/internal/logic"
)

// GPIODriver is not available on non-Linux platforms.
type GPIODriver struct{}

// NewGPIODriver returns an error on non-Linux platforms.
func NewGPIODriver(chipName string, pixelPins []int, statusPin int) (*GPIODriver, error) {
	return nil, errors.New("led: gpio driver not supported on this platform (requires Linux)")
}

// Render is not implemented on non-Linux platforms.
func (d *GPIODriver) Render(logic.Frame) error {
	return errors.New("led: gpio driver not supported")
}

// Close is not implemented on non-Linux platforms.
func (d *GPIODriver) Close() error {
	return nil
}
