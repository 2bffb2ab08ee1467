//go:build linux

package led

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/tally-gauge/internal/logic"
)

// GPIODriver lights discrete LEDs wired to GPIO output lines, one line per pixel.
// Colour is reduced to on/off.
type GPIODriver struct {
	chip       *gpiocdev.Chip
	lines      *gpiocdev.Lines
	pixels     int
	withStatus bool
}

// NewGPIODriver requests pixelPins (in strip order) and an optional statusPin
// (negative to disable) as outputs driven low.
func NewGPIODriver(chipName string, pixelPins []int, statusPin int) (*GPIODriver, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	offsets := append([]int(nil), pixelPins...)
	withStatus := statusPin >= 0
	if withStatus {
		offsets = append(offsets, statusPin)
	}

	lines, err := chip.RequestLines(offsets, gpiocdev.AsOutput(make([]int, len(offsets))...))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request led lines %v: %w", offsets, err)
	}

	return &GPIODriver{
		chip:       chip,
		lines:      lines,
		pixels:     len(pixelPins),
		withStatus: withStatus,
	}, nil
}

// Render drives every line from the frame.
func (d *GPIODriver) Render(frame logic.Frame) error {
	if err := d.lines.SetValues(lineValues(frame, d.pixels, d.withStatus)); err != nil {
		return fmt.Errorf("set led lines: %w", err)
	}
	return nil
}

// Close switches all LEDs off and releases the lines.
func (d *GPIODriver) Close() error {
	var errs []error

	if d.lines != nil {
		if err := d.Render(logic.Frame{}); err != nil {
			errs = append(errs, err)
		}
		if err := d.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led lines: %w", err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
