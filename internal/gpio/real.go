//go:build linux

package gpio

import (
	"fmt"
	"log"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads GPIO from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip      *gpiocdev.Chip
	signal    *gpiocdev.Line
	showTotal *gpiocdev.Line
	source    Source
}

// NewRealReader opens the chip, reads the mode switch once (unless forced is
// set) and requests the selected counting line and the show-total line.
func NewRealReader(chipName string, pins Pins, forced Source) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	switchActive := false
	if forced == "" {
		switchActive, err = readOnce(chip, pins.ModeSwitch)
		if err != nil {
			chip.Close()
			return nil, fmt.Errorf("read mode switch pin %d: %w", pins.ModeSwitch, err)
		}
	}
	source := SelectSource(forced, switchActive)

	pin := pins.Pad
	if source == BackupButton {
		pin = pins.Button
	}

	// Inputs use pull-down so an unconnected pad reads inactive.
	signal, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request %s pin %d: %w", source, pin, err)
	}

	showTotal, err := chip.RequestLine(pins.ShowTotal, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		signal.Close()
		chip.Close()
		return nil, fmt.Errorf("request show-total pin %d: %w", pins.ShowTotal, err)
	}

	log.Printf("gpio: counting on %s (pin %d)", source, pin)

	return &RealReader{
		chip:      chip,
		signal:    signal,
		showTotal: showTotal,
		source:    source,
	}, nil
}

// readOnce samples a line and releases it.
func readOnce(chip *gpiocdev.Chip, pin int) (bool, error) {
	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		return false, err
	}
	defer line.Close()

	v, err := line.Value()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// Read returns the logical states of the counting input and the show-total button.
func (r *RealReader) Read() (bool, bool, error) {
	sig, err := r.signal.Value()
	if err != nil {
		return false, false, fmt.Errorf("read %s: %w", r.source, err)
	}

	show, err := r.showTotal.Value()
	if err != nil {
		return false, false, fmt.Errorf("read show-total: %w", err)
	}

	return sig == 1, show == 1, nil
}

// Source reports which input was selected at startup.
func (r *RealReader) Source() Source {
	return r.source
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	var errs []error

	if r.signal != nil {
		if err := r.signal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close signal line: %w", err))
		}
	}
	if r.showTotal != nil {
		if err := r.showTotal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close show-total line: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
