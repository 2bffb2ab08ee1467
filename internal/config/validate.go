// Package config loads and validates the gauge configuration.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/sweeney/tally-gauge/internal/gpio"
	"github.com/sweeney/tally-gauge/internal/logic"
)

// Error is a configuration value that cannot be used.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// minDigitLEDs is the number of LEDs a group needs to show the digit 9.
const minDigitLEDs = 9

// Validate checks every value the session depends on. All problems are
// reported, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	fail := func(field, format string, args ...interface{}) {
		errs = append(errs, &Error{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if !(c.Goal.TargetRate > 0) || math.IsInf(c.Goal.TargetRate, 0) {
		fail("goal.target_rate", "must be a positive number, got %v", c.Goal.TargetRate)
	}
	if c.Goal.DailyMax <= 0 || c.Goal.DailyMax > logic.MaxEncodable {
		fail("goal.daily_max", "must be between 1 and %d, got %d", logic.MaxEncodable, c.Goal.DailyMax)
	}

	if c.Rate.Window <= 0 {
		fail("rate.window", "must be positive, got %v", c.Rate.Window)
	}
	if !(c.Rate.BehindBelow > 0) {
		fail("rate.behind_below", "must be positive, got %v", c.Rate.BehindBelow)
	}
	if c.Rate.AheadAbove < c.Rate.BehindBelow {
		fail("rate.ahead_above", "must not be below behind_below (%v), got %v", c.Rate.BehindBelow, c.Rate.AheadAbove)
	}
	if c.Rate.DayLength < 0 {
		fail("rate.day_length", "must not be negative, got %v", c.Rate.DayLength)
	}

	if c.Input.Poll <= 0 {
		fail("input.poll", "must be positive, got %v", c.Input.Poll)
	}
	if c.Input.Debounce < 0 {
		fail("input.debounce", "must not be negative, got %v", c.Input.Debounce)
	}
	if c.Input.Holdoff < 0 {
		fail("input.holdoff", "must not be negative, got %v", c.Input.Holdoff)
	}
	if _, err := gpio.ParseSource(c.Input.Source); err != nil {
		fail("input.source", "%v", err)
	}

	c.validateDisplay(fail)
	c.validateOutput(fail)

	return errors.Join(errs...)
}

func (c *Config) validateDisplay(fail func(field, format string, args ...interface{})) {
	d := c.Display
	if d.Pixels <= 0 {
		fail("display.pixels", "must be positive, got %d", d.Pixels)
		return
	}

	if len(d.GaugeLEDs) == 0 {
		fail("display.gauge_leds", "must list at least one LED")
	}
	checkIndices("display.gauge_leds", d.GaugeLEDs, d.Pixels, fail)

	if !(d.FullScale > 0) {
		fail("display.full_scale", "must be positive, got %v", d.FullScale)
	}
	if !(d.Brightness > 0) || d.Brightness > 1 {
		fail("display.brightness", "must be in (0, 1], got %v", d.Brightness)
	}
	if d.Mode != ModeSequential && d.Mode != ModeSimultaneous {
		fail("display.mode", "must be %s or %s, got %q", ModeSequential, ModeSimultaneous, d.Mode)
	}
	if d.CodeHold <= 0 {
		fail("display.code_hold", "must be positive, got %v", d.CodeHold)
	}
	if d.CodeGap < 0 {
		fail("display.code_gap", "must not be negative, got %v", d.CodeGap)
	}
	if d.CodeLead < 0 {
		fail("display.code_lead", "must not be negative, got %v", d.CodeLead)
	}
	if d.PlaceholderBlinks < 0 {
		fail("display.placeholder_blinks", "must not be negative, got %d", d.PlaceholderBlinks)
	}
	if d.PlaceholderBlinks > 0 && d.CodeBlink <= 0 {
		fail("display.code_blink", "must be positive when placeholder_blinks is set, got %v", d.CodeBlink)
	}
	if d.FlashFor < 0 {
		fail("display.flash_for", "must not be negative, got %v", d.FlashFor)
	}
	if d.CelebrateFor < 0 {
		fail("display.celebrate_for", "must not be negative, got %v", d.CelebrateFor)
	}

	if len(d.Groups) != 3 {
		fail("display.groups", "want 3 groups (hundreds, tens, units), got %d", len(d.Groups))
		return
	}
	owner := make(map[int]int)
	for i, g := range d.Groups {
		field := fmt.Sprintf("display.groups[%d]", i)
		if _, err := ParseColor(g.Color); err != nil {
			fail(field+".color", "%v", err)
		}
		if len(g.LEDs) < minDigitLEDs {
			fail(field+".leds", "need at least %d LEDs, got %d", minDigitLEDs, len(g.LEDs))
		}
		checkIndices(field+".leds", g.LEDs, d.Pixels, fail)

		if !d.Sequential() {
			for _, idx := range g.LEDs {
				if prev, ok := owner[idx]; ok && prev != i {
					fail(field+".leds", "LED %d shared with group %d in simultaneous mode", idx, prev)
				}
				owner[idx] = i
			}
		}
	}
}

func (c *Config) validateOutput(fail func(field, format string, args ...interface{})) {
	o := c.Output
	switch o.Driver {
	case DriverNone:
	case DriverGPIO:
		if len(o.Pins) != c.Display.Pixels {
			fail("output.pins", "gpio driver needs one pin per pixel (%d), got %d", c.Display.Pixels, len(o.Pins))
		}
		lines := make(map[int]bool)
		for _, pin := range o.Pins {
			if pin < 0 {
				fail("output.pins", "line %d is negative", pin)
			}
			if lines[pin] {
				fail("output.pins", "line %d listed twice", pin)
			}
			lines[pin] = true
		}
		if o.StatusPin >= 0 && lines[o.StatusPin] {
			fail("output.status_pin", "line %d already drives a pixel", o.StatusPin)
		}
	case DriverSerial:
		if o.SerialPort == "" {
			fail("output.serial_port", "serial driver needs a port")
		}
	default:
		fail("output.driver", "must be %s, %s or %s, got %q", DriverNone, DriverGPIO, DriverSerial, o.Driver)
	}
}

func checkIndices(field string, indices []int, pixels int, fail func(field, format string, args ...interface{})) {
	seen := make(map[int]bool)
	for _, idx := range indices {
		if idx < 0 || idx >= pixels {
			fail(field, "LED %d outside 0..%d", idx, pixels-1)
		}
		if seen[idx] {
			fail(field, "LED %d listed twice", idx)
		}
		seen[idx] = true
	}
}
