// Package logic contains the pure counting, rate and display mapping engine.
// This package has NO external dependencies (no GPIO, LEDs, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Event is a single debounced "unit produced" occurrence.
type Event struct {
	Timestamp time.Time
}

// Input represents a single sample of the logical inputs.
type Input struct {
	Signal    bool // true = counting input active (pad or backup button)
	ShowTotal bool // true = show-total button pressed
	Time      time.Time
}

// Band classifies a rate relative to the goal.
type Band string

const (
	BandBehind Band = "BEHIND"
	BandOnPace Band = "ON_PACE"
	BandAhead  Band = "AHEAD"
)

// Deviation is the ratio of the measured rate to the target rate.
type Deviation struct {
	Ratio float64
	Band  Band
}

// WindowResult describes a completed rate window.
type WindowResult struct {
	Count   int
	Elapsed time.Duration
	Rate    float64 // units per minute
}

// Goal is the production target for a session.
type Goal struct {
	TargetRate float64 // units per minute
	DailyMax   int
}

// Bands are the ratio edges between behind, on pace and ahead.
type Bands struct {
	Behind float64
	Ahead  float64
}

// Color is an RGB pixel colour.
type Color struct {
	R, G, B uint8
}

// Off is the unlit colour.
var Off = Color{}

// IsOff reports whether the colour is fully dark.
func (c Color) IsOff() bool {
	return c == Off
}

// Scale returns the colour multiplied by f, rounded to the nearest step.
func (c Color) Scale(f float64) Color {
	return Color{R: scaleChannel(c.R, f), G: scaleChannel(c.G, f), B: scaleChannel(c.B, f)}
}

func scaleChannel(v uint8, f float64) uint8 {
	x := float64(v)*f + 0.5
	if x <= 0 {
		return 0
	}
	if x >= 255 {
		return 255
	}
	return uint8(x)
}

// Pixel assigns a colour to one LED index.
type Pixel struct {
	Index int
	Color Color
}

// GaugePlan is the rate gauge part of a render plan.
type GaugePlan struct {
	// Level is the continuous gauge position in [0,1].
	Level float64
	// Lit is the number of gauge LEDs switched on.
	Lit    int
	Pixels []Pixel
}

// DigitGroup is one positional digit of the coded-light total.
type DigitGroup struct {
	Name        string
	Digit       int
	Color       Color
	LEDs        []int // indices lit for this digit, len == Digit
	Placeholder bool  // zero digit signalled on the status LED
}

// CodePlan is the coded-light part of a render plan.
type CodePlan struct {
	Total     int // clamped to the daily maximum
	Saturated bool
	Groups    [3]DigitGroup // hundreds, tens, units
}

// RenderPlan is the complete derived display state for one (total, deviation) pair.
type RenderPlan struct {
	Gauge GaugePlan
	Code  CodePlan
}

// Frame is the full state of the pixel strip and the status LED.
type Frame struct {
	Pixels []Color
	Status bool
}

// Equal reports whether two frames light the same LEDs in the same colours.
func (f Frame) Equal(o Frame) bool {
	if f.Status != o.Status || len(f.Pixels) != len(o.Pixels) {
		return false
	}
	for i := range f.Pixels {
		if f.Pixels[i] != o.Pixels[i] {
			return false
		}
	}
	return true
}

// Lit returns the number of pixels that are not dark.
func (f Frame) Lit() int {
	n := 0
	for _, c := range f.Pixels {
		if !c.IsOff() {
			n++
		}
	}
	return n
}

// HeartbeatData contains information for a heartbeat log line.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Total     int
	Deviation Deviation
}
