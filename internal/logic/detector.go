package logic

import "time"

// level is the debounced state of a single input.
type level struct {
	// Current stable (debounced) state
	stable bool
	// Pending state during debounce
	pending    bool
	hasPending bool
	// Time when pending state was first observed
	pendingSince time.Time
	// Whether we have established a baseline
	baselined bool
}

// EdgeDetector debounces a boolean input and reports rising edges.
type EdgeDetector struct {
	debounce  time.Duration
	holdoff   time.Duration
	in        level
	lastEvent time.Time
	fired     bool
}

// NewEdgeDetector creates a detector that requires the input to hold a level for
// debounce before accepting it, and ignores rising edges for holdoff after an event.
func NewEdgeDetector(debounce, holdoff time.Duration) *EdgeDetector {
	return &EdgeDetector{
		debounce: debounce,
		holdoff:  holdoff,
	}
}

// Poll takes a new input sample and returns an Event on a debounced rising edge.
// No events are returned until a baseline level has been established, so an
// input that is already active at startup is not counted.
func (d *EdgeDetector) Poll(active bool, now time.Time) *Event {
	if !d.transition(active, now) || !active {
		return nil
	}

	if d.fired && now.Sub(d.lastEvent) < d.holdoff {
		return nil
	}

	d.fired = true
	d.lastEvent = now
	return &Event{Timestamp: now}
}

// transition handles debounce logic and reports whether the stable level changed.
func (d *EdgeDetector) transition(active bool, now time.Time) bool {
	in := &d.in

	// First time seeing this input
	if !in.baselined {
		if !in.hasPending || in.pending != active {
			// Start observing, or restart because the level changed
			in.pending = active
			in.hasPending = true
			in.pendingSince = now
			return false
		}

		if now.Sub(in.pendingSince) >= d.debounce {
			in.stable = active
			in.baselined = true
			in.hasPending = false
		}
		return false
	}

	if active == in.stable {
		// Bounce back to stable, clear any pending
		in.hasPending = false
		return false
	}

	if !in.hasPending {
		in.pending = active
		in.hasPending = true
		in.pendingSince = now
	}

	if now.Sub(in.pendingSince) >= d.debounce {
		in.stable = active
		in.hasPending = false
		return true
	}
	return false
}

// IsBaselined returns whether the detector has established a baseline.
func (d *EdgeDetector) IsBaselined() bool {
	return d.in.baselined
}

// Active returns the current stable level.
func (d *EdgeDetector) Active() bool {
	return d.in.stable
}
