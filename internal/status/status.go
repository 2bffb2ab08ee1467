// Package status provides a thread-safe status tracker for the tally-gauge daemon.
// It is read for heartbeat and shutdown logging and by -print-state.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/tally-gauge/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HoldoffMs   int64
	HeartbeatMs int64
	WindowMs    int64
	Rolling     bool
	TargetRate  float64
	DailyMax    int
	Driver      string
}

// Inputs holds raw input levels.
type Inputs struct {
	Signal    bool
	ShowTotal bool
}

// Counts is the counting state at one step.
type Counts struct {
	Total       int
	Displayed   int // total as shown by the coded lights
	Saturated   bool
	WindowCount int
	DayStart    time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Source       string
	Baselined    bool
	ShowingTotal bool
	Counts       Counts
	Deviation    logic.Deviation
	Lit          int
	DriverOK     bool
	Inputs       *Inputs
	StartTime    time.Time
	Now          time.Time
	Config       Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, input source and config.
func NewTracker(startTime time.Time, source string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Source:    source,
			DriverOK:  true,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets baseline status, counts and pace.
// Called from runLoop on every tick.
func (t *Tracker) Update(baselined, showingTotal bool, counts Counts, dev logic.Deviation, lit int) {
	t.mu.Lock()
	t.snap.Baselined = baselined
	t.snap.ShowingTotal = showingTotal
	t.snap.Counts = counts
	t.snap.Deviation = dev
	t.snap.Lit = lit
	t.mu.Unlock()
}

// SetDriverOK records whether the last frame reached the LEDs.
func (t *Tracker) SetDriverOK(ok bool) {
	t.mu.Lock()
	t.snap.DriverOK = ok
	t.mu.Unlock()
}

// SetInputs records the raw input levels.
func (t *Tracker) SetInputs(signal, showTotal bool) {
	t.mu.Lock()
	t.snap.Inputs = &Inputs{Signal: signal, ShowTotal: showTotal}
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	return t.SnapshotAt(time.Now())
}

// SnapshotAt is Snapshot with an explicit current time.
func (t *Tracker) SnapshotAt(now time.Time) Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = now
	return s
}
