package logic

import "time"

// Counter accumulates events into a daily total and a windowed sub-count.
type Counter struct {
	dailyMax    int
	window      time.Duration
	dayLength   time.Duration
	total       int
	windowCount int
	windowStart time.Time
	dayStart    time.Time
	// recent holds event times inside the rolling window; nil in fixed mode.
	recent  []time.Time
	rolling bool
}

// NewCounter creates a counter starting at now. In rolling mode the rate is
// taken over the events of the last window instead of fixed window slices.
// A dayLength of zero disables the daily reset.
func NewCounter(dailyMax int, window, dayLength time.Duration, rolling bool, now time.Time) *Counter {
	return &Counter{
		dailyMax:    dailyMax,
		window:      window,
		dayLength:   dayLength,
		windowStart: now,
		dayStart:    now,
		rolling:     rolling,
	}
}

// OnEvent counts one event. The total is not clamped here; the display
// saturates at the daily maximum.
func (c *Counter) OnEvent(now time.Time) {
	c.total++
	c.windowCount++
	if c.rolling {
		c.recent = append(c.recent, now)
	}
}

// OnWindowTick closes the current window, returning its rate in units per
// minute, and starts a new window at now.
func (c *Counter) OnWindowTick(now time.Time) WindowResult {
	res := WindowResult{
		Count:   c.windowCount,
		Elapsed: now.Sub(c.windowStart),
	}
	if res.Elapsed > 0 {
		res.Rate = float64(res.Count) / res.Elapsed.Minutes()
	}

	c.windowCount = 0
	c.windowStart = now
	return res
}

// WindowDue reports whether the fixed window has run its full length.
func (c *Counter) WindowDue(now time.Time) bool {
	return !c.rolling && now.Sub(c.windowStart) >= c.window
}

// RollingRate drops events older than the window and returns the rate of the
// remaining ones in units per minute.
func (c *Counter) RollingRate(now time.Time) WindowResult {
	cutoff := now.Add(-c.window)
	kept := c.recent[:0]
	for _, t := range c.recent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.recent = kept

	res := WindowResult{Count: len(kept), Elapsed: c.window}
	if c.window > 0 {
		res.Rate = float64(res.Count) / c.window.Minutes()
	}
	return res
}

// Rollover resets the total and the window when a new day has started.
// It reports whether a reset happened.
func (c *Counter) Rollover(now time.Time) bool {
	if c.dayLength <= 0 || now.Sub(c.dayStart) < c.dayLength {
		return false
	}
	c.total = 0
	c.windowCount = 0
	c.windowStart = now
	c.dayStart = now
	c.recent = c.recent[:0]
	return true
}

// Total returns the number of events counted today.
func (c *Counter) Total() int {
	return c.total
}

// WindowCount returns the number of events in the current window.
// In rolling mode it is the number of events kept at the last RollingRate call
// plus those counted since.
func (c *Counter) WindowCount() int {
	if c.rolling {
		return len(c.recent)
	}
	return c.windowCount
}

// Saturated reports whether the total has reached the daily maximum.
func (c *Counter) Saturated() bool {
	return c.total >= c.dailyMax
}

// DayStart returns the start of the current counting day.
func (c *Counter) DayStart() time.Time {
	return c.dayStart
}
