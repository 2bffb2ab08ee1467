package logic

import (
	"math"
	"time"
)

// Settings holds everything a session needs. They are read-only once the
// session has started.
type Settings struct {
	Goal     Goal
	Bands    Bands
	Layout   Layout
	Debounce time.Duration
	Holdoff  time.Duration
	// Window is the rate window length.
	Window time.Duration
	// Rolling computes the rate over the last Window on every step instead
	// of over fixed, back-to-back windows.
	Rolling   bool
	DayLength time.Duration
	// CodeHold and CodeGap time the coded-light presentation. CodeLead is a
	// blank shown before the first digit; zero skips it. CodeBlink is each half
	// of a placeholder blink.
	CodeHold  time.Duration
	CodeGap   time.Duration
	CodeLead  time.Duration
	CodeBlink time.Duration
	// FlashFor is how long a counted event lights the flash frame; zero
	// disables it.
	FlashFor time.Duration
	// CelebrateFor is how long the goal celebration runs; zero disables it.
	CelebrateFor  time.Duration
	CelebrateStep time.Duration
}

// GoalCount returns the number of events per window that meets the goal.
func (s Settings) GoalCount() int {
	return int(math.Ceil(s.Goal.TargetRate * s.Window.Minutes()))
}

// Output is the result of one session step.
type Output struct {
	Event       *Event
	Window      *WindowResult
	Deviation   Deviation
	Plan        RenderPlan
	Frame       Frame
	GoalReached bool
	DayRollover bool
}

// Session owns the counting state of one power-on period.
type Session struct {
	settings  Settings
	signal    *EdgeDetector
	showTotal *EdgeDetector
	counter   *Counter
	estimator *RateEstimator
	mapper    *Mapper
	deviation Deviation

	startTime     time.Time
	lastHeartbeat time.Time

	goalArmed bool

	// code playback
	codeSteps []CodeStep
	codeIndex int
	codeSince time.Time

	celebrateUntil time.Time
	celebrateStart time.Time
	flashUntil     time.Time
}

// NewSession creates a session starting at startTime.
func NewSession(s Settings, startTime time.Time) *Session {
	return &Session{
		settings:      s,
		signal:        NewEdgeDetector(s.Debounce, s.Holdoff),
		showTotal:     NewEdgeDetector(s.Debounce, 0),
		counter:       NewCounter(s.Goal.DailyMax, s.Window, s.DayLength, s.Rolling, startTime),
		estimator:     NewRateEstimator(s.Bands),
		mapper:        NewMapper(s.Layout, s.Goal.DailyMax),
		deviation:     Deviation{Band: BandBehind},
		startTime:     startTime,
		lastHeartbeat: startTime,
		goalArmed:     true,
	}
}

// Step processes one input sample and returns the resulting display state.
func (s *Session) Step(in Input) Output {
	var out Output
	now := in.Time

	if s.counter.Rollover(now) {
		out.DayRollover = true
		s.goalArmed = true
	}

	if ev := s.signal.Poll(in.Signal, now); ev != nil {
		s.counter.OnEvent(now)
		out.Event = ev
		if s.settings.FlashFor > 0 {
			s.flashUntil = now.Add(s.settings.FlashFor)
		}
	}

	if s.settings.Rolling {
		res := s.counter.RollingRate(now)
		s.deviation = s.estimator.Evaluate(res.Rate, s.settings.Goal.TargetRate)
	} else if s.counter.WindowDue(now) {
		res := s.counter.OnWindowTick(now)
		out.Window = &res
		s.deviation = s.estimator.Evaluate(res.Rate, s.settings.Goal.TargetRate)
	}
	out.Deviation = s.deviation

	out.GoalReached = s.checkGoal(now)

	if s.showTotal.Poll(in.ShowTotal, now) != nil && s.codeSteps == nil {
		steps := s.mapper.CodeFrames(s.mapper.Render(s.counter.Total(), s.deviation))
		if s.settings.CodeLead > 0 {
			steps = append([]CodeStep{{s.mapper.Blank(), SlotLead}}, steps...)
		}
		s.codeSteps = steps
		s.codeIndex = 0
		s.codeSince = now
	}

	out.Plan = s.mapper.Render(s.counter.Total(), s.deviation)
	out.Frame = s.frame(out.Plan, now)
	return out
}

// checkGoal fires once when the window count reaches the goal and re-arms
// when it drops below again.
func (s *Session) checkGoal(now time.Time) bool {
	goal := s.settings.GoalCount()
	if goal <= 0 {
		return false
	}
	if s.counter.WindowCount() < goal {
		s.goalArmed = true
		return false
	}
	if !s.goalArmed {
		return false
	}
	s.goalArmed = false
	if s.settings.CelebrateFor > 0 {
		s.celebrateStart = now
		s.celebrateUntil = now.Add(s.settings.CelebrateFor)
	}
	return true
}

// frame picks what the strip shows now: code playback, then the celebration,
// then the event flash, then the gauge.
func (s *Session) frame(plan RenderPlan, now time.Time) Frame {
	if s.codeSteps != nil {
		for s.codeIndex < len(s.codeSteps) && now.Sub(s.codeSince) >= s.codeHold(s.codeSteps[s.codeIndex].Slot) {
			s.codeSince = s.codeSince.Add(s.codeHold(s.codeSteps[s.codeIndex].Slot))
			s.codeIndex++
		}
		if s.codeIndex < len(s.codeSteps) {
			return s.codeSteps[s.codeIndex].Frame
		}
		s.codeSteps = nil
	}

	if now.Before(s.celebrateUntil) {
		step := 0
		if s.settings.CelebrateStep > 0 {
			step = int(now.Sub(s.celebrateStart) / s.settings.CelebrateStep)
		}
		return s.mapper.CelebrateFrame(step)
	}

	if now.Before(s.flashUntil) {
		return s.mapper.FlashFrame()
	}

	return s.mapper.GaugeFrame(plan)
}

// codeHold returns how long a code step of the given slot stays up.
func (s *Session) codeHold(slot CodeSlot) time.Duration {
	switch slot {
	case SlotGap:
		return s.settings.CodeGap
	case SlotLead:
		return s.settings.CodeLead
	case SlotBlinkOn, SlotBlinkOff:
		return s.settings.CodeBlink
	}
	return s.settings.CodeHold
}

// ShowingTotal reports whether a coded-light presentation is in progress.
func (s *Session) ShowingTotal() bool {
	return s.codeSteps != nil
}

// IsBaselined returns whether the counting input has a debounced baseline.
func (s *Session) IsBaselined() bool {
	return s.signal.IsBaselined()
}

// Total returns today's event count.
func (s *Session) Total() int {
	return s.counter.Total()
}

// WindowCount returns the events in the current rate window.
func (s *Session) WindowCount() int {
	return s.counter.WindowCount()
}

// Deviation returns the most recent deviation.
func (s *Session) Deviation() Deviation {
	return s.deviation
}

// DayStart returns the start of the current counting day.
func (s *Session) DayStart() time.Time {
	return s.counter.DayStart()
}

// ErrorFrame returns the configuration error pattern for this layout.
func (s *Session) ErrorFrame() Frame {
	return s.mapper.ErrorFrame()
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (s *Session) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !s.signal.IsBaselined() {
		return nil
	}

	if now.Sub(s.lastHeartbeat) < interval {
		return nil
	}

	s.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(s.startTime),
		Total:     s.counter.Total(),
		Deviation: s.deviation,
	}
}
