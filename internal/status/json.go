package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Source        string      `json:"source"`
	Ready         bool        `json:"ready"`
	ShowingTotal  bool        `json:"showing_total"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	DayStart      string      `json:"day_start,omitempty"`
	Timestamp     string      `json:"timestamp"`
	Counts        CountsJSON  `json:"counts"`
	Pace          PaceJSON    `json:"pace"`
	LEDs          LEDsJSON    `json:"leds"`
	Inputs        *InputsJSON `json:"inputs,omitempty"`
	Config        ConfigJSON  `json:"config"`
}

// CountsJSON is the JSON representation of the counters.
type CountsJSON struct {
	Total     int  `json:"total"`
	Displayed int  `json:"displayed"`
	Saturated bool `json:"saturated"`
	Window    int  `json:"window"`
}

// PaceJSON reports the rate against the goal.
type PaceJSON struct {
	Ratio float64 `json:"ratio"`
	Band  string  `json:"band"`
}

// LEDsJSON reports the display output.
type LEDsJSON struct {
	Lit      int  `json:"lit"`
	DriverOK bool `json:"driver_ok"`
}

// InputsJSON is the JSON representation of raw input levels.
type InputsJSON struct {
	Signal    bool `json:"signal"`
	ShowTotal bool `json:"show_total"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64   `json:"poll_ms"`
	DebounceMs  int64   `json:"debounce_ms"`
	HoldoffMs   int64   `json:"holdoff_ms"`
	HeartbeatMs int64   `json:"heartbeat_ms"`
	WindowMs    int64   `json:"window_ms"`
	Rolling     bool    `json:"rolling"`
	TargetRate  float64 `json:"target_rate"`
	DailyMax    int     `json:"daily_max"`
	Driver      string  `json:"driver"`
}

func buildInner(snap Snapshot) StatusInner {
	source := snap.Source
	if source == "" {
		source = "UNKNOWN"
	}
	band := string(snap.Deviation.Band)
	if band == "" {
		band = "UNKNOWN"
	}
	// encoding/json rejects NaN and Inf
	ratio := snap.Deviation.Ratio
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 0
	}

	inner := StatusInner{
		Source:        source,
		Ready:         snap.Baselined,
		ShowingTotal:  snap.ShowingTotal,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Counts: CountsJSON{
			Total:     snap.Counts.Total,
			Displayed: snap.Counts.Displayed,
			Saturated: snap.Counts.Saturated,
			Window:    snap.Counts.WindowCount,
		},
		Pace: PaceJSON{Ratio: ratio, Band: band},
		LEDs: LEDsJSON{Lit: snap.Lit, DriverOK: snap.DriverOK},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HoldoffMs:   snap.Config.HoldoffMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			WindowMs:    snap.Config.WindowMs,
			Rolling:     snap.Config.Rolling,
			TargetRate:  snap.Config.TargetRate,
			DailyMax:    snap.Config.DailyMax,
			Driver:      snap.Config.Driver,
		},
	}
	if !snap.Counts.DayStart.IsZero() {
		inner.DayStart = snap.Counts.DayStart.UTC().Format(time.RFC3339)
	}
	if snap.Inputs != nil {
		inner.Inputs = &InputsJSON{Signal: snap.Inputs.Signal, ShowTotal: snap.Inputs.ShowTotal}
	}
	return inner
}

// FormatJSON returns the indented JSON status printed by -print-state.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the single-line JSON status logged for a system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
