package internal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/tally-gauge/internal/config"
	"github.com/sweeney/tally-gauge/internal/gpio"
	"github.com/sweeney/tally-gauge/internal/led"
	"github.com/sweeney/tally-gauge/internal/logic"
	"github.com/sweeney/tally-gauge/internal/status"
)

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const pollInterval = 50 * time.Millisecond

// baseConfig polls every 50ms with a 100ms debounce and a 200ms holdoff, so a
// press is 4 active samples followed by 4 idle ones.
const baseConfig = `
input:
  poll: 50ms
  debounce: 100ms
  holdoff: 200ms
`

var (
	idle      = gpio.Sample{}
	active    = gpio.Sample{Signal: true}
	showTotal = gpio.Sample{ShowTotal: true}
)

func loadSettings(t *testing.T, yaml string) logic.Settings {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tally-gauge.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
	s, err := cfg.Settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	return s
}

func repeat(sample gpio.Sample, n int) []gpio.Sample {
	out := make([]gpio.Sample, n)
	for i := range out {
		out[i] = sample
	}
	return out
}

func presses(n int) []gpio.Sample {
	var out []gpio.Sample
	for i := 0; i < n; i++ {
		out = append(out, repeat(active, 4)...)
		out = append(out, repeat(idle, 4)...)
	}
	return out
}

// drive simulates the main loop: one sample per poll, changed frames pushed to
// the driver. It returns every step's output.
func drive(t *testing.T, session *logic.Session, samples []gpio.Sample, driver led.Driver) []logic.Output {
	t.Helper()
	reader := gpio.NewFakeReader(samples)

	var outputs []logic.Output
	var shown logic.Frame
	for i := range samples {
		signal, show, err := reader.Read()
		if err != nil {
			t.Fatalf("sample %d: gpio read error: %v", i, err)
		}

		now := startTime.Add(time.Duration(i) * pollInterval)
		out := session.Step(logic.Input{Signal: signal, ShowTotal: show, Time: now})
		if i == 0 || !out.Frame.Equal(shown) {
			if err := driver.Render(out.Frame); err != nil {
				t.Fatalf("sample %d: render error: %v", i, err)
			}
			shown = out.Frame
		}
		outputs = append(outputs, out)
	}
	return outputs
}

// TestIntegrationGaugeFlow counts 12 presses in a one minute window against a
// goal of 10 a minute and checks the gauge reaches 6 of 10 pixels.
func TestIntegrationGaugeFlow(t *testing.T) {
	settings := loadSettings(t, baseConfig+`
goal:
  target_rate: 10
rate:
  window: 1m
`)
	session := logic.NewSession(settings, startTime)
	driver := led.NewFakeDriver()

	samples := append(repeat(idle, 4), presses(12)...)
	samples = append(samples, repeat(idle, 1201-len(samples))...)
	outputs := drive(t, session, samples, driver)

	events := 0
	var window *logic.WindowResult
	goals := 0
	for _, out := range outputs {
		if out.Event != nil {
			events++
		}
		if out.Window != nil {
			window = out.Window
		}
		if out.GoalReached {
			goals++
		}
	}

	if events != 12 {
		t.Errorf("expected 12 events, got %d", events)
	}
	if goals != 1 {
		t.Errorf("expected goal reached once, got %d", goals)
	}
	if window == nil {
		t.Fatal("expected the window to close at one minute")
	}
	if window.Count != 12 || window.Rate != 12 {
		t.Errorf("window: got count=%d rate=%v, want 12 and 12", window.Count, window.Rate)
	}

	last := outputs[len(outputs)-1]
	if last.Deviation.Band != logic.BandAhead {
		t.Errorf("band: got %s, want AHEAD", last.Deviation.Band)
	}
	if last.Plan.Gauge.Lit != 6 {
		t.Errorf("gauge lit: got %d, want 6", last.Plan.Gauge.Lit)
	}

	want := "F 000000,000000,000000,000000,333300,333300,332400,331400,330000,330000;S0\n"
	if got := led.EncodeFrame(driver.Last()); got != want {
		t.Errorf("serial frame:\ngot  %q\nwant %q", got, want)
	}
}

// TestIntegrationDailyTotalCode shows a total of 105: a leading blank, one
// green, the tens placeholder blinking the status LED three times, then five red.
func TestIntegrationDailyTotalCode(t *testing.T) {
	settings := loadSettings(t, baseConfig)
	session := logic.NewSession(settings, startTime)
	driver := led.NewFakeDriver()

	samples := append(repeat(idle, 4), presses(105)...)
	samples = append(samples, repeat(showTotal, 4)...)
	samples = append(samples, repeat(idle, 300)...)
	outputs := drive(t, session, samples, driver)

	if session.Total() != 105 {
		t.Fatalf("Total: got %d, want 105", session.Total())
	}

	blank := logic.Frame{Pixels: make([]logic.Color, 10)}
	hundreds := logic.Frame{Pixels: make([]logic.Color, 10)}
	hundreds.Pixels[0] = logic.Color{G: 255}
	placeholder := logic.Frame{Pixels: make([]logic.Color, 10), Status: true}
	units := logic.Frame{Pixels: make([]logic.Color, 10)}
	for i := 0; i < 5; i++ {
		units.Pixels[i] = logic.Color{R: 255}
	}

	// The show press is confirmed two samples into the run; a second of blank
	// follows before the first digit.
	press := 4 + 8*105 + 2
	if !outputs[press+10].Frame.Equal(blank) {
		t.Errorf("expected the lead blank half a second after the press, got %+v", outputs[press+10].Frame)
	}
	if !outputs[press+24].Frame.Equal(hundreds) {
		t.Errorf("expected the hundreds digit after the lead, got %+v", outputs[press+24].Frame)
	}

	// Collect the distinct frames from the first digit on
	var seq []logic.Frame
	for _, out := range outputs {
		if len(seq) == 0 && !out.Frame.Equal(hundreds) {
			continue
		}
		if len(seq) == 0 || !out.Frame.Equal(seq[len(seq)-1]) {
			seq = append(seq, out.Frame)
		}
	}

	want := []logic.Frame{
		hundreds, blank,
		placeholder, blank, placeholder, blank, placeholder, blank,
		units, blank,
	}
	if len(seq) != len(want) {
		t.Fatalf("expected %d distinct frames, got %d: %+v", len(want), len(seq), seq)
	}
	for i := range want {
		if !seq[i].Equal(want[i]) {
			t.Errorf("frame %d: got %+v, want %+v", i, seq[i], want[i])
		}
	}
	if session.ShowingTotal() {
		t.Error("playback should have finished")
	}
}

func TestIntegrationSaturation(t *testing.T) {
	settings := loadSettings(t, baseConfig+`
goal:
  daily_max: 5
`)
	session := logic.NewSession(settings, startTime)

	samples := append(repeat(idle, 4), presses(7)...)
	outputs := drive(t, session, samples, led.NewFakeDriver())

	if session.Total() != 7 {
		t.Errorf("Total: got %d, want 7 (counting continues past the maximum)", session.Total())
	}
	code := outputs[len(outputs)-1].Plan.Code
	if code.Total != 5 || !code.Saturated {
		t.Errorf("code plan: got total=%d saturated=%v, want 5 and true", code.Total, code.Saturated)
	}
	if code.Groups[logic.GroupUnits].Digit != 5 {
		t.Errorf("units digit: got %d, want 5", code.Groups[logic.GroupUnits].Digit)
	}
}

func TestIntegrationNoEventsAtStartup(t *testing.T) {
	settings := loadSettings(t, baseConfig)
	session := logic.NewSession(settings, startTime)

	// Pad already powered when the daemon starts
	samples := append(repeat(active, 20), repeat(idle, 10)...)
	outputs := drive(t, session, samples, led.NewFakeDriver())

	for i, out := range outputs {
		if out.Event != nil {
			t.Errorf("sample %d: unexpected event", i)
		}
	}
	if session.Total() != 0 {
		t.Errorf("Total: got %d, want 0", session.Total())
	}
}

func TestIntegrationBounceRejection(t *testing.T) {
	settings := loadSettings(t, baseConfig)
	session := logic.NewSession(settings, startTime)

	// Single-sample glitches are shorter than the debounce
	samples := repeat(idle, 4)
	for i := 0; i < 10; i++ {
		samples = append(samples, active, idle, idle)
	}
	drive(t, session, samples, led.NewFakeDriver())

	if session.Total() != 0 {
		t.Errorf("Total: got %d, want 0", session.Total())
	}
}

func TestIntegrationRenderFailureDoesNotCrash(t *testing.T) {
	settings := loadSettings(t, baseConfig)
	session := logic.NewSession(settings, startTime)
	driver := led.NewFakeDriver()
	driver.RenderError = errors.New("unplugged")

	reader := gpio.NewFakeReader(append(repeat(idle, 4), presses(2)...))
	for i := range reader.Samples {
		signal, show, err := reader.Read()
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		out := session.Step(logic.Input{Signal: signal, ShowTotal: show, Time: startTime.Add(time.Duration(i) * pollInterval)})
		// Render errors are logged by the loop and never stop counting
		_ = driver.Render(out.Frame)
	}

	if session.Total() != 2 {
		t.Errorf("Total: got %d, want 2", session.Total())
	}
	if len(driver.Frames) != 0 {
		t.Errorf("expected no frames recorded, got %d", len(driver.Frames))
	}
}

func TestIntegrationConfigErrorFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally-gauge.yaml")
	if err := os.WriteFile(path, []byte("goal:\n  daily_max: 1000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	err = cfg.Validate()
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *config.Error, got %v", err)
	}
	if cfgErr.Field != "goal.daily_max" {
		t.Errorf("Field: got %q, want goal.daily_max", cfgErr.Field)
	}

	driver := led.NewFakeDriver()
	if err := driver.Render(logic.ErrorFrame(cfg.Display.Pixels)); err != nil {
		t.Fatal(err)
	}
	want := "F 330000,330000,330000,330000,330000,330000,330000,330000,330000,330000;S1\n"
	if got := led.EncodeFrame(driver.Last()); got != want {
		t.Errorf("error frame:\ngot  %q\nwant %q", got, want)
	}
}

func TestIntegrationStatusSnapshot(t *testing.T) {
	settings := loadSettings(t, baseConfig)
	session := logic.NewSession(settings, startTime)
	tracker := status.NewTracker(startTime, string(gpio.PrimaryPad), status.Config{DailyMax: settings.Goal.DailyMax})

	outputs := drive(t, session, append(repeat(idle, 4), presses(3)...), led.NewFakeDriver())
	last := outputs[len(outputs)-1]
	tracker.Update(session.IsBaselined(), session.ShowingTotal(), status.Counts{
		Total:       session.Total(),
		Displayed:   last.Plan.Code.Total,
		Saturated:   last.Plan.Code.Saturated,
		WindowCount: session.WindowCount(),
		DayStart:    session.DayStart(),
	}, last.Deviation, last.Frame.Lit())

	var parsed status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(tracker.SnapshotAt(startTime.Add(time.Minute))), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !parsed.Status.Ready {
		t.Error("expected ready")
	}
	if parsed.Status.Counts.Total != 3 || parsed.Status.Counts.Window != 3 {
		t.Errorf("counts: got %+v, want total 3 window 3", parsed.Status.Counts)
	}
	if parsed.Status.Pace.Band != "BEHIND" {
		t.Errorf("band: got %q, want BEHIND", parsed.Status.Pace.Band)
	}
	if parsed.Status.UptimeSeconds != 60 {
		t.Errorf("uptime: got %d, want 60", parsed.Status.UptimeSeconds)
	}
}
