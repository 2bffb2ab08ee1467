package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/tally-gauge/internal/gpio"
	"github.com/sweeney/tally-gauge/internal/logic"
)

// Display modes for the coded lights.
const (
	ModeSequential   = "sequential"
	ModeSimultaneous = "simultaneous"
)

// Output drivers.
const (
	DriverNone   = "none"
	DriverGPIO   = "gpio"
	DriverSerial = "serial"
)

// Config represents the application configuration.
type Config struct {
	Goal      GoalConfig    `yaml:"goal"`
	Rate      RateConfig    `yaml:"rate"`
	Input     InputConfig   `yaml:"input"`
	Display   DisplayConfig `yaml:"display"`
	Output    OutputConfig  `yaml:"output"`
	Heartbeat time.Duration `yaml:"heartbeat"` // 0 disables
}

// GoalConfig contains the production goal.
type GoalConfig struct {
	TargetRate float64 `yaml:"target_rate"` // units per minute
	DailyMax   int     `yaml:"daily_max"`
}

// RateConfig contains rate window parameters.
type RateConfig struct {
	Window      time.Duration `yaml:"window"`
	Rolling     bool          `yaml:"rolling"`
	BehindBelow float64       `yaml:"behind_below"`
	AheadAbove  float64       `yaml:"ahead_above"`
	DayLength   time.Duration `yaml:"day_length"` // 0 disables the daily reset
}

// InputConfig contains GPIO input parameters.
type InputConfig struct {
	Chip     string        `yaml:"chip"`
	Source   string        `yaml:"source"` // auto, primary or backup
	Poll     time.Duration `yaml:"poll"`
	Debounce time.Duration `yaml:"debounce"`
	Holdoff  time.Duration `yaml:"holdoff"`
	Pins     PinsConfig    `yaml:"pins"`
}

// PinsConfig contains BCM line offsets for the inputs.
type PinsConfig struct {
	Pad        int `yaml:"pad"`
	Button     int `yaml:"button"`
	ModeSwitch int `yaml:"mode_switch"`
	ShowTotal  int `yaml:"show_total"`
}

// DisplayConfig contains the LED layout.
type DisplayConfig struct {
	Pixels     int           `yaml:"pixels"`
	GaugeLEDs  []int         `yaml:"gauge_leds"` // fill order
	FullScale  float64       `yaml:"full_scale"`
	Brightness float64       `yaml:"brightness"`
	Mode       string        `yaml:"mode"`
	Groups     []GroupConfig `yaml:"groups"` // hundreds, tens, units
	CodeHold   time.Duration `yaml:"code_hold"`
	CodeGap    time.Duration `yaml:"code_gap"`
	CodeLead   time.Duration `yaml:"code_lead"`  // blank before the first digit
	CodeBlink  time.Duration `yaml:"code_blink"` // each half of a placeholder blink
	// PlaceholderBlinks is how often a zero placeholder blinks the status LED;
	// 0 shows it as one steady frame.
	PlaceholderBlinks int           `yaml:"placeholder_blinks"`
	FlashFor          time.Duration `yaml:"flash_for"` // dim green fill per counted event
	CelebrateFor      time.Duration `yaml:"celebrate_for"`
	CelebrateStep     time.Duration `yaml:"celebrate_step"`
}

// GroupConfig places one digit group.
type GroupConfig struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"` // RRGGBB
	LEDs  []int  `yaml:"leds"`
}

// OutputConfig selects the LED driver.
type OutputConfig struct {
	Driver     string `yaml:"driver"`
	Chip       string `yaml:"chip"`
	Pins       []int  `yaml:"pins"`       // gpio: one line per pixel, strip order
	StatusPin  int    `yaml:"status_pin"` // gpio: -1 disables
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`
}

// Default returns a default configuration for a ten pixel ring: 120 units an
// hour, the gauge filling clockwise from pixel 9, digits on pixels 0-8.
func Default() *Config {
	digitLEDs := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	return &Config{
		Goal: GoalConfig{
			TargetRate: 2,
			DailyMax:   999,
		},
		Rate: RateConfig{
			Window:      10 * time.Minute,
			BehindBelow: logic.DefaultBands.Behind,
			AheadAbove:  logic.DefaultBands.Ahead,
			DayLength:   24 * time.Hour,
		},
		Input: InputConfig{
			Chip:     "gpiochip0",
			Source:   "auto",
			Poll:     10 * time.Millisecond,
			Debounce: 50 * time.Millisecond,
			Holdoff:  500 * time.Millisecond,
			Pins: PinsConfig{
				Pad:        gpio.DefaultPins.Pad,
				Button:     gpio.DefaultPins.Button,
				ModeSwitch: gpio.DefaultPins.ModeSwitch,
				ShowTotal:  gpio.DefaultPins.ShowTotal,
			},
		},
		Display: DisplayConfig{
			Pixels:     10,
			GaugeLEDs:  []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
			FullScale:  2,
			Brightness: 0.2,
			Mode:       ModeSequential,
			Groups: []GroupConfig{
				{Name: "hundreds", Color: "00FF00", LEDs: digitLEDs},
				{Name: "tens", Color: "FFFF00", LEDs: digitLEDs},
				{Name: "units", Color: "FF0000", LEDs: digitLEDs},
			},
			CodeHold:          3 * time.Second,
			CodeGap:           750 * time.Millisecond,
			CodeLead:          time.Second,
			CodeBlink:         750 * time.Millisecond,
			PlaceholderBlinks: 3,
			FlashFor:          100 * time.Millisecond,
			CelebrateFor:      2 * time.Second,
			CelebrateStep:     100 * time.Millisecond,
		},
		Output: OutputConfig{
			Driver:    DriverNone,
			Chip:      "gpiochip0",
			Pins:      []int{5, 6, 12, 13, 19, 16, 26, 20, 21, 4},
			StatusPin: 24,
			BaudRate:  115200,
		},
		Heartbeat: 15 * time.Minute,
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values. Goal values present in the file
// are kept as written so that Validate can reject them.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults fills in plumbing fields left empty. Goal and rate values are
// never defaulted here.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Input.Chip == "" {
		c.Input.Chip = def.Input.Chip
	}
	if c.Input.Source == "" {
		c.Input.Source = def.Input.Source
	}
	if c.Display.Mode == "" {
		c.Display.Mode = def.Display.Mode
	}
	if c.Output.Driver == "" {
		c.Output.Driver = def.Output.Driver
	}
	if c.Output.Chip == "" {
		c.Output.Chip = def.Output.Chip
	}
	if c.Output.BaudRate == 0 {
		c.Output.BaudRate = def.Output.BaudRate
	}
}

// Sequential reports whether digit groups are shown one after another.
func (d DisplayConfig) Sequential() bool {
	return d.Mode != ModeSimultaneous
}

// ParseColor parses an RRGGBB hex colour, with or without a leading '#'.
func ParseColor(s string) (logic.Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return logic.Color{}, fmt.Errorf("colour %q: want RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return logic.Color{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return logic.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Pins returns the input pins in gpio form.
func (c *Config) Pins() gpio.Pins {
	return gpio.Pins{
		Pad:        c.Input.Pins.Pad,
		Button:     c.Input.Pins.Button,
		ModeSwitch: c.Input.Pins.ModeSwitch,
		ShowTotal:  c.Input.Pins.ShowTotal,
	}
}

// Settings converts a validated configuration into session settings.
func (c *Config) Settings() (logic.Settings, error) {
	layout := logic.Layout{
		Pixels:     c.Display.Pixels,
		GaugeLEDs:  append([]int(nil), c.Display.GaugeLEDs...),
		FullScale:  c.Display.FullScale,
		Brightness: c.Display.Brightness,
		Sequential: c.Display.Sequential(),

		PlaceholderBlinks: c.Display.PlaceholderBlinks,
	}
	if len(c.Display.Groups) != len(layout.Groups) {
		return logic.Settings{}, fmt.Errorf("display.groups: want %d groups, got %d", len(layout.Groups), len(c.Display.Groups))
	}
	for i, g := range c.Display.Groups {
		color, err := ParseColor(g.Color)
		if err != nil {
			return logic.Settings{}, fmt.Errorf("display.groups[%d]: %w", i, err)
		}
		layout.Groups[i] = logic.CodeGroup{
			Name:  g.Name,
			Color: color,
			LEDs:  append([]int(nil), g.LEDs...),
		}
	}

	return logic.Settings{
		Goal: logic.Goal{
			TargetRate: c.Goal.TargetRate,
			DailyMax:   c.Goal.DailyMax,
		},
		Bands: logic.Bands{
			Behind: c.Rate.BehindBelow,
			Ahead:  c.Rate.AheadAbove,
		},
		Layout:        layout,
		Debounce:      c.Input.Debounce,
		Holdoff:       c.Input.Holdoff,
		Window:        c.Rate.Window,
		Rolling:       c.Rate.Rolling,
		DayLength:     c.Rate.DayLength,
		CodeHold:      c.Display.CodeHold,
		CodeGap:       c.Display.CodeGap,
		CodeLead:      c.Display.CodeLead,
		CodeBlink:     c.Display.CodeBlink,
		FlashFor:      c.Display.FlashFor,
		CelebrateFor:  c.Display.CelebrateFor,
		CelebrateStep: c.Display.CelebrateStep,
	}, nil
}
