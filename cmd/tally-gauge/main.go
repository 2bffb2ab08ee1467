// Command tally-gauge counts production events on a GPIO input and shows pace
// against a goal on an LED ring.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/tally-gauge/internal/config"
	"github.com/sweeney/tally-gauge/internal/gpio"
	"github.com/sweeney/tally-gauge/internal/led"
	"github.com/sweeney/tally-gauge/internal/logic"
	"github.com/sweeney/tally-gauge/internal/status"
)

// overrides holds flag values that replace config file values when set.
type overrides struct {
	set        map[string]bool
	poll       time.Duration
	debounce   time.Duration
	targetRate float64
	dailyMax   int
	driver     string
	source     string
	heartbeat  time.Duration
}

func main() {
	var o overrides
	configPath := flag.String("config", "/etc/tally-gauge.yaml", "Config file (missing file uses defaults)")
	flag.DurationVar(&o.poll, "poll", 10*time.Millisecond, "GPIO polling interval")
	flag.DurationVar(&o.debounce, "debounce", 50*time.Millisecond, "Debounce duration")
	flag.Float64Var(&o.targetRate, "target-rate", 2, "Goal in units per minute")
	flag.IntVar(&o.dailyMax, "daily-max", 999, "Largest displayable daily total (1-999)")
	flag.StringVar(&o.driver, "driver", config.DriverNone, "LED driver: none, gpio or serial")
	flag.StringVar(&o.source, "source", "auto", "Counting input: auto, primary or backup")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	printState := flag.Bool("print-state", false, "Print current state and exit")
	writeConfig := flag.String("write-config", "", "Write the effective config to this file and exit")

	flag.Parse()

	o.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if err := run(*configPath, o, *printState, *writeConfig); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// apply copies explicitly set flags onto cfg.
func (o overrides) apply(cfg *config.Config) {
	if o.set["poll"] {
		cfg.Input.Poll = o.poll
	}
	if o.set["debounce"] {
		cfg.Input.Debounce = o.debounce
	}
	if o.set["target-rate"] {
		cfg.Goal.TargetRate = o.targetRate
	}
	if o.set["daily-max"] {
		cfg.Goal.DailyMax = o.dailyMax
	}
	if o.set["driver"] {
		cfg.Output.Driver = o.driver
	}
	if o.set["source"] {
		cfg.Input.Source = o.source
	}
	if o.set["heartbeat"] {
		cfg.Heartbeat = o.heartbeat
	}
}

func run(configPath string, o overrides, printState bool, writeConfig string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	o.apply(cfg)

	if err := cfg.Validate(); err != nil {
		showConfigError(cfg)
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	if writeConfig != "" {
		if err := cfg.Save(writeConfig); err != nil {
			return err
		}
		log.Printf("wrote config to %s", writeConfig)
		return nil
	}

	settings, err := cfg.Settings()
	if err != nil {
		return fmt.Errorf("build settings: %w", err)
	}

	// Initialize GPIO
	forced, _ := gpio.ParseSource(cfg.Input.Source)
	gpioReader, err := gpio.NewRealReader(cfg.Input.Chip, cfg.Pins(), forced)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer gpioReader.Close()

	tracker := status.NewTracker(time.Now(), string(gpioReader.Source()), statusConfig(cfg))

	// Print state mode
	if printState {
		active, showTotal, err := gpioReader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		tracker.SetInputs(active, showTotal)
		fmt.Printf("%s\n", status.FormatJSON(tracker.Snapshot()))
		return nil
	}

	driver, err := openDriver(cfg)
	if err != nil {
		return fmt.Errorf("init led driver: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.Printf("led close error: %v", err)
		}
	}()

	log.Printf("status: %s", status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", ""))
	log.Printf("started: source=%s poll=%v debounce=%v goal=%.2f/min window=%v driver=%s heartbeat=%v",
		gpioReader.Source(), cfg.Input.Poll, cfg.Input.Debounce, cfg.Goal.TargetRate,
		cfg.Rate.Window, cfg.Output.Driver, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Input.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(gpioReader, driver, settings, tracker, cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

// openDriver returns the configured LED driver.
func openDriver(cfg *config.Config) (led.Driver, error) {
	switch cfg.Output.Driver {
	case config.DriverGPIO:
		d, err := led.NewGPIODriver(cfg.Output.Chip, cfg.Output.Pins, cfg.Output.StatusPin)
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.DriverSerial:
		d, err := led.NewSerialDriver(cfg.Output.SerialPort, cfg.Output.BaudRate, cfg.Display.Pixels)
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.DriverNone:
		return led.Nop{}, nil
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Output.Driver)
}

// showConfigError puts the error pattern on the LEDs if a driver can be opened.
// The driver is left open so the pattern stays up after exit.
func showConfigError(cfg *config.Config) {
	pixels := cfg.Display.Pixels
	if pixels <= 0 {
		pixels = config.Default().Display.Pixels
	}
	driver, err := openDriver(cfg)
	if err != nil {
		log.Printf("config error not shown on leds: %v", err)
		return
	}
	if err := driver.Render(logic.ErrorFrame(pixels)); err != nil {
		log.Printf("render error: %v", err)
	}
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		PollMs:      cfg.Input.Poll.Milliseconds(),
		DebounceMs:  cfg.Input.Debounce.Milliseconds(),
		HoldoffMs:   cfg.Input.Holdoff.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		WindowMs:    cfg.Rate.Window.Milliseconds(),
		Rolling:     cfg.Rate.Rolling,
		TargetRate:  cfg.Goal.TargetRate,
		DailyMax:    cfg.Goal.DailyMax,
		Driver:      cfg.Output.Driver,
	}
}

func runLoop(gpioReader gpio.Reader, driver led.Driver, settings logic.Settings, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	session := logic.NewSession(settings, now())

	var shown logic.Frame
	pushed := false

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			if tracker != nil {
				snap := tracker.SnapshotAt(now())
				log.Printf("status: %s", status.FormatStatusEvent(snap, "SHUTDOWN", signalName(s)))
			}
			return nil

		case <-tick:
			t := now()
			active, showTotal, err := gpioReader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			out := session.Step(logic.Input{
				Signal:    active,
				ShowTotal: showTotal,
				Time:      t,
			})

			if out.DayRollover {
				log.Printf("day rollover: counter reset")
			}
			if out.Event != nil {
				log.Printf("event: total=%d window=%d", session.Total(), session.WindowCount())
			}
			if out.Window != nil {
				log.Printf("window: count=%d rate=%.2f/min ratio=%.2f band=%s",
					out.Window.Count, out.Window.Rate, out.Deviation.Ratio, out.Deviation.Band)
			}
			if out.GoalReached {
				log.Printf("goal reached: %d in window", session.WindowCount())
			}

			// Only changed frames go to the LEDs; a failed render is retried next tick
			if !pushed || !out.Frame.Equal(shown) {
				if err := driver.Render(out.Frame); err != nil {
					log.Printf("render error: %v", err)
					if tracker != nil {
						tracker.SetDriverOK(false)
					}
				} else {
					shown = out.Frame
					pushed = true
					if tracker != nil {
						tracker.SetDriverOK(true)
					}
				}
			}

			if tracker != nil {
				tracker.SetInputs(active, showTotal)
				tracker.Update(session.IsBaselined(), session.ShowingTotal(), status.Counts{
					Total:       session.Total(),
					Displayed:   out.Plan.Code.Total,
					Saturated:   out.Plan.Code.Saturated,
					WindowCount: session.WindowCount(),
					DayStart:    session.DayStart(),
				}, out.Deviation, out.Frame.Lit())
			}

			if hb := session.CheckHeartbeat(t, heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v total=%d ratio=%.2f band=%s",
					hb.Uptime, hb.Total, hb.Deviation.Ratio, hb.Deviation.Band)
				if tracker != nil {
					log.Printf("status: %s", status.FormatStatusEvent(tracker.SnapshotAt(t), "HEARTBEAT", ""))
				}
			}
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
