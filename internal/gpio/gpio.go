// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "fmt"

// Source identifies which physical input drives the counter.
type Source string

const (
	PrimaryPad   Source = "PRIMARY_PAD"
	BackupButton Source = "BACKUP_BUTTON"
)

// ParseSource converts a configured source name. "auto" and "" return an
// empty Source, meaning the mode switch decides at startup.
func ParseSource(s string) (Source, error) {
	switch s {
	case "", "auto":
		return "", nil
	case "primary", "pad":
		return PrimaryPad, nil
	case "backup", "button":
		return BackupButton, nil
	}
	return "", fmt.Errorf("unknown source %q (want auto, primary or backup)", s)
}

// Reader reads the counting input and the show-total button.
type Reader interface {
	// Read returns the logical states of the selected counting input and the
	// show-total button. Returns (signal, showTotal, error).
	Read() (bool, bool, error)

	// Source reports which input was selected at startup.
	Source() Source

	// Close releases GPIO resources.
	Close() error
}

// Pins holds BCM line offsets.
type Pins struct {
	Pad        int // external pad, active when voltage is supplied
	Button     int // backup/demo button
	ModeSwitch int // active selects the backup button
	ShowTotal  int
}

// Default pin definitions (BCM numbering)
var DefaultPins = Pins{
	Pad:        17,
	Button:     27,
	ModeSwitch: 22,
	ShowTotal:  23,
}

// SelectSource applies a forced source, falling back to the mode switch.
func SelectSource(forced Source, switchActive bool) Source {
	if forced != "" {
		return forced
	}
	if switchActive {
		return BackupButton
	}
	return PrimaryPad
}
