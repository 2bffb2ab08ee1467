package led

import (
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"

	"github.com/sweeney/tally-gauge/internal/logic"
)

// DefaultBaudRate suits a 10 pixel frame at 100 frames per second with headroom.
const DefaultBaudRate = 115200

// SerialDriver sends frames to a pixel bridge microcontroller. Each frame is one
// text line: "F RRGGBB,RRGGBB,...;S1\n" where S carries the status LED.
type SerialDriver struct {
	conn   io.WriteCloser
	pixels int
}

// NewSerialDriver opens port and returns a driver for a strip of n pixels.
func NewSerialDriver(port string, baudRate, n int) (*SerialDriver, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	conn, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return newSerialDriver(conn, n), nil
}

func newSerialDriver(conn io.WriteCloser, n int) *SerialDriver {
	return &SerialDriver{conn: conn, pixels: n}
}

// Render writes the frame as one line.
func (d *SerialDriver) Render(frame logic.Frame) error {
	if _, err := io.WriteString(d.conn, EncodeFrame(frame)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close blanks the strip and closes the port.
func (d *SerialDriver) Close() error {
	blank := logic.Frame{Pixels: make([]logic.Color, d.pixels)}
	werr := d.Render(blank)
	if err := d.conn.Close(); err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return werr
}

// EncodeFrame formats a frame for the pixel bridge.
func EncodeFrame(frame logic.Frame) string {
	var b strings.Builder
	b.WriteString("F ")
	for i, c := range frame.Pixels {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%02X%02X%02X", c.R, c.G, c.B)
	}
	if frame.Status {
		b.WriteString(";S1\n")
	} else {
		b.WriteString(";S0\n")
	}
	return b.String()
}
