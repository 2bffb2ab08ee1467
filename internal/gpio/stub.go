//go:build !linux

package gpio

import "errors"

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(chip string, pins Pins, forced Source) (*RealReader, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (bool, bool, error) {
	return false, false, errors.New("gpio: not supported")
}

// Source is not implemented on non-Linux platforms.
func (r *RealReader) Source() Source {
	return ""
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}
