package led

import "github.com/sweeney/tally-gauge/internal/logic"

// FakeDriver records rendered frames for test assertions.
type FakeDriver struct {
	// Frames contains every frame that was rendered.
	Frames []logic.Frame

	// RenderError, if set, will be returned by Render.
	RenderError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDriver creates a FakeDriver for testing.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// Render records the frame.
func (f *FakeDriver) Render(frame logic.Frame) error {
	if f.RenderError != nil {
		return f.RenderError
	}
	f.Frames = append(f.Frames, frame)
	return nil
}

// Close marks the driver as closed.
func (f *FakeDriver) Close() error {
	f.Closed = true
	return nil
}

// Last returns the most recent frame, or an empty frame if none was rendered.
func (f *FakeDriver) Last() logic.Frame {
	if len(f.Frames) == 0 {
		return logic.Frame{}
	}
	return f.Frames[len(f.Frames)-1]
}
