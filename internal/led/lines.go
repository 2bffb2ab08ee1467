package led

import "github.com/sweeney/tally-gauge/internal/logic"

// lineValues maps a frame onto n discrete LED lines, plus a trailing status line
// when withStatus is set. A pixel drives its line high when it is not dark.
func lineValues(frame logic.Frame, n int, withStatus bool) []int {
	size := n
	if withStatus {
		size++
	}
	values := make([]int, size)
	for i := 0; i < n && i < len(frame.Pixels); i++ {
		if !frame.Pixels[i].IsOff() {
			values[i] = 1
		}
	}
	if withStatus && frame.Status {
		values[n] = 1
	}
	return values
}
