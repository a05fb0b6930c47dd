package rangefinder

// minWindow keeps the last windowSize readings and reports their
// minimum, suppressing single-frame spikes from the radar. Not safe for
// concurrent use; the monitor loop is the only caller.
type minWindow struct {
	buf  []int
	next int
	full bool
}

func newMinWindow(size int) *minWindow {
	return &minWindow{buf: make([]int, size)}
}

// Push records a reading and returns the current window minimum.
func (w *minWindow) Push(v int) int {
	w.buf[w.next] = v
	w.next++
	if w.next == len(w.buf) {
		w.next = 0
		w.full = true
	}

	n := len(w.buf)
	if !w.full {
		n = w.next
	}
	min := w.buf[0]
	for _, r := range w.buf[1:n] {
		if r < min {
			min = r
		}
	}
	return min
}
