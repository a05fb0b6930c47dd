package gate

import "sync/atomic"

// Throttle decides which frames are forwarded to the expensive secondary
// detector. It maintains a monotonic frame counter and signals on every
// Nth frame. The primary channel is never throttled.
//
// The counter is atomic: Frames is read from status goroutines while the
// frame loop calls Tick.
type Throttle struct {
	interval uint64
	counter  atomic.Uint64
}

// NewThrottle creates a throttle that fires every interval frames.
// Interval validity is enforced by Config.Validate.
func NewThrottle(interval int) *Throttle {
	return &Throttle{interval: uint64(interval)}
}

// Tick records one processed frame and reports whether this frame should
// be forwarded to the secondary channel (the 3rd, 6th, 9th... frame for
// interval 3).
func (t *Throttle) Tick() bool {
	return t.counter.Add(1)%t.interval == 0
}

// Frames returns the total number of frames observed.
func (t *Throttle) Frames() uint64 {
	return t.counter.Load()
}
