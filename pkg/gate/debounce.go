package gate

import (
	"encoding/json"
	"fmt"
)

// TrackState is the debouncer's position in its persistence cycle.
type TrackState int

const (
	// StateCleared means no detection is being reported.
	StateCleared TrackState = iota
	// StateTracking means the last event carried a detection.
	StateTracking
	// StateLost means recent events were misses but the streak is still
	// below the persistence threshold, so the last-known detection is
	// still being reported.
	StateLost
)

// String returns a short label for logging.
func (s TrackState) String() string {
	switch s {
	case StateTracking:
		return "tracking"
	case StateLost:
		return "lost"
	default:
		return "cleared"
	}
}

// MarshalJSON encodes the state as its label.
func (s TrackState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state label.
func (s *TrackState) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	switch label {
	case "cleared":
		*s = StateCleared
	case "tracking":
		*s = StateTracking
	case "lost":
		*s = StateLost
	default:
		return fmt.Errorf("gate: unknown track state %q", label)
	}
	return nil
}

// Debouncer converts a raw, intermittent stream of per-frame detection
// events into a stable detected/not-detected signal for one channel.
//
// Momentary misses do not flip the public signal: the debouncer holds the
// last-known detection until the miss streak reaches the persistence
// threshold, then clears everything including the smoother reference.
type Debouncer struct {
	threshold int
	smoother  *RectSmoother

	state      TrackState
	missStreak int
	detected   bool
	region     *Rect
	payload    string
}

// NewDebouncer creates a debouncer that clears after threshold
// consecutive misses.
func NewDebouncer(threshold int, smoother *RectSmoother) *Debouncer {
	return &Debouncer{
		threshold: threshold,
		smoother:  smoother,
	}
}

// Observe feeds one raw detector event through the state machine.
func (d *Debouncer) Observe(ev Event) {
	if ev.Present {
		d.missStreak = 0
		d.state = StateTracking
		d.detected = true
		if ev.Payload != "" {
			d.payload = ev.Payload
		}
		if ev.Region != nil {
			smoothed := d.smoother.Smooth(*ev.Region)
			d.region = &smoothed
		}
		return
	}

	d.missStreak++
	if d.missStreak >= d.threshold {
		d.clear()
		return
	}

	// Within the persistence window: hold the last reported state.
	if d.state == StateTracking {
		d.state = StateLost
	}
}

// Disable forces an immediate transition to Cleared regardless of the
// current streak. Used when the channel is administratively switched off.
func (d *Debouncer) Disable() {
	d.clear()
}

// clear resets to the initial state: nothing detected, no geometry, no
// streak, and a fresh smoother reference.
func (d *Debouncer) clear() {
	d.state = StateCleared
	d.missStreak = 0
	d.detected = false
	d.region = nil
	d.payload = ""
	d.smoother.Reset()
}

// State returns the current debounce state.
func (d *Debouncer) State() TrackState {
	return d.state
}

// Detected reports whether the channel currently holds a stable detection.
func (d *Debouncer) Detected() bool {
	return d.detected
}

// Region returns a copy of the smoothed region, or nil if the channel has
// not seen a detection since its last reset.
func (d *Debouncer) Region() *Rect {
	if d.region == nil {
		return nil
	}
	r := *d.region
	return &r
}

// Payload returns the decoded payload from the last detection, if any.
func (d *Debouncer) Payload() string {
	return d.payload
}

// MissStreak returns the number of consecutive misses since the last
// detection.
func (d *Debouncer) MissStreak() int {
	return d.missStreak
}
