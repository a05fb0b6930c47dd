package gate

// Channel identifies which detection stream an event belongs to.
type Channel int

const (
	// Primary is the fast, synchronous per-frame marker detection.
	Primary Channel = iota
	// Secondary is the slower, asynchronous sampled classification.
	Secondary
)

// String returns a short label for logging.
func (c Channel) String() string {
	if c == Secondary {
		return "secondary"
	}
	return "primary"
}

// Event is one raw observation from a detector for one processed frame.
// Events are consumed immediately; the gate does not retain them.
type Event struct {
	// Present reports whether the detector found its target this frame.
	Present bool

	// Region is the detection's bounding rectangle in normalized
	// coordinates, nil when Present is false or the detector reports
	// no geometry.
	Region *Rect

	// Payload carries the decoded marker content for primary events.
	Payload string
}

// Miss is the event fed to a debouncer when a frame or request produced
// no detection. Transport failures on the secondary channel fold into
// the same value.
var Miss = Event{Present: false}

// ChannelSnapshot is a read-only view of one channel's debounced state.
type ChannelSnapshot struct {
	Detected   bool       `json:"detected"`
	Region     *Rect      `json:"region,omitempty"`
	Payload    string     `json:"payload,omitempty"`
	MissStreak int        `json:"miss_streak"`
	State      TrackState `json:"state"`
	Enabled    bool       `json:"enabled"`
}

// Snapshot is a read-only view of the whole gate, safe to hand to
// rendering or transport layers.
type Snapshot struct {
	Decision  bool            `json:"decision"`
	Primary   ChannelSnapshot `json:"primary"`
	Secondary ChannelSnapshot `json:"secondary"`
	Alpha     float64         `json:"alpha"`
}
