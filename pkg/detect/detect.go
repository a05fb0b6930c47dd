// Package detect defines the detector boundary: typed contracts for the
// marker scanner and the classification service, so the gating core never
// sees a wire format.
package detect

import (
	"context"

	"github.com/robotmark/gatekeeper/pkg/gate"
)

// Marker is a decoded marker observation from the primary scanner.
type Marker struct {
	// Payload is the decoded marker content.
	Payload string

	// Region is the marker's bounding rectangle in normalized
	// coordinates.
	Region gate.Rect
}

// Scanner decodes markers from camera frames. Implementations run
// synchronously, once per frame, and return nil when no target marker is
// visible.
type Scanner interface {
	// Scan finds the target marker in the JPEG frame.
	Scan(jpeg []byte) (*Marker, error)

	// Close releases resources.
	Close() error
}

// Detection is one object reported by a classification backend, in pixel
// coordinates with x,y at the box center (the convention the serverless
// API uses on the wire).
type Detection struct {
	Class      string
	Confidence float64
	X, Y       float64 // Center position in pixels
	Width      float64
	Height     float64
}

// Bounds returns the top-left corner and size in pixels.
func (d Detection) Bounds() (x, y, w, h float64) {
	return d.X - d.Width/2, d.Y - d.Height/2, d.Width, d.Height
}

// Result is the typed outcome of one classification request.
type Result struct {
	Detected  bool
	Detection *Detection

	// Frame dimensions, used to normalize the region.
	ImageWidth  int
	ImageHeight int
}

// Region converts the detection's bounding box to normalized [0,1]
// coordinates. Returns nil when nothing was detected or the frame
// dimensions are unknown.
func (r Result) Region() *gate.Rect {
	if !r.Detected || r.Detection == nil || r.ImageWidth <= 0 || r.ImageHeight <= 0 {
		return nil
	}
	x, y, w, h := r.Detection.Bounds()
	fw := float64(r.ImageWidth)
	fh := float64(r.ImageHeight)
	return &gate.Rect{
		X:      x / fw,
		Y:      y / fh,
		Width:  w / fw,
		Height: h / fh,
	}
}

// Classifier is the interface for classification backends (cloud
// workflow, local model). Calls are slow and run off the frame loop.
type Classifier interface {
	// Classify sends one JPEG frame for classification.
	Classify(ctx context.Context, jpeg []byte) (Result, error)

	// Close releases resources.
	Close() error
}

// SelectBest picks the highest-confidence detection of the target class,
// or nil if none match.
func SelectBest(dets []Detection, targetClass string) *Detection {
	var best *Detection
	for i := range dets {
		if dets[i].Class != targetClass {
			continue
		}
		if best == nil || dets[i].Confidence >= best.Confidence {
			best = &dets[i]
		}
	}
	return best
}
