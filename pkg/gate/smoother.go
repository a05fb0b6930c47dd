package gate

// RectSmoother applies exponential smoothing to bounding rectangle
// coordinates, reducing jitter from frame-to-frame detector variation.
// The first rectangle after a reset passes through unchanged and becomes
// the reference for subsequent blends.
type RectSmoother struct {
	alpha float64
	ref   *Rect
}

// NewRectSmoother creates a smoother with the given factor.
// Higher alpha = more weight on new readings, lower = smoother output.
// Alpha validity is enforced by the owning Gate's setter, not here.
func NewRectSmoother(alpha float64) *RectSmoother {
	return &RectSmoother{alpha: alpha}
}

// Smooth blends the incoming rectangle with the stored reference and
// updates the reference to the result.
func (s *RectSmoother) Smooth(incoming Rect) Rect {
	if s.ref == nil {
		r := incoming
		s.ref = &r
		return incoming
	}

	smoothed := lerp(*s.ref, incoming, s.alpha)
	s.ref = &smoothed
	return smoothed
}

// Reset clears the stored reference. The next rectangle passes through
// unchanged.
func (s *RectSmoother) Reset() {
	s.ref = nil
}

// Alpha returns the current smoothing factor.
func (s *RectSmoother) Alpha() float64 {
	return s.alpha
}

// setAlpha updates the smoothing factor. Range checking happens at the
// Gate boundary so misconfiguration is rejected, not clamped.
func (s *RectSmoother) setAlpha(alpha float64) {
	s.alpha = alpha
}
