package gate

// Rect is an axis-aligned bounding rectangle in normalized image
// coordinates: x and y are the top-left corner, all fields in [0,1].
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the center point of the rectangle.
func (r Rect) Center() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area returns the area of the rectangle.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// WithPadding returns a new rectangle expanded on each side by the given
// ratio of its size. Used by overlay consumers to draw a margin around
// the tracked region.
func (r Rect) WithPadding(ratio float64) Rect {
	padX := r.Width * ratio
	padY := r.Height * ratio
	return Rect{
		X:      r.X - padX,
		Y:      r.Y - padY,
		Width:  r.Width + padX*2,
		Height: r.Height + padY*2,
	}
}

// lerp blends two rectangles componentwise: alpha*next + (1-alpha)*prev.
func lerp(prev, next Rect, alpha float64) Rect {
	return Rect{
		X:      alpha*next.X + (1-alpha)*prev.X,
		Y:      alpha*next.Y + (1-alpha)*prev.Y,
		Width:  alpha*next.Width + (1-alpha)*prev.Width,
		Height: alpha*next.Height + (1-alpha)*prev.Height,
	}
}
