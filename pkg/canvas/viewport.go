package canvas

import "math"

// Zoom limits and wheel sensitivity. The sign of ScrollFactor inverts the
// natural wheel direction so that scrolling up zooms in.
const (
	MinScale     = 1.0
	MaxScale     = 2.0
	ScrollFactor = -0.005
)

// Viewport owns the zoom factor of the surface. It is a presentation
// transform only: node and port coordinates are never scaled.
type Viewport struct {
	scale float64
}

// NewViewport returns a viewport at scale 1.
func NewViewport() *Viewport {
	return &Viewport{scale: MinScale}
}

// Scale returns the current zoom factor.
func (v *Viewport) Scale() float64 { return v.scale }

// OnScroll applies one wheel event. Out-of-range results are clamped and a
// non-finite delta is ignored.
func (v *Viewport) OnScroll(deltaY float64) {
	if !finite(deltaY) {
		return
	}
	v.scale = clamp(v.scale+deltaY*ScrollFactor, MinScale, MaxScale)
}

// SetScale sets the zoom factor, clamped to [MinScale, MaxScale]. NaN is
// ignored.
func (v *Viewport) SetScale(s float64) {
	if math.IsNaN(s) {
		return
	}
	v.scale = clamp(s, MinScale, MaxScale)
}

// Margin returns the margin, in percent of the viewport on each axis, that
// keeps the zoom anchored near the centre instead of the top-left corner.
func (v *Viewport) Margin() float64 {
	return (v.scale - 1.0) * 50
}

// ToScreen maps a canvas point to surface coordinates, scaling about origin.
func (v *Viewport) ToScreen(p, origin Point) Point {
	return Point{
		X: origin.X + (p.X-origin.X)*v.scale,
		Y: origin.Y + (p.Y-origin.Y)*v.scale,
	}
}

// ToWorld is the inverse of ToScreen.
func (v *Viewport) ToWorld(p, origin Point) Point {
	return Point{
		X: origin.X + (p.X-origin.X)/v.scale,
		Y: origin.Y + (p.Y-origin.Y)/v.scale,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
