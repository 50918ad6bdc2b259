package engine

import (
	"math"

	"github.com/strommix/strommix/internal/scene"
)

// Matrix2D is an affine transform [a, b, c, d, e, f] mapping (x, y) to
// (a*x + c*y + e, b*x + d*y + f). It uses the argument order of the canvas
// setTransform call so draw commands can pass it through unchanged.
type Matrix2D [6]float64

// FromPlacement composes translate(x, y) * rotate(r) * scale(sx, sy), so
// local geometry is scaled and rotated about its origin, then moved.
func FromPlacement(p scene.Placement) Matrix2D {
	rad := p.R * math.Pi / 180.0
	cos := math.Cos(rad)
	sin := math.Sin(rad)

	return Matrix2D{
		cos * p.SX,  // a
		sin * p.SX,  // b
		-sin * p.SY, // c
		cos * p.SY,  // d
		p.X,         // e
		p.Y,         // f
	}
}

// Apply maps a local point into world space.
func (m Matrix2D) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Inverse returns the world-to-local transform. ok is false when a zero
// scale collapses the placement.
func (m Matrix2D) Inverse() (inv Matrix2D, ok bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 || math.IsNaN(det) {
		return Matrix2D{}, false
	}
	return Matrix2D{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, true
}

// Bounds returns the axis-aligned box around r after transformation.
func (m Matrix2D) Bounds(r Rect) Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{
		{r.X, r.Y},
		{r.X + r.Width, r.Y},
		{r.X + r.Width, r.Y + r.Height},
		{r.X, r.Y + r.Height},
	} {
		x, y := m.Apply(c[0], c[1])
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (m Matrix2D) ToSlice() []float64 {
	return m[:]
}

// IsIdentity reports whether m leaves points in place (within epsilon).
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	for i, want := range [6]float64{1, 0, 0, 1, 0, 0} {
		if math.Abs(m[i]-want) >= eps {
			return false
		}
	}
	return true
}
