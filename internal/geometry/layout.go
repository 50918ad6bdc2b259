// Package geometry turns numeric series into scene primitives whose local
// geometry is anchored at their own bounding-box minimum.
package geometry

import (
	"math"

	"github.com/strommix/strommix/internal/scene"
	"github.com/strommix/strommix/internal/series"
)

type Padding struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
}

// Layout is the plotting canvas in pixels.
type Layout struct {
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Padding Padding `yaml:"padding"`
}

func DefaultLayout() Layout {
	return Layout{
		Width:  1200,
		Height: 600,
		Padding: Padding{
			Top:    20,
			Bottom: 40,
			Left:   40,
			Right:  20,
		},
	}
}

// Baseline is the canvas y of value zero.
func (l Layout) Baseline() float64 {
	return l.Height - l.Padding.Bottom
}

func (l Layout) UsableHeight() float64 {
	return l.Height - l.Padding.Top - l.Padding.Bottom
}

// Samples returns n evenly spaced x coordinates from the left padding to the
// right padding, both ends included.
func (l Layout) Samples(n int) []float64 {
	if n <= 0 {
		return nil
	}
	start, end := l.Padding.Left, l.Width-l.Padding.Right
	xs := make([]float64, n)
	if n == 1 {
		xs[0] = start
		return xs
	}
	step := (end - start) / float64(n-1)
	for i := range xs {
		xs[i] = start + float64(i)*step
	}
	xs[n-1] = end
	return xs
}

// minValueSpan keeps the scale finite when everything is zero.
const minValueSpan = 1e-9

// Frame fixes the horizontal sampling and the vertical scale shared by every
// primitive of one scene.
type Frame struct {
	Layout Layout
	XS     []float64
	// YMax is the value mapped to the full usable height.
	YMax  float64
	Scale float64
}

// NewFrame derives the vertical scale from the stack peak, clamped to at
// least 1, and from the overlay maximum when an overlay is shown.
func NewFrame(l Layout, n int, stackPeak float64, overlay []float64) Frame {
	yMax := math.Max(1, stackPeak)
	if len(overlay) > 0 {
		yMax = math.Max(yMax, series.Max(overlay))
	}
	return Frame{
		Layout: l,
		XS:     l.Samples(n),
		YMax:   yMax,
		Scale:  l.UsableHeight() / math.Max(yMax, minValueSpan),
	}
}

// Y maps a value to canvas y.
func (f Frame) Y(v float64) float64 {
	return f.Layout.Baseline() - v*f.Scale
}

// Normalize re-expresses absolute points relative to their bounding-box
// minimum and returns that minimum as the origin.
func Normalize(points []scene.Point) (scene.Point, []scene.Point) {
	if len(points) == 0 {
		return scene.Point{}, nil
	}
	origin := points[0]
	for _, p := range points[1:] {
		origin.X = math.Min(origin.X, p.X)
		origin.Y = math.Min(origin.Y, p.Y)
	}
	local := make([]scene.Point, len(points))
	for i, p := range points {
		local[i] = scene.Point{X: p.X - origin.X, Y: p.Y - origin.Y}
	}
	return origin, local
}
