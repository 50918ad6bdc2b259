package geometry

import (
	"math"

	"github.com/strommix/strommix/internal/scene"
	"github.com/strommix/strommix/internal/series"
)

// Band is one stacked category in value space.
type Band struct {
	Name   string
	Bottom []float64
	Top    []float64
}

// Stack is the cumulative layering of categories, bottom first.
type Stack struct {
	Bands []Band
	// Peak is the largest cumulative value reached at any sample.
	Peak float64
}

// BuildStack layers the named columns in order. Absent columns stack as zero.
func BuildStack(t *series.Table, order []string) Stack {
	n := t.Len()
	cum := make([]float64, n)
	running := make([]float64, n)
	for i := range running {
		running[i] = math.Inf(-1)
	}

	st := Stack{Bands: make([]Band, 0, len(order))}
	for _, name := range order {
		values := series.Numeric(t, name)
		b := Band{
			Name:   name,
			Bottom: append([]float64(nil), cum...),
			Top:    make([]float64, n),
		}
		for i, v := range values {
			cum[i] += v
			b.Top[i] = cum[i]
			running[i] = math.Max(running[i], cum[i])
		}
		st.Bands = append(st.Bands, b)
	}

	st.Peak = math.Inf(-1)
	for _, v := range running {
		st.Peak = math.Max(st.Peak, v)
	}
	if len(order) == 0 || n == 0 {
		st.Peak = 0
	}
	return st
}

// Outline returns the absolute canvas polygon of a band: the upper boundary
// left to right, then the lower boundary right to left.
func (f Frame) Outline(b Band) []scene.Point {
	n := len(f.XS)
	points := make([]scene.Point, 0, 2*n)
	for i := 0; i < n; i++ {
		points = append(points, scene.Point{X: f.XS[i], Y: f.Y(b.Top[i])})
	}
	for i := n - 1; i >= 0; i-- {
		points = append(points, scene.Point{X: f.XS[i], Y: f.Y(b.Bottom[i])})
	}
	return points
}

// AreaID is the stable id of a category's area primitive.
func AreaID(name string) string {
	return "area:" + name
}

// Areas builds one editable area primitive per band.
func Areas(f Frame, st Stack, th Theme) []scene.Primitive {
	out := make([]scene.Primitive, 0, len(st.Bands))
	for _, b := range st.Bands {
		origin, local := Normalize(f.Outline(b))
		out = append(out, scene.Primitive{
			ID:        AreaID(b.Name),
			Type:      scene.KindArea,
			Name:      b.Name,
			Placement: scene.At(origin.X, origin.Y),
			Style: scene.Style{
				Fill:        th.Color(b.Name),
				Stroke:      th.AreaStroke,
				StrokeWidth: th.AreaStrokeWidth,
				Opacity:     th.AreaOpacity,
			},
			Flags: scene.Editable(),
			Shape: &scene.Area{Points: local},
		})
	}
	return out
}
