package geometry

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/strommix/strommix/internal/scene"
)

const (
	OverlayID  = "overlay"
	BaselineID = "baseline"

	dayTickLength   = 8
	majorTickLength = 6
)

func line(id, name string, abs []scene.Point, stroke string, width float64) scene.Primitive {
	origin, local := Normalize(abs)
	return scene.Primitive{
		ID:        id,
		Type:      scene.KindLine,
		Name:      name,
		Placement: scene.At(origin.X, origin.Y),
		Style:     scene.Style{Stroke: stroke, StrokeWidth: width, Opacity: 1},
		Flags:     scene.Locked(),
		Shape:     &scene.Line{Points: local},
	}
}

func text(id, content string, x, y float64, fill string, th Theme) scene.Primitive {
	return scene.Primitive{
		ID:        id,
		Type:      scene.KindText,
		Name:      id,
		Placement: scene.At(x, y),
		Style:     scene.Style{Fill: fill, Opacity: 1},
		Flags:     scene.Locked(),
		Shape: &scene.Text{
			Content:    content,
			FontSize:   th.FontSize,
			FontFamily: th.FontFamily,
		},
	}
}

// Overlay draws values as a locked polyline on the frame's scale. Values
// beyond the sample count are dropped.
func Overlay(f Frame, name string, values []float64, th Theme) (scene.Primitive, bool) {
	n := min(len(values), len(f.XS))
	if n == 0 {
		return scene.Primitive{}, false
	}
	abs := make([]scene.Point, n)
	for i := 0; i < n; i++ {
		abs[i] = scene.Point{X: f.XS[i], Y: f.Y(values[i])}
	}
	return line(OverlayID, name, abs, th.OverlayStroke, th.OverlayStrokeWidth), true
}

// Baseline is the zero line across the sampled range. It needs two samples.
func Baseline(f Frame, th Theme) (scene.Primitive, bool) {
	if len(f.XS) < 2 {
		return scene.Primitive{}, false
	}
	y := f.Layout.Baseline()
	abs := []scene.Point{{X: f.XS[0], Y: y}, {X: f.XS[len(f.XS)-1], Y: y}}
	return line(BaselineID, "baseline", abs, th.AxisStroke, 1), true
}

// Axes builds the y-axis line, day-boundary ticks, weekday labels, the zero
// label, the rotated axis title and at most one major tick.
func Axes(f Frame, timestamps []time.Time, th Theme) []scene.Primitive {
	l := f.Layout
	yb := l.Baseline()
	var out []scene.Primitive

	out = append(out, line("axis:y", "y-axis",
		[]scene.Point{{X: l.Padding.Left, Y: l.Padding.Top}, {X: l.Padding.Left, Y: yb}},
		th.AxisStroke, 1))

	n := min(len(timestamps), len(f.XS))
	for _, i := range DayBoundaries(timestamps[:n]) {
		x := f.XS[i]
		out = append(out, line(fmt.Sprintf("tick:day:%d", i), "day-tick",
			[]scene.Point{{X: x, Y: yb}, {X: x, Y: yb + dayTickLength}},
			th.AxisStroke, 1))
	}

	for _, i := range Middays(timestamps[:n]) {
		wd := th.Weekdays[timestamps[i].Weekday()]
		out = append(out, text(fmt.Sprintf("label:day:%d", i), wd,
			f.XS[i]-10, yb+th.FontSize, th.AxisFill, th))
	}

	out = append(out, text("label:zero", "0", l.Padding.Left-12, yb-6, th.AxisFill, th))

	title := text("label:title", th.AxisTitle, l.Padding.Left-54, l.Padding.Top+l.UsableHeight()/2, th.AxisFill, th)
	title.Placement.R = -90
	out = append(out, title)

	if th.MajorUnit > 0 {
		if units := math.Floor(f.YMax / th.MajorUnit); units >= 1 {
			y := f.Y(units * th.MajorUnit)
			out = append(out,
				line("tick:major", "major-tick",
					[]scene.Point{{X: l.Padding.Left - majorTickLength, Y: y}, {X: l.Padding.Left, Y: y}},
					th.AxisStroke, 1),
				text("label:major", fmt.Sprintf("%d %s", int(units), th.MajorUnitLabel),
					l.Padding.Left-44, y-6, th.AxisFill, th),
			)
		}
	}
	return out
}

// DayBoundaries returns the first sample index and every index whose
// calendar date differs from the previous sample.
func DayBoundaries(ts []time.Time) []int {
	var idx []int
	for i := range ts {
		if i == 0 || !sameDay(ts[i], ts[i-1]) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Middays returns, per calendar date in order of appearance, the index of
// the sample closest to 12:00 that day. Ties go to the earlier sample.
func Middays(ts []time.Time) []int {
	var idx []int
	for _, start := range DayBoundaries(ts) {
		t := ts[start]
		noon := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
		best, bestDist := -1, time.Duration(math.MaxInt64)
		for i := range ts {
			if !sameDay(ts[i], t) {
				continue
			}
			d := ts[i].Sub(noon)
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				best, bestDist = i, d
			}
		}
		if best >= 0 && !slices.Contains(idx, best) {
			idx = append(idx, best)
		}
	}
	return idx
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// LabelID is the stable id of a category's fixed label.
func LabelID(name string) string {
	return "label:" + name
}

// Labels places one locked text per area, 10px right of and 16px below the
// area's placement origin. Primitives that are not areas are ignored.
func Labels(areas []scene.Primitive, th Theme) []scene.Primitive {
	out := make([]scene.Primitive, 0, len(areas))
	for _, a := range areas {
		if a.Type != scene.KindArea {
			continue
		}
		out = append(out, text(LabelID(a.Name), a.Name, a.Placement.X+10, a.Placement.Y+16, th.LabelFill, th))
	}
	return out
}

// Icon is an opaque raster shown next to the plot.
type Icon struct {
	Name   string
	Src    string
	Width  float64
	Height float64
}

const (
	iconSize    = 72
	iconGap     = 12
	iconBacking = 6
)

// Icons places a white locked backing and a movable image per icon in a
// column along the right edge. Icons without a source are skipped.
func Icons(l Layout, icons []Icon) []scene.Primitive {
	var out []scene.Primitive
	left := l.Width - l.Padding.Right - iconSize - iconGap
	slot := 0
	for _, ic := range icons {
		if ic.Src == "" {
			continue
		}
		top := l.Padding.Top + iconGap + float64(slot)*(iconSize+iconGap)
		slot++

		side := float64(iconSize + 2*iconBacking)
		out = append(out, scene.Primitive{
			ID:        "icon-bg:" + ic.Name,
			Type:      scene.KindArea,
			Name:      "icon-bg:" + ic.Name,
			Placement: scene.At(left-iconBacking, top-iconBacking),
			Style:     scene.Style{Fill: "#FFFFFF", Opacity: 1},
			Flags:     scene.Locked(),
			Shape: &scene.Area{Points: []scene.Point{
				{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
			}},
		})

		scale := 1.0
		if ic.Width > 0 {
			scale = iconSize / ic.Width
		}
		p := scene.At(left, top)
		p.SX, p.SY = scale, scale
		out = append(out, scene.Primitive{
			ID:        "icon:" + ic.Name,
			Type:      scene.KindImage,
			Name:      "icon:" + ic.Name,
			Placement: p,
			Style:     scene.Style{Opacity: 1},
			Flags:     scene.Editable(),
			Shape:     &scene.Image{Src: ic.Src, Width: ic.Width, Height: ic.Height},
		})
	}
	return out
}
