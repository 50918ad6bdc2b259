// Package chart renders the stacked mix as a conventional plot with
// time and value axes, alongside the editable canvas.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/strommix/strommix/internal/geometry"
	"github.com/strommix/strommix/internal/series"
)

var ErrNoSeries = errors.New("chart: no series")

type Input struct {
	Combined *series.Table
	// Stack is the bottom-to-top category order.
	Stack []string

	Overlay     []float64
	OverlayName string

	Theme  geometry.Theme
	Title  string
	YLabel string

	// Location is the zone tick dates are shown in; nil means UTC.
	Location *time.Location

	Width, Height vg.Length
	// Format is any gonum/plot image format: png, svg, pdf, ...
	Format string
}

// timeTicks labels unix-second x values as dates in loc.
func timeTicks(loc *time.Location) plot.TimeTicks {
	if loc == nil {
		loc = time.UTC
	}
	return plot.TimeTicks{
		Format: "Mon 02.01.",
		Time: func(t float64) time.Time {
			return time.Unix(int64(t), 0).In(loc)
		},
	}
}

// Render writes the stacked chart to w.
func Render(w io.Writer, in Input) error {
	n := in.Combined.Len()
	if n == 0 || (len(in.Stack) == 0 && len(in.Overlay) == 0) {
		return ErrNoSeries
	}

	p := plot.New()
	p.Title.Text = in.Title
	p.Y.Label.Text = in.YLabel
	p.X.Tick.Marker = timeTicks(in.Location)
	p.Legend.Top = true
	p.Legend.Left = true

	xs := make([]float64, n)
	for i, ts := range in.Combined.Timestamps {
		xs[i] = float64(ts.Unix())
	}

	st := geometry.BuildStack(in.Combined, in.Stack)
	for _, b := range st.Bands {
		outline := make(plotter.XYs, 0, 2*n)
		for i := 0; i < n; i++ {
			outline = append(outline, plotter.XY{X: xs[i], Y: b.Top[i]})
		}
		for i := n - 1; i >= 0; i-- {
			outline = append(outline, plotter.XY{X: xs[i], Y: b.Bottom[i]})
		}

		poly, err := plotter.NewPolygon(outline)
		if err != nil {
			return fmt.Errorf("chart %s: %w", b.Name, err)
		}
		fill, err := ParseHex(in.Theme.Color(b.Name))
		if err != nil {
			return fmt.Errorf("chart %s: %w", b.Name, err)
		}
		poly.Color = fill
		poly.LineStyle.Width = 0
		p.Add(poly)
		p.Legend.Add(b.Name, poly)
	}

	if m := min(len(in.Overlay), n); m > 0 {
		pts := make(plotter.XYs, m)
		for i := 0; i < m; i++ {
			pts[i] = plotter.XY{X: xs[i], Y: in.Overlay[i]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("chart overlay: %w", err)
		}
		stroke, err := ParseHex(in.Theme.OverlayStroke)
		if err != nil {
			return fmt.Errorf("chart overlay: %w", err)
		}
		line.LineStyle.Color = stroke
		line.LineStyle.Width = vg.Points(in.Theme.OverlayStrokeWidth / 2)
		p.Add(line)
		p.Legend.Add(in.OverlayName, line)
	}

	p.Y.Min = 0

	width, height := in.Width, in.Height
	if width <= 0 || height <= 0 {
		width, height = 24*vg.Centimeter, 12*vg.Centimeter
	}
	format := in.Format
	if format == "" {
		format = "png"
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("chart writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

// ParseHex parses #rgb, #rrggbb and #rrggbbaa colors.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 || !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, fmt.Errorf("parse color %q: want #rgb, #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
