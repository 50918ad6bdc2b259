// Package assemble composes the initial scene from the category tables, the
// stack order, the selection and the display toggles.
package assemble

import (
	"errors"
	"math"

	"github.com/strommix/strommix/internal/geometry"
	"github.com/strommix/strommix/internal/scene"
	"github.com/strommix/strommix/internal/series"
)

// ErrNothingToDisplay is returned when neither an area nor the overlay
// would be drawn.
var ErrNothingToDisplay = errors.New("nothing to display")

type Toggles struct {
	Consumption bool `json:"consumption"`
	Axes        bool `json:"axes"`
	Labels      bool `json:"labels"`
	Icons       bool `json:"icons"`
}

// DefaultToggles is the state after a load: only the overlay is on.
func DefaultToggles() Toggles {
	return Toggles{Consumption: true}
}

type Input struct {
	Combined  *series.Table
	Aggregate *series.Table
	// OverlayColumn names the aggregate column drawn as the overlay line.
	OverlayColumn string

	Order     []string
	Selection []string
	Toggles   Toggles

	Layout geometry.Layout
	Theme  geometry.Theme
	Icons  []geometry.Icon
}

// Assemble builds the scene. Primitives are emitted bottom to top: areas,
// overlay, baseline, axes, labels, icons. The result depends only on in.
func Assemble(in Input) (*scene.Document, error) {
	n := in.Combined.Len()
	if n == 0 {
		return nil, ErrNothingToDisplay
	}

	stack := StackOrder(in.Order, in.Selection)

	var overlay []float64
	if in.Toggles.Consumption && in.Aggregate.Has(in.OverlayColumn) {
		overlay = series.Numeric(in.Aggregate, in.OverlayColumn)
		overlay = overlay[:min(len(overlay), n)]
	}

	if len(stack) == 0 && len(overlay) == 0 {
		return nil, ErrNothingToDisplay
	}

	st := geometry.BuildStack(in.Combined, stack)
	frame := geometry.NewFrame(in.Layout, n, st.Peak, overlay)

	doc := &scene.Document{
		Version: scene.FormatVersion,
		Width:   int(math.Round(in.Layout.Width)),
		Height:  int(math.Round(in.Layout.Height)),
	}
	areas := geometry.Areas(frame, st, in.Theme)
	doc.Objects = append(doc.Objects, areas...)

	if p, ok := geometry.Overlay(frame, in.OverlayColumn, overlay, in.Theme); ok {
		doc.Objects = append(doc.Objects, p)
	}
	if p, ok := geometry.Baseline(frame, in.Theme); ok {
		doc.Objects = append(doc.Objects, p)
	}
	if in.Toggles.Axes {
		doc.Objects = append(doc.Objects, geometry.Axes(frame, in.Combined.Timestamps, in.Theme)...)
	}
	if in.Toggles.Labels {
		doc.Objects = append(doc.Objects, geometry.Labels(areas, in.Theme)...)
	}
	if in.Toggles.Icons {
		doc.Objects = append(doc.Objects, geometry.Icons(in.Layout, in.Icons)...)
	}
	return doc, nil
}
