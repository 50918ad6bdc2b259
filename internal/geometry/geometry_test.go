package geometry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strommix/strommix/internal/scene"
	"github.com/strommix/strommix/internal/series"
)

func hourly(t *testing.T, start time.Time, n int, cols map[string][]float64) *series.Table {
	t.Helper()
	ts := make([]time.Time, n)
	for i := range ts {
		ts[i] = start.Add(time.Duration(i) * time.Hour)
	}
	tbl := series.NewTable(ts)
	for name, values := range cols {
		require.NoError(t, tbl.AddFloats(name, values))
	}
	return tbl
}

func absolute(p scene.Primitive) []scene.Point {
	out := make([]scene.Point, 0, len(p.Points()))
	for _, pt := range p.Points() {
		out = append(out, scene.Point{X: pt.X + p.Placement.X, Y: pt.Y + p.Placement.Y})
	}
	return out
}

func TestSamples(t *testing.T) {
	l := DefaultLayout()

	xs := l.Samples(5)
	require.Len(t, xs, 5)
	assert.Equal(t, 40.0, xs[0])
	assert.Equal(t, 1180.0, xs[4])
	assert.InDelta(t, 325.0, xs[1], 1e-9)

	assert.Equal(t, []float64{40}, l.Samples(1))
	assert.Nil(t, l.Samples(0))
}

func TestBuildStackLayersAreContiguous(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tbl := hourly(t, start, 4, map[string][]float64{
		"Wind": {100, 200, 300, 400},
		"Gas":  {50, 50, 50, 50},
		"PV":   {0, 10, 0, 10},
	})

	st := BuildStack(tbl, []string{"Wind", "Gas", "PV"})
	require.Len(t, st.Bands, 3)
	for i := range st.Bands[0].Bottom {
		assert.Zero(t, st.Bands[0].Bottom[i])
	}
	for k := 1; k < len(st.Bands); k++ {
		assert.Equal(t, st.Bands[k-1].Top, st.Bands[k].Bottom, "band %d", k)
	}
	assert.Equal(t, []float64{150, 260, 350, 460}, st.Bands[2].Top)
	assert.Equal(t, 460.0, st.Peak)
}

func TestAreasAreAnchoredAtBoundingBoxMinimum(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tbl := hourly(t, start, 3, map[string][]float64{
		"Wind": {100, 300, 200},
		"Gas":  {50, 0, 80},
	})
	st := BuildStack(tbl, []string{"Wind", "Gas"})
	f := NewFrame(DefaultLayout(), tbl.Len(), st.Peak, nil)

	areas := Areas(f, st, DefaultTheme())
	require.Len(t, areas, 2)
	for k, a := range areas {
		pts := a.Points()
		require.Len(t, pts, 6)

		minX, minY := math.Inf(1), math.Inf(1)
		for _, p := range pts {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
		}
		assert.Zero(t, minX)
		assert.Zero(t, minY)

		outline := f.Outline(st.Bands[k])
		for i, p := range absolute(a) {
			assert.InDelta(t, outline[i].X, p.X, 1e-9)
			assert.InDelta(t, outline[i].Y, p.Y, 1e-9)
		}
	}

	assert.Equal(t, "area:Wind", areas[0].ID)
	assert.Equal(t, "#87ceebCC", areas[0].Style.Fill)
	assert.Equal(t, 0.9, areas[0].Style.Opacity)
	assert.Equal(t, scene.Editable(), areas[0].Flags)
}

func TestScaleUsesStackPeakAndOverlay(t *testing.T) {
	l := DefaultLayout()

	f := NewFrame(l, 10, 2000, nil)
	assert.InDelta(t, 540.0/2000, f.Scale, 1e-12)

	f = NewFrame(l, 10, 2000, []float64{1000, 3000})
	assert.Equal(t, 3000.0, f.YMax)
	assert.InDelta(t, 540.0/3000, f.Scale, 1e-12)
}

func TestScaleIsFiniteForAllZeroData(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tbl := hourly(t, start, 4, map[string][]float64{"Wind": {0, 0, 0, 0}})
	st := BuildStack(tbl, []string{"Wind"})
	f := NewFrame(DefaultLayout(), tbl.Len(), st.Peak, nil)

	assert.Equal(t, 1.0, f.YMax)
	assert.False(t, math.IsInf(f.Scale, 0))
	assert.False(t, math.IsNaN(f.Scale))
	for _, p := range f.Outline(st.Bands[0]) {
		assert.Equal(t, DefaultLayout().Baseline(), p.Y)
	}
}

func TestAbsentCategoryStacksAsZero(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tbl := hourly(t, start, 3, map[string][]float64{"Wind": {10, 20, 30}})

	st := BuildStack(tbl, []string{"Wind", "Biomasse"})
	require.Len(t, st.Bands, 2)
	assert.Equal(t, st.Bands[1].Bottom, st.Bands[1].Top)
}

func TestZeroCategoriesHasNoBands(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tbl := hourly(t, start, 3, map[string][]float64{"Wind": {10, 20, 30}})

	st := BuildStack(tbl, nil)
	assert.Empty(t, st.Bands)
	assert.Zero(t, st.Peak)
	assert.Empty(t, Areas(NewFrame(DefaultLayout(), 3, st.Peak, nil), st, DefaultTheme()))
}

func TestTwoRowSingleCategory(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tbl := hourly(t, start, 2, map[string][]float64{"Wind": {10, 30}})
	st := BuildStack(tbl, []string{"Wind"})
	f := NewFrame(DefaultLayout(), tbl.Len(), st.Peak, nil)

	assert.InDelta(t, 540.0/30, f.Scale, 1e-12)

	areas := Areas(f, st, DefaultTheme())
	require.Len(t, areas, 1)
	abs := absolute(areas[0])
	require.Len(t, abs, 4)
	assert.InDelta(t, 40, abs[0].X, 1e-9)
	assert.InDelta(t, 560-10*540.0/30, abs[0].Y, 1e-9)
	assert.InDelta(t, 1180, abs[1].X, 1e-9)
	assert.InDelta(t, 20, abs[1].Y, 1e-9)
	assert.InDelta(t, 560, abs[2].Y, 1e-9)
	assert.InDelta(t, 560, abs[3].Y, 1e-9)
	assert.Equal(t, scene.At(40, 20), areas[0].Placement)
}

func TestUpperBandSitsOnLowerBand(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tbl := hourly(t, start, 2, map[string][]float64{
		"Wind":  {10, 10},
		"Solar": {5, 5},
	})
	st := BuildStack(tbl, []string{"Wind", "Solar"})
	f := NewFrame(DefaultLayout(), tbl.Len(), st.Peak, nil)

	assert.InDelta(t, 540.0/15, f.Scale, 1e-12)

	areas := Areas(f, st, DefaultTheme())
	require.Len(t, areas, 2)
	wind, solar := absolute(areas[0]), absolute(areas[1])
	require.Len(t, wind, 4)
	require.Len(t, solar, 4)

	// Solar's lower edge runs right to left over Wind's upper edge.
	for i := 0; i < 2; i++ {
		assert.InDelta(t, wind[i].X, solar[3-i].X, 1e-9)
		assert.InDelta(t, wind[i].Y, solar[3-i].Y, 1e-9)
	}
	assert.InDelta(t, 20, solar[0].Y, 1e-9)
}

func TestOverlayIsTruncatedAndLocked(t *testing.T) {
	f := NewFrame(DefaultLayout(), 3, 100, nil)

	p, ok := Overlay(f, "Stromverbrauch", []float64{10, 20, 30, 40, 50}, DefaultTheme())
	require.True(t, ok)
	assert.Len(t, p.Points(), 3)
	assert.True(t, p.Flags.IsLocked())
	assert.Equal(t, "#ff0000", p.Style.Stroke)
	assert.Equal(t, 4.0, p.Style.StrokeWidth)

	_, ok = Overlay(f, "Stromverbrauch", nil, DefaultTheme())
	assert.False(t, ok)
}

func TestBaselineNeedsTwoSamples(t *testing.T) {
	_, ok := Baseline(NewFrame(DefaultLayout(), 1, 1, nil), DefaultTheme())
	assert.False(t, ok)

	p, ok := Baseline(NewFrame(DefaultLayout(), 4, 1, nil), DefaultTheme())
	require.True(t, ok)
	assert.Equal(t, scene.At(40, 560), p.Placement)
	assert.Equal(t, []scene.Point{{X: 0, Y: 0}, {X: 1140, Y: 0}}, p.Points())
}

func TestDayBoundariesAndMiddays(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // Monday
	ts := make([]time.Time, 48)
	for i := range ts {
		ts[i] = start.Add(time.Duration(i) * time.Hour)
	}

	assert.Equal(t, []int{0, 24}, DayBoundaries(ts))
	assert.Equal(t, []int{12, 36}, Middays(ts))
}

func TestAxesMajorTick(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	ts := []time.Time{start, start.Add(time.Hour)}
	th := DefaultTheme()

	below := Axes(NewFrame(DefaultLayout(), 2, 999, nil), ts, th)
	for _, p := range below {
		assert.NotEqual(t, "tick:major", p.ID)
	}

	f := NewFrame(DefaultLayout(), 2, 2500, nil)
	var label *scene.Text
	var tickY float64
	for _, p := range Axes(f, ts, th) {
		assert.True(t, p.Flags.IsLocked(), p.ID)
		switch p.ID {
		case "label:major":
			label = p.Shape.(*scene.Text)
		case "tick:major":
			tickY = p.Placement.Y
		case "label:day:1":
			assert.Equal(t, "Mo", p.Shape.(*scene.Text).Content)
		case "label:title":
			assert.Equal(t, -90.0, p.Placement.R)
		}
	}
	require.NotNil(t, label)
	assert.Equal(t, "2 GW", label.Content)
	assert.InDelta(t, 560-2000*540.0/2500, tickY, 1e-9)
}

func TestLabelsFollowAreaOrigins(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tbl := hourly(t, start, 3, map[string][]float64{
		"Wind": {100, 300, 200},
		"Gas":  {50, 0, 80},
	})
	st := BuildStack(tbl, []string{"Wind", "Gas"})
	areas := Areas(NewFrame(DefaultLayout(), tbl.Len(), st.Peak, nil), st, DefaultTheme())

	labels := Labels(areas, DefaultTheme())
	require.Len(t, labels, 2)
	for i, a := range areas {
		l := labels[i]
		assert.Equal(t, LabelID(a.Name), l.ID)
		assert.Equal(t, scene.At(a.Placement.X+10, a.Placement.Y+16), l.Placement)
		assert.True(t, l.Flags.IsLocked())
		assert.Equal(t, a.Name, l.Shape.(*scene.Text).Content)
	}
	assert.NotEqual(t, labels[0].Placement, labels[1].Placement)

	assert.Empty(t, Labels([]scene.Primitive{{ID: "overlay", Type: scene.KindLine}}, DefaultTheme()))
}

func TestIcons(t *testing.T) {
	icons := Icons(DefaultLayout(), []Icon{
		{Name: "wind", Src: "data:image/png;base64,AAAA", Width: 256, Height: 256},
		{Name: "missing"},
		{Name: "sun", Src: "data:image/png;base64,BBBB", Width: 256, Height: 256},
	})
	require.Len(t, icons, 4)

	bg, img := icons[0], icons[1]
	assert.Equal(t, scene.KindArea, bg.Type)
	assert.True(t, bg.Flags.IsLocked())
	assert.Equal(t, scene.KindImage, img.Type)
	assert.Equal(t, scene.Editable(), img.Flags)
	assert.Equal(t, 1096.0, img.Placement.X)
	assert.Equal(t, 32.0, img.Placement.Y)
	assert.InDelta(t, 72.0/256, img.Placement.SX, 1e-12)

	assert.Equal(t, 116.0, icons[3].Placement.Y)
}

func TestWeekdayNames(t *testing.T) {
	assert.Equal(t, "Mo", WeekdayNames("de-AT")[time.Monday])
	assert.Equal(t, "Tu", WeekdayNames("en-GB")[time.Tuesday])
	assert.Equal(t, "So", WeekdayNames("xx")[time.Sunday])
}
