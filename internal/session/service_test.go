package session

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strommix/strommix/internal/assemble"
	"github.com/strommix/strommix/internal/geometry"
	"github.com/strommix/strommix/internal/scene"
	"github.com/strommix/strommix/internal/series"
	"github.com/strommix/strommix/internal/store"
	"github.com/strommix/strommix/internal/surface"
)

var day0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

type fakeProvider struct {
	table *series.Table
	err   error
	panic bool
	calls int
}

func (f *fakeProvider) Fetch(ctx context.Context, start, end time.Time) (*series.Table, error) {
	f.calls++
	if f.panic {
		panic("provider exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	w := f.table.Window(start, end)
	if w.Len() == 0 {
		return nil, series.ErrNotFound
	}
	return w, nil
}

// twoDays is 48 hourly rows with three generation categories, one balance
// column and the consumption aggregate.
func twoDays(t *testing.T) *series.Table {
	t.Helper()
	ts := make([]time.Time, 48)
	wind := make([]float64, 48)
	gas := make([]float64, 48)
	pv := make([]float64, 48)
	load := make([]float64, 48)
	imp := make([]float64, 48)
	for i := range ts {
		ts[i] = day0.Add(time.Duration(i) * time.Hour)
		wind[i] = 1000
		gas[i] = 500
		pv[i] = float64(i % 24 * 50)
		load[i] = 1800
		imp[i] = 100
	}
	tbl := series.NewTable(ts)
	require.NoError(t, tbl.AddFloats("Wind", wind))
	require.NoError(t, tbl.AddFloats("Gas", gas))
	require.NoError(t, tbl.AddFloats("Photovoltaik", pv))
	require.NoError(t, tbl.AddFloats("Stromverbrauch", load))
	require.NoError(t, tbl.AddFloats("Import", imp))
	return tbl
}

func newService(t *testing.T) (*Service, *fakeProvider) {
	t.Helper()
	p := &fakeProvider{table: twoDays(t)}
	split := series.ColumnSplit{Balance: []string{"Import"}, Aggregate: []string{"Stromverbrauch"}}
	return NewService(p, split.Transform, store.NewMemory(), DefaultOptions()), p
}

func loaded(t *testing.T) (*Service, string) {
	t.Helper()
	s, _ := newService(t)
	id := s.Create()
	_, err := s.Load(context.Background(), id, day0, 2)
	require.NoError(t, err)
	return s, id
}

func TestLoadResetsState(t *testing.T) {
	s, id := loaded(t)

	v, err := s.State(id)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, v.Status)
	assert.True(t, v.Loaded)
	assert.Equal(t, "2024-03-04", v.Start)
	assert.Equal(t, "2024-03-06", v.End)
	assert.Equal(t, []string{"Wind", "Gas", "Photovoltaik"}, v.Available)
	assert.Equal(t, []string{"Wind", "Photovoltaik", "Gas"}, v.Selection)
	assert.Equal(t, DefaultOptions().DefaultOrder, v.Order)
	assert.True(t, v.Toggles.Consumption)
}

func TestLoadRejectsBadRangeBeforeFetch(t *testing.T) {
	s, p := newService(t)
	id := s.Create()

	for _, days := range []int{0, -1, 8} {
		_, err := s.Load(context.Background(), id, day0, days)
		assert.ErrorIs(t, err, ErrInvalidRange)
		assert.Equal(t, StatusInvalidRange, StatusOf(err))
	}
	_, err := s.Load(context.Background(), id, time.Time{}, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Zero(t, p.calls)
}

func TestLoadFailureKeepsState(t *testing.T) {
	s, id := loaded(t)

	_, err := s.Load(context.Background(), id, day0.AddDate(5, 0, 0), 3)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, StatusNoData, StatusOf(err))

	v, err := s.State(id)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", v.Start)
	assert.Equal(t, 2, v.Days)
}

func TestLoadProviderFailures(t *testing.T) {
	cases := map[string]*fakeProvider{
		"error": {err: errors.New("upstream 500")},
		"panic": {panic: true},
		"empty": {table: series.NewTable(nil)},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewService(p, series.ColumnSplit{}.Transform, store.NewMemory(), DefaultOptions())
			id := s.Create()
			_, err := s.Load(context.Background(), id, day0, 1)
			assert.Equal(t, StatusNoData, StatusOf(err))

			v, err := s.State(id)
			require.NoError(t, err)
			assert.False(t, v.Loaded)
		})
	}
}

func TestLoadTransformFailure(t *testing.T) {
	p := &fakeProvider{table: twoDays(t)}
	broken := func(*series.Table) (series.Split, error) { panic("bad column map") }
	s := NewService(p, broken, store.NewMemory(), DefaultOptions())
	id := s.Create()

	_, err := s.Load(context.Background(), id, day0, 1)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSceneBeforeLoad(t *testing.T) {
	s, _ := newService(t)
	id := s.Create()

	_, err := s.Scene(id)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Equal(t, StatusNotLoaded, StatusOf(err))

	_, err = s.Scene("sess_unknown")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSceneIsBuiltOnce(t *testing.T) {
	s, id := loaded(t)

	first, err := s.Scene(id)
	require.NoError(t, err)
	assert.False(t, first.Reused)
	assert.Equal(t, 3, first.Document.Count(scene.KindArea))
	assert.NotNil(t, first.Document.Find(geometry.OverlayID))
	assert.NotNil(t, first.Document.Find(geometry.BaselineID))
	assert.Len(t, first.Document.Objects, 5)

	second, err := s.Scene(id)
	require.NoError(t, err)
	assert.Equal(t, first.Version, second.Version)
}

func TestEditsSurviveUntilInputsChange(t *testing.T) {
	s, id := loaded(t)

	sv, err := s.Scene(id)
	require.NoError(t, err)
	wind := geometry.AreaID("Wind")
	x0 := sv.Document.Find(wind).Placement.X

	_, _, err = s.Edit(id, wind, surface.Edit{Kind: surface.EditTranslate, DX: 25})
	require.NoError(t, err)

	sv, err = s.Scene(id)
	require.NoError(t, err)
	assert.Equal(t, x0+25, sv.Document.Find(wind).Placement.X)

	// Without a commit a toggle change regenerates the scene.
	_, err = s.SetToggles(id, assemble.Toggles{Consumption: true, Axes: true})
	require.NoError(t, err)
	sv, err = s.Scene(id)
	require.NoError(t, err)
	assert.False(t, sv.Reused)
	assert.Equal(t, x0, sv.Document.Find(wind).Placement.X)
	assert.NotNil(t, sv.Document.Find("axis:y"))

	// After an export the committed arrangement is reused.
	_, _, err = s.Edit(id, wind, surface.Edit{Kind: surface.EditTranslate, DX: 25})
	require.NoError(t, err)
	doc, err := s.Export(id)
	require.NoError(t, err)
	assert.Equal(t, x0+25, doc.Find(wind).Placement.X)

	_, err = s.SetToggles(id, assemble.Toggles{Consumption: true})
	require.NoError(t, err)
	sv, err = s.Scene(id)
	require.NoError(t, err)
	assert.True(t, sv.Reused)
	assert.Equal(t, x0+25, sv.Document.Find(wind).Placement.X)

	// Reordering the same set keeps the cache.
	_, err = s.Select(id, []string{"Gas", "Wind", "Photovoltaik"})
	require.NoError(t, err)
	sv, err = s.Scene(id)
	require.NoError(t, err)
	assert.Equal(t, x0+25, sv.Document.Find(wind).Placement.X)

	// A different set regenerates from the data.
	_, err = s.Select(id, []string{"Wind"})
	require.NoError(t, err)
	sv, err = s.Scene(id)
	require.NoError(t, err)
	assert.False(t, sv.Reused)
	assert.Equal(t, 1, sv.Document.Count(scene.KindArea))
	assert.Equal(t, x0, sv.Document.Find(wind).Placement.X)
}

func TestLockedPrimitivesRejectEdits(t *testing.T) {
	s, id := loaded(t)
	_, err := s.Scene(id)
	require.NoError(t, err)

	_, _, err = s.Edit(id, geometry.OverlayID, surface.Edit{Kind: surface.EditTranslate, DX: 5})
	assert.ErrorIs(t, err, surface.ErrLocked)
	assert.Equal(t, 403, HTTPStatus(err))

	_, _, err = s.Edit(id, "area:Kohle", surface.Edit{Kind: surface.EditTranslate, DX: 5})
	assert.ErrorIs(t, err, surface.ErrNotFound)
	assert.Equal(t, 404, HTTPStatus(err))
}

func TestSelectDropsUnknownNames(t *testing.T) {
	s, id := loaded(t)

	v, err := s.Select(id, []string{"Wind", "Atom", "Wind"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Wind"}, v.Selection)
}

func TestNothingSelected(t *testing.T) {
	s, id := loaded(t)

	v, err := s.Select(id, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, v.Status)

	sv, err := s.Scene(id)
	require.NoError(t, err)
	assert.Zero(t, sv.Document.Count(scene.KindArea))
	assert.NotNil(t, sv.Document.Find(geometry.OverlayID))

	v, err = s.SetToggles(id, assemble.Toggles{})
	require.NoError(t, err)
	assert.Equal(t, StatusNothingSelected, v.Status)

	_, err = s.Scene(id)
	assert.Equal(t, StatusNothingSelected, StatusOf(err))
	_, err = s.Export(id)
	assert.Equal(t, StatusNothingSelected, StatusOf(err))
}

func TestCommitReplacesLiveScene(t *testing.T) {
	s, id := loaded(t)
	sv, err := s.Scene(id)
	require.NoError(t, err)

	doc := sv.Document.Clone()
	wind := doc.Find(geometry.AreaID("Wind"))
	wind.Placement.R = 30

	committed, err := s.Commit(id, doc)
	require.NoError(t, err)
	assert.Equal(t, 30.0, committed.Document.Find(geometry.AreaID("Wind")).Placement.R)

	_, err = s.SetToggles(id, assemble.Toggles{Consumption: true, Labels: true})
	require.NoError(t, err)
	sv, err = s.Scene(id)
	require.NoError(t, err)
	assert.True(t, sv.Reused)
	assert.Equal(t, 30.0, sv.Document.Find(geometry.AreaID("Wind")).Placement.R)
}

func TestSnapshots(t *testing.T) {
	s, id := loaded(t)
	ctx := context.Background()
	wind := geometry.AreaID("Wind")

	_, err := s.Scene(id)
	require.NoError(t, err)
	_, _, err = s.Edit(id, wind, surface.Edit{Kind: surface.EditRotate, Degrees: 12})
	require.NoError(t, err)

	sum, err := s.SaveSnapshot(ctx, id, "  ")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", sum.Name)
	assert.Equal(t, 5, sum.Objects)

	list, err := s.ListSnapshots(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sum.ID, list[0].ID)

	_, err = s.Select(id, []string{"Gas"})
	require.NoError(t, err)
	_, err = s.Scene(id)
	require.NoError(t, err)

	sv, err := s.RestoreSnapshot(ctx, id, sum.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, sv.Document.Find(wind).Placement.R)

	v, err := s.State(id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Wind", "Photovoltaik", "Gas"}, v.Selection)

	_, err = s.RestoreSnapshot(ctx, id, "snap_missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	other := s.Create()
	empty, err := s.ListSnapshots(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPower(t *testing.T) {
	s, _ := newService(t)

	pv, err := s.Power(context.Background(), day0, day0.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, pv.Timestamps, 24)
	assert.Equal(t, "2024-03-04T00:00:00Z", pv.Timestamps[0])
	assert.Len(t, pv.Combined, 3)
	assert.Equal(t, 1000.0, pv.Combined["Wind"][0])
	assert.Contains(t, pv.Balance, "Import")
	assert.Contains(t, pv.Aggregated, "Stromverbrauch")

	_, err = s.Power(context.Background(), day0, day0)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestLastFullWeek(t *testing.T) {
	wed := time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC)
	start, end := LastFullWeek(wed, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), end)

	sun := time.Date(2024, 3, 17, 10, 0, 0, 0, time.UTC)
	start, _ = LastFullWeek(sun, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), start)
}

func TestChart(t *testing.T) {
	s, id := loaded(t)

	var buf bytes.Buffer
	require.NoError(t, s.Chart(id, &buf, "png"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	other := s.Create()
	assert.ErrorIs(t, s.Chart(other, &buf, "png"), ErrNotLoaded)
}

func TestPrune(t *testing.T) {
	s, _ := newService(t)
	id := s.Create()

	assert.Zero(t, s.Prune(time.Hour))
	assert.Equal(t, 1, s.Prune(-time.Second))
	_, err := s.State(id)
	assert.ErrorIs(t, err, ErrNoSession)
}
