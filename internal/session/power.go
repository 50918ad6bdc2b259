package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/strommix/strommix/internal/assemble"
	"github.com/strommix/strommix/internal/chart"
	"github.com/strommix/strommix/internal/series"
)

// PowerView is the JSON form of the category tables for a window.
type PowerView struct {
	Start      string               `json:"start"`
	End        string               `json:"end"`
	Timestamps []string             `json:"timestamps"`
	Combined   map[string][]float64 `json:"combined"`
	Balance    map[string][]float64 `json:"balance"`
	Aggregated map[string][]float64 `json:"aggregated"`
}

// LastFullWeek returns Monday 00:00 to the following Monday of the week
// before now, in loc.
func LastFullWeek(now time.Time, loc *time.Location) (time.Time, time.Time) {
	today := midnight(now.In(loc), loc)
	weekday := (int(today.Weekday()) + 6) % 7
	start := today.AddDate(0, 0, -(weekday + 7))
	return start, start.AddDate(0, 0, 7)
}

// Power fetches [start, end) without touching any session. Zero bounds
// select the last full week.
func (s *Service) Power(ctx context.Context, start, end time.Time) (PowerView, error) {
	if start.IsZero() || end.IsZero() {
		start, end = LastFullWeek(time.Now(), s.opts.Location)
	}
	if !end.After(start) {
		return PowerView{}, fmt.Errorf("%w: end must be after start", ErrInvalidRange)
	}

	split, err := s.fetch(ctx, start, end)
	if err != nil {
		return PowerView{}, err
	}

	ts := make([]string, split.Combined.Len())
	for i, t := range split.Combined.Timestamps {
		ts[i] = t.Format(time.RFC3339)
	}
	return PowerView{
		Start:      start.Format(time.DateOnly),
		End:        end.Format(time.DateOnly),
		Timestamps: ts,
		Combined:   columns(split.Combined),
		Balance:    columns(split.Balance),
		Aggregated: columns(split.Aggregate),
	}, nil
}

func columns(t *series.Table) map[string][]float64 {
	out := make(map[string][]float64)
	for _, name := range t.Columns() {
		out[name] = series.Numeric(t, name)
	}
	return out
}

// Chart renders the session's current stack as a conventional chart.
func (s *Service) Chart(id string, w io.Writer, format string) error {
	return s.with(id, func(st *State) error {
		if !st.loaded {
			return ErrNotLoaded
		}

		in := chart.Input{
			Combined: st.split.Combined,
			Stack:    assemble.StackOrder(st.order, st.selection),
			Theme:    s.opts.Theme,
			Title: fmt.Sprintf("%s - %s",
				st.start.Format("02.01.2006"), st.start.AddDate(0, 0, st.days-1).Format("02.01.2006")),
			YLabel:   s.opts.Theme.AxisTitle,
			Width:    24 * vg.Centimeter,
			Height:   12 * vg.Centimeter,
			Format:   format,
			Location: s.opts.Location,
		}
		if st.toggles.Consumption && st.split.Aggregate.Has(s.opts.OverlayColumn) {
			in.Overlay = series.Numeric(st.split.Aggregate, s.opts.OverlayColumn)
			in.OverlayName = s.opts.OverlayColumn
		}

		if err := chart.Render(w, in); err != nil {
			if errors.Is(err, chart.ErrNoSeries) {
				return fmt.Errorf("%w: %v", assemble.ErrNothingToDisplay, err)
			}
			return err
		}
		return nil
	})
}
