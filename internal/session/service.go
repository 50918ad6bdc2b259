// Package session keeps one editing session per client: the loaded
// category tables, the stack order and selection, the display toggles, the
// reuse cache and the live surface.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/strommix/strommix/internal/assemble"
	"github.com/strommix/strommix/internal/geometry"
	"github.com/strommix/strommix/internal/scene"
	"github.com/strommix/strommix/internal/series"
	"github.com/strommix/strommix/internal/store"
	"github.com/strommix/strommix/internal/surface"
	"github.com/strommix/strommix/internal/typeid"
)

type Options struct {
	Layout        geometry.Layout
	Theme         geometry.Theme
	OverlayColumn string
	DefaultOrder  []string
	Icons         []geometry.Icon
	FetchTimeout  time.Duration
	MaxDays       int
	Location      *time.Location
}

func DefaultOptions() Options {
	return Options{
		Layout:        geometry.DefaultLayout(),
		Theme:         geometry.DefaultTheme(),
		OverlayColumn: "Stromverbrauch",
		DefaultOrder:  []string{"Andere", "Wasserkraft", "Biomasse", "Wind", "Photovoltaik", "Kohle und Öl", "Gas"},
		FetchTimeout:  10 * time.Second,
		MaxDays:       7,
		Location:      time.UTC,
	}
}

// State is one session. Every field is guarded by mu; the surface is only
// mutated while mu is held or through its own locked edit methods.
type State struct {
	mu sync.Mutex

	ID            string
	lastUsed      time.Time
	overlayColumn string

	loaded bool
	start  time.Time
	days   int
	split  series.Split

	order     []string
	selection []string
	toggles   assemble.Toggles

	cache   assemble.ReuseCache
	surface *surface.Surface
	// shown is the selection the surface scene was generated for.
	shown []string
	// stale is set when the surface no longer matches the inputs.
	stale bool
}

// View is the externally visible session state.
type View struct {
	Status    Status           `json:"status"`
	SessionID string           `json:"sessionId"`
	Loaded    bool             `json:"loaded"`
	Start     string           `json:"start,omitempty"`
	End       string           `json:"end,omitempty"`
	Days      int              `json:"days,omitempty"`
	Available []string         `json:"available"`
	Order     []string         `json:"order"`
	Selection []string         `json:"selection"`
	Toggles   assemble.Toggles `json:"toggles"`
	Version   uint64           `json:"version"`
}

// SceneView is the live scene together with how it was obtained.
type SceneView struct {
	Document *scene.Document `json:"scene"`
	Reused   bool            `json:"reused"`
	Version  uint64          `json:"version"`
}

type Service struct {
	provider  series.Provider
	transform series.Transform
	store     store.Store
	opts      Options

	mu       sync.RWMutex
	sessions map[string]*State
}

func NewService(provider series.Provider, transform series.Transform, st store.Store, opts Options) *Service {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 7
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		provider:  provider,
		transform: transform,
		store:     st,
		opts:      opts,
		sessions:  make(map[string]*State),
	}
}

// Create opens an empty session and returns its id.
func (s *Service) Create() string {
	st := &State{
		ID:            typeid.NewSessionID(),
		lastUsed:      time.Now(),
		overlayColumn: s.opts.OverlayColumn,
		order:         slices.Clone(s.opts.DefaultOrder),
		toggles:       assemble.DefaultToggles(),
		surface:       surface.New(),
	}

	s.mu.Lock()
	s.sessions[st.ID] = st
	s.mu.Unlock()

	slog.Info("session created", "session", st.ID)
	return st.ID
}

// Prune drops sessions idle for longer than maxIdle.
func (s *Service) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, st := range s.sessions {
		st.mu.Lock()
		idle := st.lastUsed.Before(cutoff)
		st.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// with runs fn with the session locked.
func (s *Service) with(id string, fn func(st *State) error) error {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSession, id)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastUsed = time.Now()
	return fn(st)
}

// State returns the session's view.
func (s *Service) State(id string) (View, error) {
	var v View
	err := s.with(id, func(st *State) error {
		v = st.view()
		return nil
	})
	return v, err
}

// Load fetches [start, start+days) and resets the session to it. On any
// failure the previous state is kept.
func (s *Service) Load(ctx context.Context, id string, start time.Time, days int) (View, error) {
	if start.IsZero() || days < 1 || days > s.opts.MaxDays {
		return View{}, fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidRange, s.opts.MaxDays)
	}
	start = midnight(start, s.opts.Location)
	end := start.AddDate(0, 0, days)

	var v View
	err := s.with(id, func(st *State) error {
		split, err := s.fetch(ctx, start, end)
		if err != nil {
			slog.Warn("load failed", "session", id, "start", start, "days", days, "error", err)
			return err
		}

		available := split.Combined.Columns()
		st.loaded = true
		st.start = start
		st.days = days
		st.split = split
		st.order = slices.Clone(s.opts.DefaultOrder)
		st.selection = nil
		for _, name := range st.order {
			if slices.Contains(available, name) {
				st.selection = append(st.selection, name)
			}
		}
		st.toggles.Consumption = true
		st.cache.Invalidate()
		st.surface.Reset()
		st.shown = nil
		st.stale = true

		slog.Info("session loaded", "session", id, "start", start.Format(time.DateOnly), "days", days, "rows", split.Combined.Len())
		v = st.view()
		return nil
	})
	return v, err
}

// fetch runs the provider and the transform. Every failure reads as no data.
func (s *Service) fetch(ctx context.Context, start, end time.Time) (series.Split, error) {
	res := series.Fetch(ctx, s.provider, start, end, s.opts.FetchTimeout)
	if !res.OK() {
		return series.Split{}, fmt.Errorf("%w: fetch %s: %v", ErrNoData, res.Reason, res.Err)
	}
	split, err := series.SafeTransform(s.transform, res.Table)
	if err != nil {
		return series.Split{}, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	if split.Combined.Empty() {
		return series.Split{}, fmt.Errorf("%w: no combined categories", ErrNoData)
	}
	return split, nil
}

// Select sets the category selection. Unknown names are dropped. A changed
// set invalidates the reuse cache and reorders the stack.
func (s *Service) Select(id string, names []string) (View, error) {
	var v View
	err := s.with(id, func(st *State) error {
		if !st.loaded {
			return ErrNotLoaded
		}
		available := st.split.Combined.Columns()
		var selection []string
		for _, name := range names {
			if slices.Contains(available, name) && !slices.Contains(selection, name) {
				selection = append(selection, name)
			}
		}

		if !assemble.SameSet(selection, st.selection) {
			st.cache.Invalidate()
			st.stale = true
		}
		st.selection = selection
		st.order = assemble.Reorder(st.order, selection)
		v = st.view()
		return nil
	})
	return v, err
}

// SetToggles changes the display toggles. The reuse cache is kept.
func (s *Service) SetToggles(id string, t assemble.Toggles) (View, error) {
	var v View
	err := s.with(id, func(st *State) error {
		if st.toggles != t {
			st.toggles = t
			st.stale = true
		}
		v = st.view()
		return nil
	})
	return v, err
}

// Scene returns the live scene, running one build-or-reuse cycle first if
// the inputs changed since the surface was filled.
func (s *Service) Scene(id string) (SceneView, error) {
	var sv SceneView
	err := s.with(id, func(st *State) error {
		var err error
		sv, err = s.refresh(st)
		return err
	})
	return sv, err
}

func (s *Service) refresh(st *State) (SceneView, error) {
	if !st.loaded {
		return SceneView{}, ErrNotLoaded
	}
	if !st.stale && st.surface.Loaded() {
		return SceneView{Document: st.surface.Snapshot(), Version: st.surface.Version()}, nil
	}

	doc, reused, err := st.cache.Decide(st.selection, func() (*scene.Document, error) {
		return assemble.Assemble(s.input(st))
	})
	if err != nil {
		st.surface.Reset()
		st.shown = nil
		st.stale = false
		return SceneView{}, err
	}

	st.surface.Load(doc)
	st.shown = slices.Clone(st.selection)
	st.stale = false
	slog.Debug("scene built", "session", st.ID, "reused", reused, "objects", len(doc.Objects))
	return SceneView{Document: st.surface.Snapshot(), Reused: reused, Version: st.surface.Version()}, nil
}

func (s *Service) input(st *State) assemble.Input {
	return assemble.Input{
		Combined:      st.split.Combined,
		Aggregate:     st.split.Aggregate,
		OverlayColumn: s.opts.OverlayColumn,
		Order:         st.order,
		Selection:     st.selection,
		Toggles:       st.toggles,
		Layout:        s.opts.Layout,
		Theme:         s.opts.Theme,
		Icons:         s.opts.Icons,
	}
}

// Commit captures the live scene in the reuse cache. A non-nil doc first
// replaces the live scene, as pushed by a client-side surface.
func (s *Service) Commit(id string, doc *scene.Document) (SceneView, error) {
	var sv SceneView
	err := s.with(id, func(st *State) error {
		if !st.loaded {
			return ErrNotLoaded
		}
		if doc != nil {
			if st.stale || !st.surface.Loaded() {
				st.shown = slices.Clone(st.selection)
			}
			st.surface.Load(doc)
			st.stale = false
		}
		if !st.surface.Loaded() {
			return surface.ErrNoScene
		}
		snap := st.surface.Snapshot()
		st.cache.Store(st.shown, snap)
		sv = SceneView{Document: snap, Version: st.surface.Version()}
		return nil
	})
	return sv, err
}

// Export returns the live scene for serialization and commits it.
func (s *Service) Export(id string) (*scene.Document, error) {
	var doc *scene.Document
	err := s.with(id, func(st *State) error {
		sv, err := s.refresh(st)
		if err != nil {
			return err
		}
		st.cache.Store(st.shown, sv.Document)
		doc = sv.Document
		return nil
	})
	return doc, err
}

// Edit applies a direct-manipulation transform to the live scene.
func (s *Service) Edit(id, objectID string, e surface.Edit) (scene.Placement, uint64, error) {
	var (
		p       scene.Placement
		version uint64
	)
	err := s.with(id, func(st *State) error {
		var err error
		p, err = st.surface.Apply(objectID, e)
		version = st.surface.Version()
		return err
	})
	return p, version, err
}

// Live returns the current live scene without rebuilding it.
func (s *Service) Live(id string) (*scene.Document, uint64, error) {
	var (
		doc     *scene.Document
		version uint64
	)
	err := s.with(id, func(st *State) error {
		if !st.surface.Loaded() {
			return surface.ErrNoScene
		}
		doc = st.surface.Snapshot()
		version = st.surface.Version()
		return nil
	})
	return doc, version, err
}

// Surface returns the session's live surface for read-only queries.
func (s *Service) Surface(id string) (*surface.Surface, error) {
	var sf *surface.Surface
	err := s.with(id, func(st *State) error {
		sf = st.surface
		return nil
	})
	return sf, err
}

func (st *State) view() View {
	v := View{
		Status:    StatusOK,
		SessionID: st.ID,
		Loaded:    st.loaded,
		Order:     slices.Clone(st.order),
		Selection: slices.Clone(st.selection),
		Toggles:   st.toggles,
		Version:   st.surface.Version(),
	}
	if v.Selection == nil {
		v.Selection = []string{}
	}
	if st.loaded {
		v.Start = st.start.Format(time.DateOnly)
		v.End = st.start.AddDate(0, 0, st.days).Format(time.DateOnly)
		v.Days = st.days
		v.Available = st.split.Combined.Columns()
		if len(assemble.StackOrder(st.order, st.selection)) == 0 &&
			!(st.toggles.Consumption && st.split.Aggregate.Has(st.overlayColumn)) {
			v.Status = StatusNothingSelected
		}
	}
	if v.Available == nil {
		v.Available = []string{}
	}
	return v
}

// midnight keeps the calendar date of t and moves it to 00:00 in loc.
func midnight(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
