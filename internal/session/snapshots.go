package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/strommix/strommix/internal/assemble"
	"github.com/strommix/strommix/internal/store"
	"github.com/strommix/strommix/internal/typeid"
)

// SaveSnapshot stores the live scene under name and commits it.
func (s *Service) SaveSnapshot(ctx context.Context, id, name string) (store.Summary, error) {
	var sum store.Summary
	err := s.with(id, func(st *State) error {
		sv, err := s.refresh(st)
		if err != nil {
			return err
		}
		st.cache.Store(st.shown, sv.Document)

		name = strings.TrimSpace(name)
		if name == "" {
			name = st.start.Format(time.DateOnly)
		}
		snap := &store.Snapshot{
			ID:        typeid.NewSnapshotID(),
			SessionID: id,
			Name:      name,
			Selection: slices.Clone(st.shown),
			Document:  sv.Document,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}

		slog.Info("snapshot saved", "session", id, "snapshot", snap.ID, "objects", len(snap.Document.Objects))
		sum = store.Summary{ID: snap.ID, Name: snap.Name, Objects: len(snap.Document.Objects), CreatedAt: snap.CreatedAt}
		return nil
	})
	return sum, err
}

func (s *Service) ListSnapshots(ctx context.Context, id string) ([]store.Summary, error) {
	if err := s.with(id, func(*State) error { return nil }); err != nil {
		return nil, err
	}
	list, err := s.store.List(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if list == nil {
		list = []store.Summary{}
	}
	return list, nil
}

// RestoreSnapshot puts a saved scene back on the surface. The selection
// becomes the snapshot's selection, restricted to the loaded categories.
func (s *Service) RestoreSnapshot(ctx context.Context, id, snapshotID string) (SceneView, error) {
	var sv SceneView
	err := s.with(id, func(st *State) error {
		if !st.loaded {
			return ErrNotLoaded
		}
		snap, err := s.store.Get(ctx, id, snapshotID)
		if err != nil {
			return err
		}

		available := st.split.Combined.Columns()
		var selection []string
		for _, name := range snap.Selection {
			if slices.Contains(available, name) {
				selection = append(selection, name)
			}
		}
		st.selection = selection
		st.order = assemble.Reorder(st.order, selection)
		st.surface.Load(snap.Document)
		st.shown = slices.Clone(selection)
		st.stale = false
		st.cache.Store(selection, snap.Document)

		sv = SceneView{Document: st.surface.Snapshot(), Reused: true, Version: st.surface.Version()}
		return nil
	})
	return sv, err
}
