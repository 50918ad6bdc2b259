package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory keeps snapshots in process. It is used when no database is
// configured.
type Memory struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
}

func NewMemory() *Memory {
	return &Memory{snaps: make(map[string]*Snapshot)}
}

func (m *Memory) Save(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snaps[snap.ID]; ok {
		return fmt.Errorf("save %s: %w", snap.ID, ErrDuplicate)
	}
	m.snaps[snap.ID] = clone(snap)
	return nil
}

func (m *Memory) Get(ctx context.Context, sessionID, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snaps[id]
	if !ok || s.SessionID != sessionID {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

func (m *Memory) List(ctx context.Context, sessionID string) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Snapshot
	for _, s := range m.snaps {
		if s.SessionID == sessionID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	summaries := make([]Summary, len(out))
	for i, s := range out {
		summaries[i] = summarize(s)
	}
	return summaries, nil
}

func clone(s *Snapshot) *Snapshot {
	c := *s
	c.Selection = append([]string(nil), s.Selection...)
	c.Document = s.Document.Clone()
	return &c
}
