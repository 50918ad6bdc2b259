// Package store persists saved scene snapshots ("postcards").
package store

import (
	"context"
	"errors"
	"time"

	"github.com/strommix/strommix/internal/scene"
)

var (
	ErrNotFound  = errors.New("snapshot not found")
	ErrDuplicate = errors.New("snapshot already exists")
)

// Snapshot is a committed live scene together with the selection it was
// built for.
type Snapshot struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Name      string          `json:"name"`
	Selection []string        `json:"selection"`
	Document  *scene.Document `json:"document"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Summary is a snapshot without its document.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Objects   int       `json:"objects"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Get(ctx context.Context, sessionID, id string) (*Snapshot, error)
	// List returns the session's snapshots, newest first.
	List(ctx context.Context, sessionID string) ([]Summary, error)
}

func summarize(s *Snapshot) Summary {
	n := 0
	if s.Document != nil {
		n = len(s.Document.Objects)
	}
	return Summary{ID: s.ID, Name: s.Name, Objects: n, CreatedAt: s.CreatedAt}
}
