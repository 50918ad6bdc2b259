// Package surface holds the live scene a user edits by direct manipulation.
package surface

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/strommix/strommix/internal/engine"
	"github.com/strommix/strommix/internal/scene"
)

var (
	ErrNoScene   = errors.New("no scene loaded")
	ErrNotFound  = errors.New("primitive not found")
	ErrLocked    = errors.New("primitive does not allow this edit")
	ErrTransform = errors.New("invalid transform")
)

// Surface owns the live scene and its retained scene graph. It is safe for
// concurrent use; every edit is checked against the primitive's flags and
// only ever changes placements.
type Surface struct {
	mu sync.RWMutex

	doc        *scene.Document
	sceneGraph *engine.SceneGraph
	dirty      bool

	// Selected primitive ids (surface-local, not the category selection).
	selection []string

	// version increments on every accepted change.
	version uint64
}

func New() *Surface {
	return &Surface{
		sceneGraph: engine.NewSceneGraph(),
		dirty:      true,
	}
}

// Load replaces the live scene with a copy of doc.
func (s *Surface) Load(doc *scene.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = doc.Clone()
	s.selection = nil
	s.dirty = true
	s.version++
}

// Reset drops the live scene.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = nil
	s.selection = nil
	s.dirty = true
	s.version++
}

func (s *Surface) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc != nil
}

func (s *Surface) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a deep copy of the live scene, or nil when none is loaded.
func (s *Surface) Snapshot() *scene.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// --- Edits ---

// Translate moves a primitive by (dx, dy).
func (s *Surface) Translate(id string, dx, dy float64) (scene.Placement, error) {
	if !finite(dx, dy) {
		return scene.Placement{}, ErrTransform
	}
	return s.edit(id, func(p *scene.Primitive) error {
		if !p.Flags.Movable {
			return ErrLocked
		}
		p.Placement.X += dx
		p.Placement.Y += dy
		return nil
	})
}

// Scale multiplies a primitive's scale factors.
func (s *Surface) Scale(id string, fx, fy float64) (scene.Placement, error) {
	if !finite(fx, fy) || fx == 0 || fy == 0 {
		return scene.Placement{}, ErrTransform
	}
	return s.edit(id, func(p *scene.Primitive) error {
		if !p.Flags.Scalable {
			return ErrLocked
		}
		p.Placement.SX *= fx
		p.Placement.SY *= fy
		return nil
	})
}

// Rotate adds degrees to a primitive's rotation.
func (s *Surface) Rotate(id string, degrees float64) (scene.Placement, error) {
	if !finite(degrees) {
		return scene.Placement{}, ErrTransform
	}
	return s.edit(id, func(p *scene.Primitive) error {
		if !p.Flags.Rotatable {
			return ErrLocked
		}
		p.Placement.R += degrees
		return nil
	})
}

// SetPlacement replaces a primitive's placement. Every component that
// changes needs the matching flag.
func (s *Surface) SetPlacement(id string, to scene.Placement) (scene.Placement, error) {
	if !finite(to.X, to.Y, to.R, to.SX, to.SY) || to.SX == 0 || to.SY == 0 {
		return scene.Placement{}, ErrTransform
	}
	return s.edit(id, func(p *scene.Primitive) error {
		from := p.Placement
		if (from.X != to.X || from.Y != to.Y) && !p.Flags.Movable {
			return ErrLocked
		}
		if (from.SX != to.SX || from.SY != to.SY) && !p.Flags.Scalable {
			return ErrLocked
		}
		if from.R != to.R && !p.Flags.Rotatable {
			return ErrLocked
		}
		p.Placement = to
		return nil
	})
}

func (s *Surface) edit(id string, apply func(p *scene.Primitive) error) (scene.Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return scene.Placement{}, ErrNoScene
	}
	p := s.doc.Find(id)
	if p == nil {
		return scene.Placement{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !p.Flags.Selectable {
		return scene.Placement{}, fmt.Errorf("%w: %s", ErrLocked, id)
	}

	next := *p
	if err := apply(&next); err != nil {
		return scene.Placement{}, fmt.Errorf("%w: %s", err, id)
	}
	p.Placement = next.Placement
	s.dirty = true
	s.version++
	return p.Placement, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// --- Selection ---

// Select sets the selected primitive ids. Ids that are not selectable are
// dropped.
func (s *Surface) Select(ids []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = s.selection[:0]
	for _, id := range ids {
		if p := s.doc.Find(id); p != nil && p.Flags.Selectable {
			s.selection = append(s.selection, id)
		}
	}
	return append([]string(nil), s.selection...)
}

func (s *Surface) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.selection...)
}

// --- Queries ---

// Render returns the draw commands for the live scene.
func (s *Surface) Render() []engine.DrawCommand {
	return engine.CompileDrawCommands(s.graph())
}

// HitTest returns the id of the topmost selectable primitive at (x, y).
func (s *Surface) HitTest(x, y float64) string {
	return engine.HitTest(s.graph(), x, y)
}

// SelectionBounds returns the world bounding box of the selected primitives.
func (s *Surface) SelectionBounds() engine.Rect {
	sel := s.Selection()
	return engine.GetSelectionBounds(s.graph(), sel)
}

// graph rebuilds the scene graph if the scene changed since the last query.
func (s *Surface) graph() *engine.SceneGraph {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty {
		s.sceneGraph = engine.BuildSceneGraph(s.doc)
		s.dirty = false
	}
	return s.sceneGraph
}
