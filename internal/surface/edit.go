package surface

import (
	"fmt"

	"github.com/strommix/strommix/internal/scene"
)

type EditKind string

const (
	EditTranslate EditKind = "translate"
	EditScale     EditKind = "scale"
	EditRotate    EditKind = "rotate"
	EditPlace     EditKind = "place"
)

// Edit is a transform request in wire form.
type Edit struct {
	Kind      EditKind         `json:"kind"`
	DX        float64          `json:"dx,omitempty"`
	DY        float64          `json:"dy,omitempty"`
	FX        float64          `json:"fx,omitempty"`
	FY        float64          `json:"fy,omitempty"`
	Degrees   float64          `json:"degrees,omitempty"`
	Placement *scene.Placement `json:"placement,omitempty"`
}

// Apply dispatches e to the matching transform.
func (s *Surface) Apply(id string, e Edit) (scene.Placement, error) {
	switch e.Kind {
	case EditTranslate:
		return s.Translate(id, e.DX, e.DY)
	case EditScale:
		return s.Scale(id, e.FX, e.FY)
	case EditRotate:
		return s.Rotate(id, e.Degrees)
	case EditPlace:
		if e.Placement == nil {
			return scene.Placement{}, fmt.Errorf("%w: missing placement", ErrTransform)
		}
		return s.SetPlacement(id, *e.Placement)
	default:
		return scene.Placement{}, fmt.Errorf("%w: unknown edit %q", ErrTransform, e.Kind)
	}
}
