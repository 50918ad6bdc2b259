package collab

import (
	"errors"
	"fmt"
	"time"

	"github.com/strommix/strommix/internal/scene"
	"github.com/strommix/strommix/internal/surface"
)

var ErrUnknownOperation = errors.New("unknown operation type")

// Backend is the session side of the live surface.
type Backend interface {
	Live(sessionID string) (*scene.Document, uint64, error)
	Edit(sessionID, objectID string, e surface.Edit) (scene.Placement, uint64, error)
	Commit(sessionID string) error
}

// ToEdit converts a wire operation into a surface edit.
func ToEdit(op Operation) (surface.Edit, error) {
	switch op.Type {
	case OpTranslate:
		return surface.Edit{Kind: surface.EditTranslate, DX: op.DX, DY: op.DY}, nil
	case OpScale:
		return surface.Edit{Kind: surface.EditScale, FX: op.FX, FY: op.FY}, nil
	case OpRotate:
		return surface.Edit{Kind: surface.EditRotate, Degrees: op.Degrees}, nil
	case OpTransform:
		return surface.Edit{Kind: surface.EditPlace, Placement: op.Placement}, nil
	default:
		return surface.Edit{}, fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

// ApplyOperation applies op to the session's live scene and returns the
// resulting placement and the surface version as server sequence.
func ApplyOperation(b Backend, sessionID string, op Operation) (scene.Placement, int64, error) {
	if op.ObjectID == "" {
		return scene.Placement{}, 0, fmt.Errorf("%w: missing object id", surface.ErrNotFound)
	}
	e, err := ToEdit(op)
	if err != nil {
		return scene.Placement{}, 0, err
	}
	p, version, err := b.Edit(sessionID, op.ObjectID, e)
	if err != nil {
		return scene.Placement{}, 0, err
	}
	return p, int64(version), nil
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
