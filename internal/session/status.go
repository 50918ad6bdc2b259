package session

import (
	"errors"

	"github.com/strommix/strommix/internal/assemble"
	"github.com/strommix/strommix/internal/export"
	"github.com/strommix/strommix/internal/store"
	"github.com/strommix/strommix/internal/surface"
)

var (
	ErrNoSession    = errors.New("session not found")
	ErrInvalidRange = errors.New("invalid range")
	ErrNoData       = errors.New("no data available")
	ErrNotLoaded    = errors.New("no data loaded")
)

// Status is the advisory outcome reported to the user after an action.
type Status string

const (
	StatusOK              Status = "ok"
	StatusInvalidRange    Status = "invalid_range"
	StatusNoData          Status = "no_data"
	StatusNothingSelected Status = "nothing_selected"
	StatusNotLoaded       Status = "not_loaded"
)

// StatusOf classifies an error returned by the service.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrInvalidRange):
		return StatusInvalidRange
	case errors.Is(err, ErrNoData):
		return StatusNoData
	case errors.Is(err, assemble.ErrNothingToDisplay), errors.Is(err, export.ErrEmptyScene):
		return StatusNothingSelected
	case errors.Is(err, ErrNotLoaded), errors.Is(err, surface.ErrNoScene):
		return StatusNotLoaded
	default:
		return ""
	}
}

// isNotFound reports errors that name a missing resource.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, store.ErrNotFound) || errors.Is(err, surface.ErrNotFound)
}
