package assemble

import (
	"github.com/strommix/strommix/internal/scene"
)

// ReuseCache holds the last captured live scene together with the selection
// it was generated for. A capture stays valid until the selection set
// changes; toggles and stack order do not invalidate it.
type ReuseCache struct {
	selection []string
	live      *scene.Document
}

// Store captures a snapshot of live for selection.
func (c *ReuseCache) Store(selection []string, live *scene.Document) {
	if live == nil {
		c.Invalidate()
		return
	}
	c.selection = append([]string(nil), selection...)
	c.live = live.Clone()
}

func (c *ReuseCache) Invalidate() {
	c.selection = nil
	c.live = nil
}

// Valid reports whether a capture exists for the same selection set.
func (c *ReuseCache) Valid(selection []string) bool {
	return c.live != nil && SameSet(c.selection, selection)
}

// Decide returns a copy of the captured scene when it is valid for
// selection and otherwise drops it and calls generate. The second return
// value reports reuse.
func (c *ReuseCache) Decide(selection []string, generate func() (*scene.Document, error)) (*scene.Document, bool, error) {
	if c.Valid(selection) {
		return c.live.Clone(), true, nil
	}
	c.Invalidate()
	doc, err := generate()
	return doc, false, err
}
