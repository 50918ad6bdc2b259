package engine

// SceneGraph is the render-ready state of a scene document.
// It is rebuilt from the document whenever a primitive changes.
type SceneGraph struct {
	// Nodes are in painter's order (back to front).
	Nodes     []*SceneNode
	NodesById map[string]*SceneNode
	Dirty     bool // needs rebuild
}

// SceneNode is a resolved primitive ready for rendering.
type SceneNode struct {
	ID   string
	Type string // "path", "text", "image"
	Name string

	WorldTransform Matrix2D
	Opacity        float64

	// Render data (resolved from document)
	Path        []PathCommand // for areas and lines
	Fill        string
	Stroke      string
	StrokeWidth float64

	Text       string
	FontSize   float64
	FontFamily string

	ImageSrc    string
	ImageWidth  float64
	ImageHeight float64

	// Hit testing
	Selectable  bool
	LocalBounds Rect // untransformed extent, padded for thin lines
	Bounds      Rect // axis-aligned bounding box in world space
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["Z"].
type PathCommand []interface{}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewSceneGraph creates an empty scene graph.
func NewSceneGraph() *SceneGraph {
	return &SceneGraph{
		NodesById: make(map[string]*SceneNode),
		Dirty:     true,
	}
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Expand grows the rect by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}
