package scene

// FormatVersion tags every document produced by the assembler.
const FormatVersion = "strommix/1"

// Document is an ordered list of primitives. Later objects draw on top.
type Document struct {
	Version string      `json:"version"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Objects []Primitive `json:"objects"`
}

type Kind string

const (
	KindArea  Kind = "area"
	KindLine  Kind = "line"
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Placement is the affine transform applied to a primitive's local geometry:
// translate(X, Y) * rotate(R degrees) * scale(SX, SY).
type Placement struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	R  float64 `json:"r"`
	SX float64 `json:"sx"`
	SY float64 `json:"sy"`
}

// At returns an unrotated, unscaled placement with its origin at (x, y).
func At(x, y float64) Placement {
	return Placement{X: x, Y: y, SX: 1, SY: 1}
}

type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
}

// Flags control which direct-manipulation edits the surface accepts.
type Flags struct {
	Selectable bool `json:"selectable"`
	Movable    bool `json:"movable"`
	Scalable   bool `json:"scalable"`
	Rotatable  bool `json:"rotatable"`
}

// Editable allows every transform.
func Editable() Flags {
	return Flags{Selectable: true, Movable: true, Scalable: true, Rotatable: true}
}

// Locked rejects every transform.
func Locked() Flags {
	return Flags{}
}

// IsLocked reports whether no transform is allowed at all.
func (f Flags) IsLocked() bool {
	return !f.Selectable || (!f.Movable && !f.Scalable && !f.Rotatable)
}

type Point struct {
	X float64
	Y float64
}

// Primitive is one scene object. Shape holds exactly one of *Area, *Line,
// *Text or *Image; it is nil for types this version does not know, whose
// payload is kept in raw so it survives a round trip.
type Primitive struct {
	ID        string
	Type      Kind
	Name      string
	Placement Placement
	Style     Style
	Flags     Flags
	Shape     Shape

	raw []byte
}

// Shape is implemented by the four primitive payloads only.
type Shape interface {
	kind() Kind
}

// Area is a closed outline in local coordinates.
type Area struct {
	Points []Point
}

// Line is an open polyline in local coordinates.
type Line struct {
	Points []Point
}

// Text is anchored at the top-left corner of its box.
type Text struct {
	Content    string
	FontSize   float64
	FontFamily string
}

// Image is an embedded raster, typically a data URL.
type Image struct {
	Src    string
	Width  float64
	Height float64
}

func (*Area) kind() Kind  { return KindArea }
func (*Line) kind() Kind  { return KindLine }
func (*Text) kind() Kind  { return KindText }
func (*Image) kind() Kind { return KindImage }

// Points returns the local path of an area or line primitive.
func (p *Primitive) Points() []Point {
	switch s := p.Shape.(type) {
	case *Area:
		return s.Points
	case *Line:
		return s.Points
	default:
		return nil
	}
}

// Find returns the primitive with the given id, or nil.
func (d *Document) Find(id string) *Primitive {
	if d == nil {
		return nil
	}
	for i := range d.Objects {
		if d.Objects[i].ID == id {
			return &d.Objects[i]
		}
	}
	return nil
}

// Count returns the number of primitives of the given kind.
func (d *Document) Count(k Kind) int {
	if d == nil {
		return 0
	}
	n := 0
	for i := range d.Objects {
		if d.Objects[i].Type == k {
			n++
		}
	}
	return n
}

// Clone returns a deep copy; edits to the copy never reach d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Version: d.Version,
		Width:   d.Width,
		Height:  d.Height,
		Objects: make([]Primitive, len(d.Objects)),
	}
	for i, p := range d.Objects {
		out.Objects[i] = p.clone()
	}
	return out
}

func (p Primitive) clone() Primitive {
	out := p
	if p.raw != nil {
		out.raw = append([]byte(nil), p.raw...)
	}
	switch s := p.Shape.(type) {
	case *Area:
		out.Shape = &Area{Points: append([]Point(nil), s.Points...)}
	case *Line:
		out.Shape = &Line{Points: append([]Point(nil), s.Points...)}
	case *Text:
		t := *s
		out.Shape = &t
	case *Image:
		img := *s
		out.Shape = &img
	}
	return out
}
