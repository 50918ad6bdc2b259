package engine

import (
	"math"
	"unicode/utf8"

	"github.com/strommix/strommix/internal/scene"
)

const (
	// lineHitSlop pads thin strokes so they can be picked.
	lineHitSlop = 3
	// glyphAdvance approximates the average glyph width relative to font size.
	glyphAdvance = 0.6
)

// BuildSceneGraph builds a render-ready scene graph from a scene document.
// Primitives of unknown type are not rendered.
func BuildSceneGraph(doc *scene.Document) *SceneGraph {
	sg := NewSceneGraph()
	if doc == nil {
		return sg
	}

	for i := range doc.Objects {
		node := buildNode(&doc.Objects[i])
		if node == nil {
			continue
		}
		sg.Nodes = append(sg.Nodes, node)
		sg.NodesById[node.ID] = node
	}
	sg.Dirty = false

	return sg
}

func buildNode(p *scene.Primitive) *SceneNode {
	world := FromPlacement(p.Placement)
	node := &SceneNode{
		ID:             p.ID,
		Name:           p.Name,
		WorldTransform: world,
		Opacity:        p.Style.Opacity,
		Fill:           p.Style.Fill,
		Stroke:         p.Style.Stroke,
		StrokeWidth:    p.Style.StrokeWidth,
		Selectable:     p.Flags.Selectable,
	}

	switch s := p.Shape.(type) {
	case *scene.Area:
		node.Type = "path"
		node.Path = pathCommands(s.Points, true)
		node.LocalBounds = pointBounds(s.Points)
	case *scene.Line:
		node.Type = "path"
		node.Path = pathCommands(s.Points, false)
		node.LocalBounds = pointBounds(s.Points).Expand(math.Max(lineHitSlop, p.Style.StrokeWidth/2))
	case *scene.Text:
		node.Type = "text"
		node.Text = s.Content
		node.FontSize = s.FontSize
		node.FontFamily = s.FontFamily
		node.LocalBounds = Rect{
			Width:  glyphAdvance * s.FontSize * float64(utf8.RuneCountInString(s.Content)),
			Height: s.FontSize,
		}
	case *scene.Image:
		node.Type = "image"
		node.ImageSrc = s.Src
		node.ImageWidth = s.Width
		node.ImageHeight = s.Height
		node.LocalBounds = Rect{Width: s.Width, Height: s.Height}
	default:
		return nil
	}

	node.Bounds = world.Bounds(node.LocalBounds)
	return node
}

func pathCommands(points []scene.Point, closed bool) []PathCommand {
	cmds := make([]PathCommand, 0, len(points)+1)
	for i, pt := range points {
		op := "L"
		if i == 0 {
			op = "M"
		}
		cmds = append(cmds, PathCommand{op, pt.X, pt.Y})
	}
	if closed && len(points) > 0 {
		cmds = append(cmds, PathCommand{"Z"})
	}
	return cmds
}

// pointBounds computes the axis-aligned bounding box of local points.
func pointBounds(points []scene.Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range points[1:] {
		minX = math.Min(minX, pt.X)
		maxX = math.Max(maxX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}
