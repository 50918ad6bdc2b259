package engine

import (
	"encoding/json"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // Operation: "path", "text", "image"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	Closed      bool          `json:"closed,omitempty"`      // Path ends with Z
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Opacity     float64       `json:"opacity,omitempty"`     // Global alpha
	Text        string        `json:"text,omitempty"`
	FontSize    float64       `json:"fontSize,omitempty"`
	FontFamily  string        `json:"fontFamily,omitempty"`
	ImageSrc    string        `json:"imageSrc,omitempty"`    // Data URL or asset path
	ImageWidth  float64       `json:"imageWidth,omitempty"`  // Image natural width
	ImageHeight float64       `json:"imageHeight,omitempty"` // Image natural height
}

// CompileDrawCommands generates a draw command buffer from a scene graph.
// Commands are in painter's order (back to front).
func CompileDrawCommands(sg *SceneGraph) []DrawCommand {
	if sg == nil {
		return nil
	}

	commands := make([]DrawCommand, 0, len(sg.Nodes))
	for _, node := range sg.Nodes {
		cmd := DrawCommand{
			Op:       node.Type,
			ObjectID: node.ID,
			Opacity:  node.Opacity,
		}
		if !node.WorldTransform.IsIdentity() {
			cmd.Transform = node.WorldTransform.ToSlice()
		}

		switch node.Type {
		case "image":
			if node.ImageSrc == "" {
				continue
			}
			cmd.ImageSrc = node.ImageSrc
			cmd.ImageWidth = node.ImageWidth
			cmd.ImageHeight = node.ImageHeight
		case "text":
			cmd.Text = node.Text
			cmd.FontSize = node.FontSize
			cmd.FontFamily = node.FontFamily
			cmd.Fill = node.Fill
		default:
			if len(node.Path) == 0 {
				continue
			}
			cmd.Path = node.Path
			cmd.Closed = isClosed(node.Path)
			cmd.Fill = node.Fill
			cmd.Stroke = node.Stroke
			cmd.StrokeWidth = node.StrokeWidth
		}
		commands = append(commands, cmd)
	}
	return commands
}

func isClosed(path []PathCommand) bool {
	last := path[len(path)-1]
	return len(last) == 1 && last[0] == "Z"
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTest returns the ID of the topmost selectable node under the given
// canvas point, or empty string. The point is mapped into each node's local
// space, so rotated nodes are tested against their real extent.
func HitTest(sg *SceneGraph, x, y float64) string {
	if sg == nil {
		return ""
	}

	// Traverse in reverse order (front to back) to get topmost hit
	for i := len(sg.Nodes) - 1; i >= 0; i-- {
		node := sg.Nodes[i]
		if !node.Selectable || node.LocalBounds.IsEmpty() {
			continue
		}
		inv, ok := node.WorldTransform.Inverse()
		if !ok {
			continue
		}
		lx, ly := inv.Apply(x, y)
		if node.LocalBounds.Contains(lx, ly) {
			return node.ID
		}
	}
	return ""
}

// GetSelectionBounds returns the combined bounding box of the given object IDs.
func GetSelectionBounds(sg *SceneGraph, objectIDs []string) Rect {
	if sg == nil || len(objectIDs) == 0 {
		return Rect{}
	}

	var result Rect
	first := true

	for _, id := range objectIDs {
		node, ok := sg.NodesById[id]
		if !ok || node.Bounds.IsEmpty() {
			continue
		}

		if first {
			result = node.Bounds
			first = false
		} else {
			result = result.Union(node.Bounds)
		}
	}

	return result
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r Rect) string {
	data, _ := json.Marshal(map[string]float64{
		"x":      r.X,
		"y":      r.Y,
		"width":  r.Width,
		"height": r.Height,
	})
	return string(data)
}
