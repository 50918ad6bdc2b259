package scene

import (
	"encoding/json"
	"fmt"
)

// DefaultFontSize applies to text records that carry none.
const DefaultFontSize = 14

type wirePrimitive struct {
	ID        string          `json:"id"`
	Type      Kind            `json:"type"`
	Name      string          `json:"name,omitempty"`
	Placement Placement       `json:"placement"`
	Style     Style           `json:"style"`
	Flags     Flags           `json:"flags"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type pathData struct {
	Commands [][]interface{} `json:"commands"`
}

type textData struct {
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily,omitempty"`
}

type imageData struct {
	Src    string  `json:"src"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (p Primitive) MarshalJSON() ([]byte, error) {
	w := wirePrimitive{
		ID:        p.ID,
		Type:      p.Type,
		Name:      p.Name,
		Placement: p.Placement,
		Style:     p.Style,
		Flags:     p.Flags,
	}

	var (
		data []byte
		err  error
	)
	switch s := p.Shape.(type) {
	case *Area:
		data, err = json.Marshal(pathData{Commands: encodePath(s.Points, true)})
	case *Line:
		data, err = json.Marshal(pathData{Commands: encodePath(s.Points, false)})
	case *Text:
		data, err = json.Marshal(textData{Text: s.Content, FontSize: s.FontSize, FontFamily: s.FontFamily})
	case *Image:
		data, err = json.Marshal(imageData{Src: s.Src, Width: s.Width, Height: s.Height})
	case nil:
		data = p.raw
	default:
		return nil, fmt.Errorf("marshal primitive %s: unsupported shape %T", p.ID, s)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal primitive %s: %w", p.ID, err)
	}
	w.Data = data
	return json.Marshal(w)
}

func (p *Primitive) UnmarshalJSON(b []byte) error {
	// Defaults for keys a surface may omit.
	w := wirePrimitive{
		Placement: Placement{SX: 1, SY: 1},
		Style:     Style{Opacity: 1},
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	*p = Primitive{
		ID:        w.ID,
		Type:      w.Type,
		Name:      w.Name,
		Placement: w.Placement,
		Style:     w.Style,
		Flags:     w.Flags,
	}

	switch w.Type {
	case KindArea, KindLine:
		var pd pathData
		if len(w.Data) > 0 {
			if err := json.Unmarshal(w.Data, &pd); err != nil {
				return fmt.Errorf("primitive %s: invalid path: %w", w.ID, err)
			}
		}
		points := decodePath(pd.Commands)
		if w.Type == KindArea {
			p.Shape = &Area{Points: points}
		} else {
			p.Shape = &Line{Points: points}
		}
	case KindText:
		td := textData{FontSize: DefaultFontSize}
		if len(w.Data) > 0 {
			if err := json.Unmarshal(w.Data, &td); err != nil {
				return fmt.Errorf("primitive %s: invalid text: %w", w.ID, err)
			}
		}
		if td.FontSize <= 0 {
			td.FontSize = DefaultFontSize
		}
		p.Shape = &Text{Content: td.Text, FontSize: td.FontSize, FontFamily: td.FontFamily}
	case KindImage:
		var id imageData
		if len(w.Data) > 0 {
			if err := json.Unmarshal(w.Data, &id); err != nil {
				return fmt.Errorf("primitive %s: invalid image: %w", w.ID, err)
			}
		}
		p.Shape = &Image{Src: id.Src, Width: id.Width, Height: id.Height}
	default:
		if len(w.Data) > 0 {
			p.raw = append([]byte(nil), w.Data...)
		}
	}
	return nil
}

// encodePath renders points as ["M",x,y] / ["L",x,y] commands, closed with
// ["Z"] for areas.
func encodePath(points []Point, closed bool) [][]interface{} {
	cmds := make([][]interface{}, 0, len(points)+1)
	for i, pt := range points {
		op := "L"
		if i == 0 {
			op = "M"
		}
		cmds = append(cmds, []interface{}{op, pt.X, pt.Y})
	}
	if closed && len(points) > 0 {
		cmds = append(cmds, []interface{}{"Z"})
	}
	return cmds
}

func decodePath(cmds [][]interface{}) []Point {
	points := make([]Point, 0, len(cmds))
	for _, cmd := range cmds {
		if len(cmd) < 3 {
			continue
		}
		op, ok := cmd[0].(string)
		if !ok || (op != "M" && op != "L") {
			continue
		}
		points = append(points, Point{X: toFloat64(cmd[1]), Y: toFloat64(cmd[2])})
	}
	return points
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}
