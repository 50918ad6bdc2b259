// Package export writes the live scene as standalone SVG or PNG.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/strommix/strommix/internal/scene"
)

// ErrEmptyScene is returned for a missing document or one without an
// object list.
var ErrEmptyScene = errors.New("scene has no objects")

const (
	DefaultWidth  = 1200
	DefaultHeight = 600

	// baselineRatio places the text baseline below the top of the box.
	baselineRatio = 0.8
)

type Options struct {
	// Width and Height apply when the document carries no size.
	Width  int
	Height int
	// SplitAlpha writes #rrggbbaa colors as #rrggbb plus an opacity
	// attribute, for renderers without 8-digit hex support.
	SplitAlpha bool
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// SVG renders doc in draw order. Primitives of unknown type and images
// without a source are skipped. doc is not modified.
func SVG(doc *scene.Document, opts Options) ([]byte, error) {
	if doc == nil || doc.Objects == nil {
		return nil, ErrEmptyScene
	}

	width, height := doc.Width, doc.Height
	if width <= 0 || height <= 0 {
		width, height = opts.Width, opts.Height
	}
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startview(width, height, 0, 0, width, height)
	for i := range doc.Objects {
		writePrimitive(canvas, &doc.Objects[i], opts)
	}
	canvas.End()
	return buf.Bytes(), nil
}

func writePrimitive(canvas *svg.SVG, p *scene.Primitive, opts Options) {
	switch s := p.Shape.(type) {
	case *scene.Area:
		if len(s.Points) == 0 {
			return
		}
		attrs := paint(p.Style, opts, true)
		if t := transform(p.Placement); t != "" {
			attrs = append(attrs, attr("transform", t))
		}
		canvas.Path(pathData(s.Points, true), attrs...)

	case *scene.Line:
		if len(s.Points) == 0 {
			return
		}
		attrs := paint(p.Style, opts, false)
		if t := transform(p.Placement); t != "" {
			attrs = append(attrs, attr("transform", t))
		}
		canvas.Path(pathData(s.Points, false), attrs...)

	case *scene.Text:
		writeText(canvas, p, s, opts)

	case *scene.Image:
		if s.Src == "" {
			return
		}
		var attrs []string
		if t := transform(p.Placement); t != "" {
			attrs = append(attrs, attr("transform", t))
		}
		if p.Style.Opacity < 1 {
			attrs = append(attrs, attr("opacity", num(p.Style.Opacity, 3)))
		}
		canvas.Image(0, 0, int(s.Width), int(s.Height), attrEscaper.Replace(s.Src), attrs...)
	}
}

// writeText anchors text at the top of its box: the baseline sits at
// top + 0.8*fontSize. Rotated or scaled text is drawn at the origin inside
// the placement transform.
func writeText(canvas *svg.SVG, p *scene.Primitive, t *scene.Text, opts Options) {
	size := t.FontSize
	if size <= 0 {
		size = scene.DefaultFontSize
	}

	pl := p.Placement
	x, y := pl.X, pl.Y+baselineRatio*size
	var tr string
	if pl.R != 0 || pl.SX != 1 || pl.SY != 1 {
		x, y = 0, baselineRatio*size
		tr = transform(pl)
	}

	attrs := []string{
		attr("x", num(x, 1)),
		attr("y", num(y, 1)),
		attr("font-size", strconv.Itoa(int(size))),
	}
	if t.FontFamily != "" {
		attrs = append(attrs, attr("font-family", t.FontFamily))
	}
	fill := p.Style.Fill
	if fill == "" {
		fill = "#000000"
	}
	attrs = append(attrs, colorAttrs("fill", fill, opts)...)
	if p.Style.Opacity < 1 {
		attrs = append(attrs, attr("opacity", num(p.Style.Opacity, 3)))
	}
	if tr != "" {
		attrs = append(attrs, attr("transform", tr))
	}
	// svgo only places text on integer coordinates.
	fmt.Fprintf(canvas.Writer, "<text %s>%s</text>\n", strings.Join(attrs, " "), textEscaper.Replace(t.Content))
}

func paint(st scene.Style, opts Options, filled bool) []string {
	fill := st.Fill
	if !filled || fill == "" {
		fill = "none"
	}
	attrs := colorAttrs("fill", fill, opts)

	if st.Stroke != "" {
		attrs = append(attrs, colorAttrs("stroke", st.Stroke, opts)...)
		attrs = append(attrs, attr("stroke-width", num(st.StrokeWidth, 3)))
	} else {
		attrs = append(attrs, attr("stroke", "none"))
	}
	if st.Opacity < 1 {
		attrs = append(attrs, attr("opacity", num(st.Opacity, 3)))
	}
	return attrs
}

func colorAttrs(name, value string, opts Options) []string {
	if opts.SplitAlpha {
		if rgb, alpha, ok := splitHexAlpha(value); ok {
			return []string{attr(name, rgb), attr(name+"-opacity", num(alpha, 3))}
		}
	}
	return []string{attr(name, value)}
}

// splitHexAlpha splits #rrggbbaa into #rrggbb and an alpha in [0, 1].
func splitHexAlpha(c string) (string, float64, bool) {
	if len(c) != 9 || c[0] != '#' {
		return "", 0, false
	}
	if _, err := strconv.ParseUint(c[1:7], 16, 32); err != nil {
		return "", 0, false
	}
	a, err := strconv.ParseUint(c[7:], 16, 8)
	if err != nil {
		return "", 0, false
	}
	return c[:7], float64(a) / 255, true
}

func attr(name, value string) string {
	return name + `="` + attrEscaper.Replace(value) + `"`
}

// transform builds the placement chain, leaving out identity parts.
func transform(p scene.Placement) string {
	var parts []string
	if p.X != 0 || p.Y != 0 {
		parts = append(parts, fmt.Sprintf("translate(%.3f,%.3f)", p.X, p.Y))
	}
	if p.R != 0 {
		parts = append(parts, fmt.Sprintf("rotate(%.3f)", p.R))
	}
	if p.SX != 1 || p.SY != 1 {
		parts = append(parts, fmt.Sprintf("scale(%.6f,%.6f)", p.SX, p.SY))
	}
	return strings.Join(parts, " ")
}

func pathData(points []scene.Point, closed bool) string {
	var b strings.Builder
	for i, pt := range points {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(pt.X, 3))
		b.WriteByte(' ')
		b.WriteString(num(pt.Y, 3))
	}
	if closed {
		b.WriteString(" Z")
	}
	return b.String()
}

// num formats v with at most prec decimals and no trailing zeros.
func num(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
