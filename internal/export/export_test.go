package export

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strommix/strommix/internal/scene"
)

func areaScene() *scene.Document {
	return &scene.Document{
		Version: scene.FormatVersion,
		Width:   1200,
		Height:  600,
		Objects: []scene.Primitive{{
			ID:        "area:Wind",
			Type:      scene.KindArea,
			Name:      "Wind",
			Placement: scene.At(40, 300),
			Style:     scene.Style{Fill: "#87ceebCC", Stroke: "#333333", StrokeWidth: 1, Opacity: 0.9},
			Flags:     scene.Editable(),
			Shape: &scene.Area{Points: []scene.Point{
				{X: 0, Y: 10}, {X: 100.5, Y: 0}, {X: 100.5, Y: 60}, {X: 0, Y: 60},
			}},
		}},
	}
}

var translateRe = regexp.MustCompile(`translate\(([-0-9.]+),([-0-9.]+)\)`)

func translation(t *testing.T, svg []byte) (float64, float64) {
	t.Helper()
	m := translateRe.FindSubmatch(svg)
	require.NotNil(t, m, string(svg))
	x, err := strconv.ParseFloat(string(m[1]), 64)
	require.NoError(t, err)
	y, err := strconv.ParseFloat(string(m[2]), 64)
	require.NoError(t, err)
	return x, y
}

func TestMovedAreaExportsShiftedPlacement(t *testing.T) {
	doc := areaScene()
	before, err := SVG(doc, Options{})
	require.NoError(t, err)

	moved := doc.Clone()
	moved.Objects[0].Placement.X += 15
	moved.Objects[0].Placement.Y -= 7.5
	after, err := SVG(moved, Options{})
	require.NoError(t, err)

	bx, by := translation(t, before)
	ax, ay := translation(t, after)
	assert.InDelta(t, 15, ax-bx, 1e-9)
	assert.InDelta(t, -7.5, ay-by, 1e-9)

	// Local geometry is unchanged.
	d := `d="M0 10 L100.5 0 L100.5 60 L0 60 Z"`
	assert.Contains(t, string(before), d)
	assert.Contains(t, string(after), d)
}

func TestAreaAttributes(t *testing.T) {
	out, err := SVG(areaScene(), Options{})
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, `viewBox="0 0 1200 600"`)
	assert.Contains(t, s, `fill="#87ceebCC"`)
	assert.Contains(t, s, `stroke="#333333"`)
	assert.Contains(t, s, `stroke-width="1"`)
	assert.Contains(t, s, `opacity="0.9"`)
	assert.Contains(t, s, `transform="translate(40.000,300.000)"`)
	assert.NotContains(t, s, "rotate(")
	assert.NotContains(t, s, "scale(")

	split, err := SVG(areaScene(), Options{SplitAlpha: true})
	require.NoError(t, err)
	assert.Contains(t, string(split), `fill="#87ceeb" fill-opacity="0.8"`)
}

func TestTransformChain(t *testing.T) {
	doc := areaScene()
	doc.Objects[0].Placement = scene.Placement{X: 10, Y: 20, R: 15, SX: 2, SY: 0.5}

	out, err := SVG(doc, Options{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `transform="translate(10.000,20.000) rotate(15.000) scale(2.000000,0.500000)"`)
}

func TestLineHasNoFill(t *testing.T) {
	doc := &scene.Document{Objects: []scene.Primitive{{
		ID:        "overlay",
		Type:      scene.KindLine,
		Placement: scene.At(40, 100),
		Style:     scene.Style{Fill: "#ff0000", Stroke: "#ff0000", StrokeWidth: 4, Opacity: 1},
		Shape:     &scene.Line{Points: []scene.Point{{X: 0, Y: 5}, {X: 20, Y: 0}}},
	}}}

	out, err := SVG(doc, Options{})
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `d="M0 5 L20 0"`)
	assert.Contains(t, s, `fill="none"`)
	assert.Contains(t, s, `stroke-width="4"`)
	assert.NotContains(t, s, " Z")
}

func TestTextBaselineAndEscaping(t *testing.T) {
	doc := &scene.Document{Objects: []scene.Primitive{
		{
			ID:        "label:Wind",
			Type:      scene.KindText,
			Placement: scene.At(50, 36),
			Style:     scene.Style{Fill: "#222222", Opacity: 1},
			Shape:     &scene.Text{Content: `Wind & Sonne <neu> "x"`, FontSize: 14},
		},
		{
			ID:        "label:title",
			Type:      scene.KindText,
			Placement: scene.Placement{X: -14, Y: 290, R: -90, SX: 1, SY: 1},
			Style:     scene.Style{Fill: "#333333", Opacity: 1},
			Shape:     &scene.Text{Content: "Elektrische Leistung", FontSize: 14},
		},
	}}

	out, err := SVG(doc, Options{})
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, `<text x="50" y="47.2" font-size="14" fill="#222222">Wind &amp; Sonne &lt;neu&gt; "x"</text>`)
	assert.Contains(t, s, `<text x="0" y="11.2" font-size="14" fill="#333333" transform="translate(-14.000,290.000) rotate(-90.000)">Elektrische Leistung</text>`)
}

func TestSkipsUnknownAndEmptyImages(t *testing.T) {
	doc := areaScene()
	var unknown scene.Primitive
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s1","type":"sparkline","data":{"v":[1,2]}}`), &unknown))
	doc.Objects = append(doc.Objects,
		unknown,
		scene.Primitive{ID: "icon:none", Type: scene.KindImage, Placement: scene.At(0, 0), Shape: &scene.Image{}},
		scene.Primitive{ID: "icon:wind", Type: scene.KindImage, Placement: scene.Placement{X: 1096, Y: 32, SX: 0.28125, SY: 0.28125},
			Style: scene.Style{Opacity: 1}, Shape: &scene.Image{Src: "data:image/png;base64,AAAA", Width: 256, Height: 256}},
	)

	out, err := SVG(doc, Options{})
	require.NoError(t, err)
	s := string(out)
	assert.Equal(t, 1, strings.Count(s, "<path"))
	assert.Equal(t, 1, strings.Count(s, "<image"))
	assert.Contains(t, s, `xlink:href="data:image/png;base64,AAAA"`)
	assert.Contains(t, s, `scale(0.281250,0.281250)`)
}

func TestEmptyScene(t *testing.T) {
	_, err := SVG(nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyScene)

	_, err = SVG(&scene.Document{}, Options{})
	assert.ErrorIs(t, err, ErrEmptyScene)

	out, err := SVG(&scene.Document{Objects: []scene.Primitive{}}, Options{Width: 300, Height: 200})
	require.NoError(t, err)
	assert.Contains(t, string(out), `viewBox="0 0 300 200"`)
	assert.Contains(t, string(out), "</svg>")
}

func TestExportDoesNotModifyScene(t *testing.T) {
	doc := areaScene()
	before, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = SVG(doc, Options{SplitAlpha: true})
	require.NoError(t, err)

	after, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestRasterize(t *testing.T) {
	doc := &scene.Document{Width: 120, Height: 60, Objects: []scene.Primitive{{
		ID:        "block",
		Type:      scene.KindArea,
		Placement: scene.At(10, 10),
		Style:     scene.Style{Fill: "#ff0000", Opacity: 1},
		Shape: &scene.Area{Points: []scene.Point{
			{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 20}, {X: 0, Y: 20},
		}},
	}}}

	img, err := Rasterize(doc, RasterOptions{})
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())

	inside := img.RGBAAt(30, 20)
	assert.Greater(t, inside.R, uint8(200))
	assert.Less(t, inside.G, uint8(50))

	outside := img.RGBAAt(100, 50)
	assert.Equal(t, uint8(255), outside.G)

	thumb, err := Rasterize(doc, RasterOptions{MaxWidth: 60})
	require.NoError(t, err)
	assert.Equal(t, 60, thumb.Bounds().Dx())
	assert.Equal(t, 30, thumb.Bounds().Dy())
}

func TestHandlerServesAttachments(t *testing.T) {
	h := NewHandler(func(*http.Request) (*scene.Document, error) {
		return areaScene(), nil
	}, RasterOptions{MaxWidth: 300})

	rec := httptest.NewRecorder()
	h.ExportSVG(rec, httptest.NewRequest(http.MethodGet, "/export.svg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="energy_canvas.svg"`, rec.Header().Get("Content-Disposition"))

	rec = httptest.NewRecorder()
	h.ExportPNG(rec, httptest.NewRequest(http.MethodGet, "/export.png?name=mix%202024", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="mix-2024.png"`, rec.Header().Get("Content-Disposition"))
	cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
}

func TestHandlerEmptyScene(t *testing.T) {
	h := NewHandler(func(*http.Request) (*scene.Document, error) {
		return nil, nil
	}, RasterOptions{})

	rec := httptest.NewRecorder()
	h.ExportSVG(rec, httptest.NewRequest(http.MethodGet, "/export.svg", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
