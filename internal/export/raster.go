package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"

	"github.com/strommix/strommix/internal/scene"
)

type RasterOptions struct {
	// Scale multiplies the document size; 0 means 1.
	Scale float64
	// MaxWidth downsamples wider renders, keeping the aspect ratio.
	MaxWidth   int
	Background color.Color
}

// PNG rasterizes the SVG export of doc. Paths are rendered; text and
// embedded images are not.
func PNG(w io.Writer, doc *scene.Document, opts RasterOptions) error {
	img, err := Rasterize(doc, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Rasterize renders doc to an RGBA image.
func Rasterize(doc *scene.Document, opts RasterOptions) (*image.RGBA, error) {
	data, err := SVG(doc, Options{SplitAlpha: true})
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	width := int(icon.ViewBox.W * scale)
	height := int(icon.ViewBox.H * scale)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("rasterize: invalid size %dx%d", width, height)
	}

	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	icon.SetTarget(0, 0, float64(width), float64(height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)

	if opts.MaxWidth > 0 && width > opts.MaxWidth {
		return thumbnail(img, opts.MaxWidth), nil
	}
	return img, nil
}

func thumbnail(src *image.RGBA, maxWidth int) *image.RGBA {
	b := src.Bounds()
	height := max(1, b.Dy()*maxWidth/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
