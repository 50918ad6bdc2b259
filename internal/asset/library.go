// Package asset loads the category icons embedded into scenes and serves
// the icon directory over HTTP.
package asset

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/strommix/strommix/internal/geometry"
)

// MaxSide bounds the embedded icon size; larger sources are downscaled.
const MaxSide = 256

// Library reads icons named icon_<name>.png from a directory.
type Library struct {
	dir string
}

func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// FileName returns the file an icon is read from.
func FileName(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.NewReplacer(" ", "_", "/", "_").Replace(slug)
	return "icon_" + slug + ".png"
}

// Icons loads the named icons in order. Missing files are skipped; other
// read or decode failures are returned.
func (l *Library) Icons(names []string) ([]geometry.Icon, error) {
	if l == nil || l.dir == "" {
		return nil, nil
	}

	icons := make([]geometry.Icon, 0, len(names))
	for _, name := range names {
		icon, err := l.Load(name)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("icon missing", "name", name, "dir", l.dir)
			continue
		}
		if err != nil {
			return nil, err
		}
		icons = append(icons, icon)
	}
	return icons, nil
}

// Load reads one icon and returns it as a PNG data URL.
func (l *Library) Load(name string) (geometry.Icon, error) {
	f, err := os.Open(filepath.Join(l.dir, FileName(name)))
	if err != nil {
		return geometry.Icon{}, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return geometry.Icon{}, fmt.Errorf("decode icon %s: %w", name, err)
	}
	img = fit(img, MaxSide)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return geometry.Icon{}, fmt.Errorf("encode icon %s: %w", name, err)
	}

	b := img.Bounds()
	return geometry.Icon{
		Name:   name,
		Src:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:  float64(b.Dx()),
		Height: float64(b.Dy()),
	}, nil
}

func fit(src image.Image, side int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= side && h <= side {
		return src
	}
	if w >= h {
		h = max(1, h*side/w)
		w = side
	} else {
		w = max(1, w*side/h)
		h = side
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Serve returns an http.Handler for the icon directory under /assets/.
// Without a directory every request is a 404.
func (l *Library) Serve() http.Handler {
	if l.dir == "" {
		return http.NotFoundHandler()
	}
	files := http.FileServer(http.Dir(l.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	}))
}
