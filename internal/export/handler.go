package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/strommix/strommix/internal/scene"
)

const defaultName = "energy_canvas"

// Source returns the document to export for a request.
type Source func(r *http.Request) (*scene.Document, error)

type Handler struct {
	source Source
	raster RasterOptions
	// StatusOf maps source errors to HTTP status codes.
	StatusOf func(error) int
}

func NewHandler(source Source, raster RasterOptions) *Handler {
	return &Handler{source: source, raster: raster}
}

// ExportSVG streams the scene as an SVG attachment.
func (h *Handler) ExportSVG(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	data, err := SVG(doc, Options{})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.send(w, r, data, "image/svg+xml", "svg")
}

// ExportPNG streams a raster rendering. A ?scale= query overrides the
// configured scale.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	opts := h.raster
	if s, err := strconv.ParseFloat(r.URL.Query().Get("scale"), 64); err == nil && s > 0 && s <= 4 {
		opts.Scale = s
	}

	var buf bytes.Buffer
	if err := PNG(&buf, doc, opts); err != nil {
		h.fail(w, err)
		return
	}
	h.send(w, r, buf.Bytes(), "image/png", "png")
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) (*scene.Document, bool) {
	doc, err := h.source(r)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	return doc, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyScene):
		http.Error(w, "nothing to export", http.StatusConflict)
	case h.StatusOf != nil && h.StatusOf(err) != 0:
		status := h.StatusOf(err)
		http.Error(w, http.StatusText(status), status)
	default:
		slog.Error("export scene", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request, data []byte, contentType, ext string) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = defaultName
	}
	// Sanitize filename
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, ext))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)

	slog.Info("export complete", "format", ext, "size", len(data))
}
