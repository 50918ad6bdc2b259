package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/strommix/strommix/internal/assemble"
	"github.com/strommix/strommix/internal/auth"
	"github.com/strommix/strommix/internal/scene"
	"github.com/strommix/strommix/internal/store"
	"github.com/strommix/strommix/internal/surface"
)

type Handler struct {
	service  *Service
	location *time.Location
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, location: service.opts.Location}
}

type loadRequest struct {
	Start string `json:"start"`
	Days  int    `json:"days"`
}

type selectionRequest struct {
	Selection []string `json:"selection"`
}

type snapshotRequest struct {
	Name string `json:"name"`
}

type editResponse struct {
	ObjectID  string          `json:"objectId"`
	Placement scene.Placement `json:"placement"`
	Version   uint64          `json:"version"`
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.State(auth.SessionIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	start, err := time.ParseInLocation(time.DateOnly, req.Start, h.location)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start must be YYYY-MM-DD", "status": string(StatusInvalidRange)})
		return
	}

	v, err := h.service.Load(r.Context(), auth.SessionIDFromContext(r.Context()), start, req.Days)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	v, err := h.service.Select(auth.SessionIDFromContext(r.Context()), req.Selection)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) SetToggles(w http.ResponseWriter, r *http.Request) {
	var req assemble.Toggles
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	v, err := h.service.SetToggles(auth.SessionIDFromContext(r.Context()), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Scene(w http.ResponseWriter, r *http.Request) {
	sv, err := h.service.Scene(auth.SessionIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// Commit stores the live scene. A request body, when present, is a scene
// document that replaces the live scene first.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	var doc *scene.Document
	if r.ContentLength != 0 {
		doc = &scene.Document{}
		if err := json.NewDecoder(r.Body).Decode(doc); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid scene document"})
			return
		}
	}

	sv, err := h.service.Commit(auth.SessionIDFromContext(r.Context()), doc)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	objectID := mux.Vars(r)["objectId"]

	var req surface.Edit
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	p, version, err := h.service.Edit(auth.SessionIDFromContext(r.Context()), objectID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, editResponse{ObjectID: objectID, Placement: p, Version: version})
}

func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]
	if format == "" {
		format = "png"
	}
	contentType := map[string]string{
		"png": "image/png",
		"svg": "image/svg+xml",
		"pdf": "application/pdf",
	}[format]
	if contentType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported chart format"})
		return
	}

	var buf bytes.Buffer
	if err := h.service.Chart(auth.SessionIDFromContext(r.Context()), &buf, format); err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	sum, err := h.service.SaveSnapshot(r.Context(), auth.SessionIDFromContext(r.Context()), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sum)
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListSnapshots(r.Context(), auth.SessionIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshotID := mux.Vars(r)["snapshotId"]

	sv, err := h.service.RestoreSnapshot(r.Context(), auth.SessionIDFromContext(r.Context()), snapshotID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// Power serves GET /power?start=YYYY-MM-DD&end=YYYY-MM-DD (end exclusive).
func (h *Handler) Power(w http.ResponseWriter, r *http.Request) {
	var start, end time.Time
	q := r.URL.Query()
	if q.Get("start") != "" || q.Get("end") != "" {
		var err1, err2 error
		start, err1 = time.ParseInLocation(time.DateOnly, q.Get("start"), h.location)
		end, err2 = time.ParseInLocation(time.DateOnly, q.Get("end"), h.location)
		if err := errors.Join(err1, err2); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start and end must be YYYY-MM-DD", "status": string(StatusInvalidRange)})
			return
		}
	}

	pv, err := h.service.Power(r.Context(), start, end)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

// ExportSource adapts the service to export.Handler.
func (h *Handler) ExportSource(r *http.Request) (*scene.Document, error) {
	return h.service.Export(auth.SessionIDFromContext(r.Context()))
}

// HTTPStatus maps service errors to response codes.
func HTTPStatus(err error) int {
	switch {
	case isNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRange), errors.Is(err, surface.ErrTransform):
		return http.StatusBadRequest
	case errors.Is(err, surface.ErrLocked):
		return http.StatusForbidden
	case errors.Is(err, ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case StatusOf(err) == StatusNothingSelected, StatusOf(err) == StatusNotLoaded:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	code := HTTPStatus(err)
	if code == http.StatusInternalServerError {
		slog.Error("service error", "error", err)
		writeJSON(w, code, map[string]string{"error": "internal error"})
		return
	}

	body := map[string]string{"error": err.Error()}
	if status := StatusOf(err); status != "" {
		body["status"] = string(status)
	}
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
