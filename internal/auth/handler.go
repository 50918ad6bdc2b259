package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
	create  func() string
}

// NewHandler returns the session bootstrap handler. create opens a new
// session and returns its id.
func NewHandler(service *Service, create func() string) *Handler {
	return &Handler{service: service, create: create}
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := h.create()

	token, err := h.service.IssueToken(sessionID)
	if err != nil {
		slog.Error("issue token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: sessionID, Token: token})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
