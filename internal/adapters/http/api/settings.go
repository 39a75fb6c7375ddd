// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/snagasawa/kpisync/internal/domain/model"
)

// SettingsHandler handles target settings reads and writes.
type SettingsHandler struct {
	deps Reporter
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(deps Reporter) *SettingsHandler {
	return &SettingsHandler{deps: deps}
}

// settingsRequest mirrors the JSON schema for POST /api/settings.
type settingsRequest struct {
	Settings []model.ProjectTarget `json:"settings"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// HandleSettings handles GET and POST /api/settings requests.
func (h *SettingsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.post(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.Settings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *SettingsHandler) post(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s", ErrBadRequest, err))
		return
	}
	if err := h.deps.SaveSettings(r.Context(), req.Settings); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}
