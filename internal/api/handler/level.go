package handler

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/blockmatch/internal/api/apierr"
	"github.com/mcoot/blockmatch/internal/api/response"
	"github.com/mcoot/blockmatch/internal/services/levels"
)

// LevelHandler handles level library endpoints
type LevelHandler struct {
	levels *levels.Service
}

// NewLevelHandler creates a new level handler
func NewLevelHandler(levels *levels.Service) *LevelHandler {
	return &LevelHandler{levels: levels}
}

// List handles GET /api/v1/levels
func (h *LevelHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.levels.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	out := make([]response.Level, len(all))
	for i, l := range all {
		out[i] = response.LevelFromModel(l)
	}
	response.JSON(w, http.StatusOK, response.LevelList{Levels: out})
}

// Get handles GET /api/v1/levels/{name}
func (h *LevelHandler) Get(w http.ResponseWriter, r *http.Request) {
	level, err := h.levels.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LevelFromModel(level))
}

// Put handles PUT /api/v1/levels/{name}. The body uses the level file format,
// so either a row-major "layout" or a column-major "columns" is accepted.
func (h *LevelHandler) Put(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, apierr.NewInvalidRequestError("Invalid request body: "+err.Error()))
		return
	}

	level, err := levels.Parse(data, name)
	if err != nil {
		WriteError(w, err)
		return
	}
	if level.Name != name {
		WriteError(w, apierr.NewInvalidRequestError("level name does not match the URL"))
		return
	}
	if err := h.levels.Save(r.Context(), level); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LevelFromModel(level))
}

// Delete handles DELETE /api/v1/levels/{name}
func (h *LevelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.levels.Delete(r.Context(), mux.Vars(r)["name"]); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
