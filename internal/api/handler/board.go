package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/blockmatch/internal/api/apierr"
	"github.com/mcoot/blockmatch/internal/api/request"
	"github.com/mcoot/blockmatch/internal/api/response"
	"github.com/mcoot/blockmatch/internal/api/sse"
	"github.com/mcoot/blockmatch/internal/model"
	"github.com/mcoot/blockmatch/internal/services/board"
	"github.com/mcoot/blockmatch/internal/services/session"
)

// BoardHandler handles board-related endpoints
type BoardHandler struct {
	sessions *session.Manager
	hubs     *sse.HubManager
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(sessions *session.Manager, hubs *sse.HubManager) *BoardHandler {
	return &BoardHandler{
		sessions: sessions,
		hubs:     hubs,
	}
}

func boardID(r *http.Request) model.BoardID {
	return model.BoardID(mux.Vars(r)["id"])
}

// Create handles POST /api/v1/boards
func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateBoardRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		WriteError(w, err)
		return
	}
	if req.Rows < 0 || req.Cols < 0 || req.Colors < 0 {
		WriteError(w, apierr.NewInvalidRequestError("rows, cols and colors must not be negative"))
		return
	}

	state, err := h.sessions.Create(r.Context(), session.CreateParams{
		Level:  req.Level,
		Rows:   req.Rows,
		Cols:   req.Cols,
		Colors: req.Colors,
		Seed:   req.Seed,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.BoardFromModel(state))
}

// List handles GET /api/v1/boards
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	states := h.sessions.List(r.Context())
	boards := make([]response.Board, len(states))
	for i, s := range states {
		boards[i] = response.BoardFromModel(s)
	}
	response.JSON(w, http.StatusOK, response.BoardList{Boards: boards})
}

// Get handles GET /api/v1/boards/{id}
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Get(r.Context(), boardID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.BoardFromModel(state))
}

// Tap handles POST /api/v1/boards/{id}/tap
func (h *BoardHandler) Tap(w http.ResponseWriter, r *http.Request) {
	var req request.TapRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if req.Row == nil || req.Col == nil {
		WriteError(w, apierr.NewInvalidRequestError("row and col are required"))
		return
	}

	outcome, err := h.sessions.Tap(r.Context(), boardID(r), model.Position{Row: *req.Row, Col: *req.Col})
	if err != nil && outcome.Result.Outcome == board.OutcomeMatched {
		// The match already changed the board, so report it with the error
		status, apiErr := apierr.Describe(err)
		response.JSON(w, status, response.TapFailure{
			Error: apiErr,
			Tap:   response.TapResponseFromResult(outcome.Result, outcome.State),
		})
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.TapResponseFromResult(outcome.Result, outcome.State))
}

// Shuffle handles POST /api/v1/boards/{id}/shuffle
func (h *BoardHandler) Shuffle(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.sessions.Shuffle(r.Context(), boardID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ShuffleResponseFromResult(outcome.Result, outcome.State))
}

// Delete handles DELETE /api/v1/boards/{id}
func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), boardID(r)); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Events handles GET /api/v1/boards/{id}/events
func (h *BoardHandler) Events(w http.ResponseWriter, r *http.Request) {
	id := boardID(r)
	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	hub := h.hubs.GetOrCreateHub(id)
	// The board may have been deleted while the hub was being created
	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		h.hubs.RemoveHub(id)
		WriteError(w, err)
		return
	}

	sse.ServeSSE(w, r, hub)
}
