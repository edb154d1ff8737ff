package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/blockmatch/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeOutOfBounds      = "OUT_OF_BOUNDS"
	CodeEmptyCell        = "EMPTY_CELL"
	CodeInvalidLevel     = "INVALID_LEVEL"
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeBoardLocked      = "BOARD_LOCKED"
	CodeBoardNotFound    = "BOARD_NOT_FOUND"
	CodeLevelNotFound    = "LEVEL_NOT_FOUND"
	CodeShuffleExhausted = "SHUFFLE_EXHAUSTED"
	CodeTooManyBoards    = "TOO_MANY_BOARDS"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// Describe returns the HTTP status and API error an error maps to, for
// handlers that send extra context alongside the error
func Describe(err error) (int, APIError) {
	he := toHTTPError(err)
	return he.status, he.apiError
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrBoardNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeBoardNotFound, "Board not found"}}
	case errors.Is(err, model.ErrLevelNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeLevelNotFound, "Level not found"}}
	case errors.Is(err, model.ErrOutOfBounds):
		return &httpError{http.StatusBadRequest, APIError{CodeOutOfBounds, "Position is outside the board"}}
	case errors.Is(err, model.ErrEmptyStartCell):
		return &httpError{http.StatusBadRequest, APIError{CodeEmptyCell, "Cell is empty"}}
	case errors.Is(err, model.ErrInvalidLevel), errors.Is(err, model.ErrInvalidDimensions):
		// Validation messages name the offending field
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidLevel, err.Error()}}
	case errors.Is(err, model.ErrInvalidConfig):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidConfig, err.Error()}}
	case errors.Is(err, model.ErrBoardLocked):
		return &httpError{http.StatusConflict, APIError{CodeBoardLocked, "Board is shuffling, try again shortly"}}
	case errors.Is(err, model.ErrShuffleExhausted):
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeShuffleExhausted, "No playable layout could be found for this board"}}
	case errors.Is(err, model.ErrTooManyBoards):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeTooManyBoards, "Too many boards are open"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewNotFoundError creates an error for unknown routes
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeNotFound, "No such endpoint"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
