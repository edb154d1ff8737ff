package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/blockmatch/internal/api/response"
	"github.com/mcoot/blockmatch/internal/services/session"
)

// Pinger is implemented by backends that can report their reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	sessions *session.Manager
	backend  Pinger
	logger   *slog.Logger
}

// NewHealthHandler creates a new health handler. backend may be nil.
func NewHealthHandler(sessions *session.Manager, backend Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{sessions: sessions, backend: backend, logger: logger}
}

// Check handles GET /api/v1/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.backend != nil {
		if err := h.backend.Ping(r.Context()); err != nil {
			h.logger.Error("health check failed", slog.Any("error", err))
			response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: "unavailable"})
			return
		}
	}
	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Boards: h.sessions.Count()})
}
