package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/blockmatch/internal/api/apierr"
	"github.com/mcoot/blockmatch/internal/api/handler"
	"github.com/mcoot/blockmatch/internal/api/middleware"
	"github.com/mcoot/blockmatch/internal/api/sse"
	"github.com/mcoot/blockmatch/internal/services/levels"
	"github.com/mcoot/blockmatch/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger     *slog.Logger
	Sessions   *session.Manager
	Levels     *levels.Service
	HubManager *sse.HubManager
	Backend    handler.Pinger // Optional storage health check
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	boardHandler := handler.NewBoardHandler(cfg.Sessions, cfg.HubManager)
	levelHandler := handler.NewLevelHandler(cfg.Levels)
	healthHandler := handler.NewHealthHandler(cfg.Sessions, cfg.Backend, cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)

	// Level library
	api.HandleFunc("/levels", levelHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/levels/{name}", levelHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/levels/{name}", levelHandler.Put).Methods(http.MethodPut)
	api.HandleFunc("/levels/{name}", levelHandler.Delete).Methods(http.MethodDelete)

	// Live boards
	api.HandleFunc("/boards", boardHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/boards", boardHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/boards/{id}", boardHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/boards/{id}", boardHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/boards/{id}/tap", boardHandler.Tap).Methods(http.MethodPost)
	api.HandleFunc("/boards/{id}/shuffle", boardHandler.Shuffle).Methods(http.MethodPost)
	api.HandleFunc("/boards/{id}/events", boardHandler.Events).Methods(http.MethodGet)

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	return r
}
