package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/blockmatch/internal/api"
	"github.com/mcoot/blockmatch/internal/api/handler"
	"github.com/mcoot/blockmatch/internal/api/sse"
	"github.com/mcoot/blockmatch/internal/dependencies/clock"
	"github.com/mcoot/blockmatch/internal/dependencies/random"
	"github.com/mcoot/blockmatch/internal/services/levels"
	"github.com/mcoot/blockmatch/internal/services/session"
	"github.com/mcoot/blockmatch/internal/storage"
	"github.com/mcoot/blockmatch/internal/storage/memory"
	redisstorage "github.com/mcoot/blockmatch/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Backend handler.Pinger // Set when the storage can be pinged

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Levels     *levels.Service
	Sessions   *session.Manager
	HubManager *sse.HubManager
	Publisher  *sse.Publisher

	logger  *slog.Logger
	closers []func() error
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the level storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// LevelsDir is a directory of *.json level files imported at startup (optional)
	LevelsDir string
	// Session holds board session settings
	// If zero value, defaults to session.DefaultConfig()
	Session session.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	sessionCfg := cfg.Session
	if sessionCfg.IDLength == 0 {
		sessionCfg = session.DefaultConfig()
	}
	if err := sessionCfg.Engine.Validate(); err != nil {
		return nil, err
	}

	var (
		store   storage.Storage
		backend handler.Pinger
		closers []func() error
	)
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		if err := redisStore.Ping(ctx); err != nil {
			_ = redisStore.Close()
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		store, backend = redisStore, redisStore
		closers = append(closers, redisStore.Close)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	app := newWithDependencies(store, clock.New(), random.New(), sessionCfg, logger)
	app.Backend = backend
	app.closers = append(app.closers, closers...)

	if cfg.LevelsDir != "" {
		if _, err := app.Levels.ImportDir(ctx, cfg.LevelsDir); err != nil {
			_ = app.Close()
			return nil, err
		}
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, sessionCfg session.Config, logger *slog.Logger) *App {
	levelService := levels.New(store, logger)
	hubManager := sse.NewHubManager(logger)
	publisher := sse.NewPublisher(hubManager, clk, logger)
	sessions := session.NewManager(levelService, publisher, clk, rnd, sessionCfg, logger)

	return &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Levels:     levelService,
		Sessions:   sessions,
		HubManager: hubManager,
		Publisher:  publisher,
		logger:     logger,
	}
}

// Router builds the HTTP API for the app
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:     a.logger,
		Sessions:   a.Sessions,
		Levels:     a.Levels,
		HubManager: a.HubManager,
		Backend:    a.Backend,
	})
}

// RunJanitor drops SSE hubs nobody is watching until ctx is done
func (a *App) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.HubManager.CleanupEmptyHubs()
		}
	}
}

// Close tears down every board and releases the storage backend
func (a *App) Close() error {
	a.Sessions.Close()
	a.HubManager.Close()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
