package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/blockmatch/internal/dependencies/clock"
	"github.com/mcoot/blockmatch/internal/dependencies/random"
	"github.com/mcoot/blockmatch/internal/model"
	"github.com/mcoot/blockmatch/internal/services/blocks"
	"github.com/mcoot/blockmatch/internal/services/board"
)

const boardIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// LevelResolver looks levels up by name
type LevelResolver interface {
	Get(ctx context.Context, name string) (*model.Level, error)
}

// EventPublisher delivers board notifications to watchers
type EventPublisher interface {
	// SinkFor returns the lifecycle sink for a new board
	SinkFor(id model.BoardID) board.Sink

	// InteractionChanged reports gate toggles
	InteractionChanged(id model.BoardID, enabled bool)

	// BoardClosed is called once a board has been torn down
	BoardClosed(id model.BoardID)
}

// Config holds session manager settings
type Config struct {
	Engine    board.Config
	MaxBoards int // Zero means unlimited
	IDLength  int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Engine:    board.DefaultConfig(),
		MaxBoards: 1000,
		IDLength:  12,
	}
}

// CreateParams selects the level for a new board. Non-zero Rows, Cols and
// Colors override the level; Seed makes block colors and shuffles
// reproducible.
type CreateParams struct {
	Level  string
	Rows   int
	Cols   int
	Colors int
	Seed   *uint64
}

// TapOutcome is the result of a tap together with the board it left
type TapOutcome struct {
	Result board.TapResult
	State  model.BoardState
}

// ShuffleOutcome is the result of a shuffle together with the board it left
type ShuffleOutcome struct {
	Result board.ShuffleResult
	State  model.BoardState
}

type liveBoard struct {
	mu        sync.Mutex
	id        model.BoardID
	engine    *board.Engine
	gate      *Gate
	createdAt time.Time
}

func (b *liveBoard) state() model.BoardState {
	s := b.engine.Snapshot()
	s.ID = b.id
	s.CreatedAt = b.createdAt
	return s
}

// Manager owns the live boards. Boards exist only in memory; each one is
// serialised by its own mutex.
type Manager struct {
	levels    LevelResolver
	publisher EventPublisher
	clock     clock.Clock
	random    random.Random
	cfg       Config
	logger    *slog.Logger

	mu       sync.RWMutex
	boards   map[model.BoardID]*liveBoard
	reserved map[model.BoardID]struct{} // IDs of boards still being built
}

// NewManager creates a new session Manager. publisher may be nil.
func NewManager(
	levels LevelResolver,
	publisher EventPublisher,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		levels:    levels,
		publisher: publisher,
		clock:     clock,
		random:    random,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "session")),
		boards:    make(map[model.BoardID]*liveBoard),
		reserved:  make(map[model.BoardID]struct{}),
	}
}

// Create builds a new board, makes sure it has a move and registers it
func (m *Manager) Create(ctx context.Context, params CreateParams) (model.BoardState, error) {
	level, err := m.resolveLevel(ctx, params)
	if err != nil {
		return model.BoardState{}, err
	}

	id, err := m.reserve()
	if err != nil {
		return model.BoardState{}, err
	}

	// The engine is built outside m.mu so other boards stay responsive
	live, err := m.build(ctx, id, level, params.Seed)
	m.mu.Lock()
	delete(m.reserved, id)
	if err == nil {
		m.boards[id] = live
	}
	m.mu.Unlock()
	if err != nil {
		return model.BoardState{}, err
	}

	m.logger.Info("board created",
		slog.String("board_id", string(id)),
		slog.String("level", level.Name),
		slog.Int("rows", level.Rows),
		slog.Int("cols", level.Cols),
		slog.Int("colors", level.Colors),
		slog.Bool("seeded", params.Seed != nil),
	)
	live.mu.Lock()
	defer live.mu.Unlock()
	return live.state(), nil
}

// reserve claims a free board ID and a capacity slot until Create registers
// or abandons the board
func (m *Manager) reserve() (model.BoardID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxBoards > 0 && len(m.boards)+len(m.reserved) >= m.cfg.MaxBoards {
		return "", model.ErrTooManyBoards
	}
	id, err := m.newID()
	if err != nil {
		return "", err
	}
	m.reserved[id] = struct{}{}
	return id, nil
}

// build creates a board's engine and makes sure it has a move
func (m *Manager) build(ctx context.Context, id model.BoardID, level *model.Level, seed *uint64) (*liveBoard, error) {
	colorRnd, shuffleRnd := m.random, m.random
	if seed != nil {
		colorRnd = random.NewSeeded(*seed)
		shuffleRnd = random.NewSeeded(*seed + 1)
	}

	var sink board.Sink = board.NopSink{}
	if m.publisher != nil {
		sink = m.publisher.SinkFor(id)
	}
	gate := NewGate(func(enabled bool) {
		if m.publisher != nil {
			m.publisher.InteractionChanged(id, enabled)
		}
	})
	logger := m.logger.With(slog.String("board_id", string(id)))
	source := blocks.NewSource(level.Colors, colorRnd, blocks.NewPool(level.Rows*level.Cols), logger)

	engine, err := board.New(*level, m.cfg.Engine, board.Dependencies{
		Source: source,
		Sink:   sink,
		Gate:   gate,
		Random: shuffleRnd,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	if _, err := engine.EnsurePlayable(ctx); err != nil {
		engine.Close()
		logger.Error("new board has no playable layout",
			slog.String("level", level.Name),
			slog.Any("error", err),
		)
		return nil, err
	}

	return &liveBoard{
		id:        id,
		engine:    engine,
		gate:      gate,
		createdAt: m.clock.Now(),
	}, nil
}

func (m *Manager) resolveLevel(ctx context.Context, params CreateParams) (*model.Level, error) {
	level, err := m.levels.Get(ctx, params.Level)
	if err != nil {
		return nil, err
	}
	resized := (params.Rows > 0 && params.Rows != level.Rows) || (params.Cols > 0 && params.Cols != level.Cols)
	if resized && level.HasLayout() {
		return nil, fmt.Errorf("%w: level %q has a fixed layout and cannot be resized", model.ErrInvalidLevel, level.Name)
	}
	if params.Rows > 0 {
		level.Rows = params.Rows
	}
	if params.Cols > 0 {
		level.Cols = params.Cols
	}
	if params.Colors > 0 {
		level.Colors = params.Colors
	}
	if err := level.Validate(); err != nil {
		return nil, err
	}
	return level, nil
}

// newID must be called with m.mu held
func (m *Manager) newID() (model.BoardID, error) {
	for range 16 {
		id := model.BoardID(m.random.String(m.cfg.IDLength, boardIDAlphabet))
		_, live := m.boards[id]
		_, pending := m.reserved[id]
		if !live && !pending && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique board id")
}

func (m *Manager) lookup(id model.BoardID) (*liveBoard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	live, ok := m.boards[id]
	if !ok {
		return nil, model.ErrBoardNotFound
	}
	return live, nil
}

// Get returns a snapshot of a board
func (m *Manager) Get(ctx context.Context, id model.BoardID) (model.BoardState, error) {
	live, err := m.lookup(id)
	if err != nil {
		return model.BoardState{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return live.state(), nil
}

// List returns snapshots of every live board ordered by creation time
func (m *Manager) List(ctx context.Context) []model.BoardState {
	m.mu.RLock()
	boards := make([]*liveBoard, 0, len(m.boards))
	for _, live := range m.boards {
		boards = append(boards, live)
	}
	m.mu.RUnlock()

	states := make([]model.BoardState, 0, len(boards))
	for _, live := range boards {
		live.mu.Lock()
		states = append(states, live.state())
		live.mu.Unlock()
	}
	slices.SortFunc(states, func(a, b model.BoardState) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return states
}

// Tap delivers a player tap. Taps arriving while the gate is closed are
// refused with model.ErrBoardLocked.
func (m *Manager) Tap(ctx context.Context, id model.BoardID, pos model.Position) (TapOutcome, error) {
	live, err := m.lookup(id)
	if err != nil {
		return TapOutcome{}, err
	}
	if !live.gate.Enabled() {
		return TapOutcome{}, model.ErrBoardLocked
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	result, err := live.engine.Tap(ctx, pos)
	if err != nil {
		m.logger.Warn("tap failed",
			slog.String("board_id", string(id)),
			slog.Int("row", pos.Row),
			slog.Int("col", pos.Col),
			slog.Any("error", err),
		)
		return TapOutcome{Result: result, State: live.state()}, err
	}
	return TapOutcome{Result: result, State: live.state()}, nil
}

// Shuffle reshuffles a board on request, even when it still has moves
func (m *Manager) Shuffle(ctx context.Context, id model.BoardID) (ShuffleOutcome, error) {
	live, err := m.lookup(id)
	if err != nil {
		return ShuffleOutcome{}, err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	result, err := live.engine.Shuffle(ctx)
	return ShuffleOutcome{Result: result, State: live.state()}, err
}

// Delete tears a board down and returns its blocks to the pool
func (m *Manager) Delete(ctx context.Context, id model.BoardID) error {
	m.mu.Lock()
	live, ok := m.boards[id]
	if ok {
		delete(m.boards, id)
	}
	m.mu.Unlock()
	if !ok {
		return model.ErrBoardNotFound
	}

	m.teardown(live)
	m.logger.Info("board deleted", slog.String("board_id", string(id)))
	return nil
}

func (m *Manager) teardown(live *liveBoard) {
	live.mu.Lock()
	live.engine.Close()
	live.mu.Unlock()
	if m.publisher != nil {
		m.publisher.BoardClosed(live.id)
	}
}

// Count returns the number of live boards
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.boards)
}

// Close tears down every live board
func (m *Manager) Close() {
	m.mu.Lock()
	boards := m.boards
	m.boards = make(map[model.BoardID]*liveBoard)
	m.mu.Unlock()

	for _, live := range boards {
		m.teardown(live)
	}
	if len(boards) > 0 {
		m.logger.Info("boards closed", slog.Int("count", len(boards)))
	}
}
