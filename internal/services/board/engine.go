package board

import (
	"fmt"
	"log/slog"

	"github.com/mcoot/blockmatch/internal/dependencies/random"
	"github.com/mcoot/blockmatch/internal/model"
)

// Dependencies are the collaborators injected into an Engine. Only Source
// is required.
type Dependencies struct {
	Source  BlockSource
	Sink    Sink
	Settler Settler // Defaults to Sink when it implements Settler
	Gate    InputGate
	Random  random.Random
	Logger  *slog.Logger
}

type phase uint8

const (
	phaseIdle phase = iota
	phaseResolving
)

// Engine owns one board: its grid, the flood-fill buffers and the tap and
// shuffle state machines. An Engine is not safe for concurrent use; callers
// serialise access to it.
type Engine struct {
	cfg        Config
	level      string
	grid       *model.Grid
	finder     *Finder
	classifier *Classifier

	source  BlockSource
	sink    Sink
	settler Settler
	gate    InputGate
	random  random.Random
	logger  *slog.Logger

	phase     phase
	locked    bool
	shuffling bool
	closed    bool
}

// New builds a board for level. Cells are filled from the level layout when
// it has one and with random blocks otherwise, then every group is
// classified. New does not shuffle; call EnsurePlayable for that.
func New(level model.Level, cfg Config, deps Dependencies) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Source == nil {
		return nil, fmt.Errorf("%w: block source is required", model.ErrInvalidConfig)
	}
	if level.HasLayout() {
		if err := level.Validate(); err != nil {
			return nil, err
		}
	}
	grid, err := model.NewGrid(level.Rows, level.Cols)
	if err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(cfg.TierThresholds)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		level:      level.Name,
		grid:       grid,
		finder:     NewFinder(grid.Len()),
		classifier: classifier,
		source:     deps.Source,
		sink:       deps.Sink,
		settler:    deps.Settler,
		gate:       deps.Gate,
		random:     deps.Random,
		logger:     deps.Logger,
	}
	if e.sink == nil {
		e.sink = NopSink{}
	}
	if e.settler == nil {
		if s, ok := e.sink.(Settler); ok {
			e.settler = s
		}
	}
	if e.gate == nil {
		e.gate = nopGate{}
	}
	if e.random == nil {
		e.random = random.New()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	e.logger = e.logger.With(slog.String("component", "board"), slog.String("level", level.Name))

	if err := e.fill(level); err != nil {
		e.Close()
		return nil, err
	}
	e.reclassifyColumns(0, grid.Cols-1)

	e.logger.Debug("board created",
		slog.Int("rows", grid.Rows),
		slog.Int("cols", grid.Cols),
		slog.Bool("layout", level.HasLayout()),
	)
	return e, nil
}

func (e *Engine) fill(level model.Level) error {
	for row := 0; row < level.Rows; row++ {
		for col := 0; col < level.Cols; col++ {
			var b *model.Block
			if level.HasLayout() {
				b = e.source.Block(level.Layout[row][col])
			} else {
				b = e.source.RandomBlock()
			}
			if err := e.place(model.Position{Row: row, Col: col}, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// place puts a freshly sourced block into an empty cell
func (e *Engine) place(pos model.Position, b *model.Block) error {
	if b == nil {
		return fmt.Errorf("block source returned no block for (%d, %d): %w", pos.Row, pos.Col, model.ErrNilBlock)
	}
	b.Tier = 0
	if err := e.grid.SetBlock(pos, b); err != nil {
		e.source.Release(b)
		return err
	}
	e.sink.BlockSpawned(b, pos)
	return nil
}

// Grid exposes the board for read-only inspection
func (e *Engine) Grid() *model.Grid {
	return e.grid
}

// Level returns the name of the level the board was built from
func (e *Engine) Level() string {
	return e.level
}

// Config returns the engine rules
func (e *Engine) Config() Config {
	return e.cfg
}

// Locked reports whether input is currently refused
func (e *Engine) Locked() bool {
	return e.locked
}

// IsPlayable reports whether any tap could clear a group
func (e *Engine) IsPlayable() bool {
	return IsPlayable(e.grid)
}

// EmptyCountInColumn counts the empty cells of col
func (e *Engine) EmptyCountInColumn(col int) (int, error) {
	return e.grid.EmptyInColumn(col)
}

// Find runs the flood fill from pos. The group is only valid until the next
// engine call.
func (e *Engine) Find(pos model.Position) (model.Group, error) {
	return e.finder.Find(e.grid, pos)
}

// Snapshot copies the board into a read-only view
func (e *Engine) Snapshot() model.BoardState {
	return model.BoardState{
		Level:    e.level,
		Rows:     e.grid.Rows,
		Cols:     e.grid.Cols,
		Cells:    model.SnapshotGrid(e.grid),
		Locked:   e.locked,
		Playable: e.IsPlayable(),
	}
}

// Close tears the board down and returns every block to the source.
// Calling Close more than once is harmless.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	for _, pos := range e.grid.Occupied() {
		b := e.grid.At(pos)
		_ = e.grid.SetEmpty(pos)
		e.source.Release(b)
	}
	e.logger.Debug("board closed")
}

func (e *Engine) checkOpen() error {
	if e.closed {
		return fmt.Errorf("%w: board has been closed", model.ErrBoardNotFound)
	}
	return nil
}

// reclassifyColumns re-tiers the group of every occupied cell in columns
// lo..hi, clipped to the grid
func (e *Engine) reclassifyColumns(lo, hi int) {
	lo = max(lo, 0)
	hi = min(hi, e.grid.Cols-1)
	for col := lo; col <= hi; col++ {
		for row := 0; row < e.grid.Rows; row++ {
			pos := model.Position{Row: row, Col: col}
			if !e.grid.IsOccupied(pos) {
				continue
			}
			group, err := e.finder.Find(e.grid, pos)
			if err != nil {
				continue
			}
			e.classifier.Classify(e.grid, group, e.sink)
		}
	}
}
