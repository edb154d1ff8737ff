package board

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/blockmatch/internal/dependencies/random"
	"github.com/mcoot/blockmatch/internal/model"
)

// ShuffleResult reports how a shuffle went
type ShuffleResult struct {
	Attempts int  // Permutations tried
	Skipped  bool // Another shuffle was already running
	Playable bool
}

// Permute applies a Fisher-Yates shuffle to s in place
func Permute[T any](s []T, rnd random.Random) {
	for i := len(s) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// EnsurePlayable shuffles the board only when it has no move
func (e *Engine) EnsurePlayable(ctx context.Context) (ShuffleResult, error) {
	if err := e.checkOpen(); err != nil {
		return ShuffleResult{}, err
	}
	if e.IsPlayable() {
		return ShuffleResult{Playable: true}, nil
	}
	return e.Shuffle(ctx)
}

// Shuffle redistributes the blocks already on the board until a move exists.
// Input is disabled and the board hidden for the whole run, and both are
// restored even when every attempt fails. A shuffle requested while one is
// running is skipped. Once started, a shuffle is not cancelled by ctx; ctx
// only bounds the wait for animations to settle.
func (e *Engine) Shuffle(ctx context.Context) (ShuffleResult, error) {
	if err := e.checkOpen(); err != nil {
		return ShuffleResult{}, err
	}
	if e.shuffling {
		return ShuffleResult{Skipped: true}, nil
	}
	e.shuffling = true
	defer func() { e.shuffling = false }()

	positions := e.grid.Occupied()
	blocks := e.grid.Blocks()
	if !hasRepeatedColor(blocks) {
		err := fmt.Errorf("%w: no color appears twice among %d blocks", model.ErrShuffleExhausted, len(blocks))
		e.logger.Error("shuffle impossible", slog.Any("error", err))
		return ShuffleResult{}, err
	}

	e.lock()
	defer e.unlock()

	if e.settler != nil {
		if err := e.settler.AwaitStationary(ctx); err != nil {
			e.logger.Warn("blocks did not settle before shuffle", slog.Any("error", err))
		}
	}

	origin := make(map[*model.Block]model.Position, len(blocks))
	for attempt := 1; attempt <= e.cfg.MaxShuffleAttempts; attempt++ {
		for _, pos := range positions {
			origin[e.grid.At(pos)] = pos
		}
		Permute(blocks, e.random)
		if err := e.reassign(positions, blocks, origin); err != nil {
			return ShuffleResult{Attempts: attempt}, err
		}
		e.reclassifyColumns(0, e.grid.Cols-1)

		if e.IsPlayable() {
			e.logger.Info("board shuffled", slog.Int("attempts", attempt))
			return ShuffleResult{Attempts: attempt, Playable: true}, nil
		}
	}

	err := fmt.Errorf("%w: no playable layout after %d attempts", model.ErrShuffleExhausted, e.cfg.MaxShuffleAttempts)
	e.logger.Error("shuffle exhausted",
		slog.Int("attempts", e.cfg.MaxShuffleAttempts),
		slog.Any("error", err),
	)
	return ShuffleResult{Attempts: e.cfg.MaxShuffleAttempts}, err
}

// reassign writes blocks back into positions in order. Every target cell
// is cleared before any block is placed, so no block is ever held by two
// cells.
func (e *Engine) reassign(positions []model.Position, blocks []*model.Block, origin map[*model.Block]model.Position) error {
	for _, pos := range positions {
		if err := e.grid.SetEmpty(pos); err != nil {
			return err
		}
	}
	for i, pos := range positions {
		b := blocks[i]
		if err := e.grid.SetBlock(pos, b); err != nil {
			return err
		}
		if from := origin[b]; from != pos {
			e.sink.BlockMoved(b, from, pos)
		}
		e.cfg.yield()
	}
	return nil
}

func (e *Engine) lock() {
	e.locked = true
	e.gate.SetInteractionEnabled(false)
	e.sink.BoardHidden()
}

func (e *Engine) unlock() {
	e.sink.BoardRevealed()
	e.gate.SetInteractionEnabled(true)
	e.locked = false
}

func hasRepeatedColor(blocks []*model.Block) bool {
	seen := make(map[model.Color]bool, len(model.Palette))
	for _, b := range blocks {
		if seen[b.Color] {
			return true
		}
		seen[b.Color] = true
	}
	return false
}
