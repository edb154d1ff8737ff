package board

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/blockmatch/internal/model"
)

// Outcome describes what a tap did
type Outcome string

const (
	OutcomeEmpty    Outcome = "empty"
	OutcomeRejected Outcome = "rejected"
	OutcomeMatched  Outcome = "matched"
)

// TapResult reports the effect of one tap
type TapResult struct {
	Outcome Outcome
	Removed int   // Blocks cleared by the match
	Columns []int // Distinct touched columns, ascending
	Shuffle *ShuffleResult
}

// Err returns model.ErrRejectedMatch for a rejected tap and nil otherwise.
// A rejection is a normal outcome, so Tap itself does not return it.
func (r TapResult) Err() error {
	if r.Outcome == OutcomeRejected {
		return model.ErrRejectedMatch
	}
	return nil
}

// Tap resolves a player selection at pos. An empty cell is a no-op and a
// group smaller than MinMatch is rejected without touching the board.
// Otherwise the group is cleared, the touched columns settle and refill,
// groups around them are re-tiered and the board is shuffled if no move
// remains.
func (e *Engine) Tap(ctx context.Context, pos model.Position) (TapResult, error) {
	if err := e.checkOpen(); err != nil {
		return TapResult{}, err
	}
	b, err := e.grid.Get(pos)
	if err != nil {
		return TapResult{}, err
	}
	if e.locked || e.phase != phaseIdle {
		return TapResult{}, model.ErrBoardLocked
	}
	if b == nil {
		return TapResult{Outcome: OutcomeEmpty}, nil
	}

	group, err := e.finder.Find(e.grid, pos)
	if err != nil {
		return TapResult{}, err
	}
	if len(group) < e.cfg.MinMatch {
		e.sink.MatchRejected(pos)
		e.logger.Debug("match rejected",
			slog.Int("row", pos.Row),
			slog.Int("col", pos.Col),
			slog.Int("size", len(group)),
		)
		return TapResult{Outcome: OutcomeRejected}, nil
	}

	result, err := e.resolve(group)
	if err != nil {
		return result, err
	}
	e.logger.Debug("match resolved",
		slog.Int("row", pos.Row),
		slog.Int("col", pos.Col),
		slog.Int("removed", result.Removed),
		slog.Any("columns", result.Columns),
	)

	if !e.IsPlayable() {
		e.logger.Info("board has no moves, shuffling")
		shuffle, err := e.Shuffle(ctx)
		result.Shuffle = &shuffle
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// resolve clears group and runs gravity, refill and reclassification
func (e *Engine) resolve(group model.Group) (TapResult, error) {
	e.phase = phaseResolving
	defer func() { e.phase = phaseIdle }()

	cols := group.Columns()
	removed := len(group)
	for _, pos := range group {
		b := e.grid.At(pos)
		if err := e.grid.SetEmpty(pos); err != nil {
			return TapResult{}, err
		}
		e.sink.BlockRemoved(b, pos)
		e.source.Release(b)
	}

	for _, col := range cols {
		if err := e.settleColumn(col); err != nil {
			return TapResult{}, fmt.Errorf("failed to settle column %d: %w", col, err)
		}
	}
	e.reclassifyColumns(cols[0]-1, cols[len(cols)-1]+1)

	return TapResult{Outcome: OutcomeMatched, Removed: removed, Columns: cols}, nil
}
