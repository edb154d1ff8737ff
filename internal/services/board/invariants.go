package board

import (
	"errors"
	"fmt"

	"github.com/mcoot/blockmatch/internal/model"
)

// CheckInvariants verifies the structural rules every settled board obeys:
// each block is held by one cell, occupied cells carry a palette color and
// no column has an occupied cell above an empty one.
func CheckInvariants(g *model.Grid) error {
	var errs []error
	owners := make(map[*model.Block]model.Position, g.Len())
	for col := 0; col < g.Cols; col++ {
		sawBlock := false
		for row := 0; row < g.Rows; row++ {
			pos := model.Position{Row: row, Col: col}
			b := g.At(pos)
			if b == nil {
				if sawBlock {
					errs = append(errs, fmt.Errorf("column %d: empty cell at row %d below a block", col, row))
				}
				continue
			}
			sawBlock = true
			if !b.Color.Valid() {
				errs = append(errs, fmt.Errorf("(%d, %d): block %d has no color", row, col, b.ID))
			}
			if prev, ok := owners[b]; ok {
				errs = append(errs, fmt.Errorf("block %d held by (%d, %d) and (%d, %d)", b.ID, prev.Row, prev.Col, row, col))
			}
			owners[b] = pos
		}
	}
	return errors.Join(errs...)
}

// CheckInvariants verifies the grid rules, that every block's tier matches
// its group size and that the board is playable while unlocked
func (e *Engine) CheckInvariants() error {
	errs := []error{CheckInvariants(e.grid)}
	for _, pos := range e.grid.Occupied() {
		tier := e.grid.At(pos).Tier
		group, err := e.finder.Find(e.grid, pos)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if want := e.classifier.TierFor(len(group)); tier != want {
			errs = append(errs, fmt.Errorf("(%d, %d): tier %d, want %d for group of %d", pos.Row, pos.Col, tier, want, len(group)))
		}
	}
	if !e.locked && !e.IsPlayable() {
		errs = append(errs, errors.New("board is unlocked but has no moves"))
	}
	return errors.Join(errs...)
}
