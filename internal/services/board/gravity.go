package board

import (
	"github.com/mcoot/blockmatch/internal/model"
)

// settleColumn drops the blocks of col into the gaps below them, keeping
// their relative order, then asks the source for exactly one block per
// remaining empty cell at the top.
func (e *Engine) settleColumn(col int) error {
	for row := e.grid.Rows - 1; row >= 0; row-- {
		to := model.Position{Row: row, Col: col}
		if e.grid.IsOccupied(to) {
			continue
		}
		above := row - 1
		for above >= 0 && !e.grid.IsOccupied(model.Position{Row: above, Col: col}) {
			above--
		}
		if above < 0 {
			break
		}
		from := model.Position{Row: above, Col: col}
		b := e.grid.At(from)
		if err := e.grid.Move(from, to); err != nil {
			return err
		}
		e.sink.BlockMoved(b, from, to)
	}

	empty, err := e.grid.EmptyInColumn(col)
	if err != nil {
		return err
	}
	for row := empty - 1; row >= 0; row-- {
		if err := e.place(model.Position{Row: row, Col: col}, e.source.RefillBlock(col)); err != nil {
			return err
		}
	}
	return nil
}
