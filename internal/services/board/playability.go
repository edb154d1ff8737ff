package board

import (
	"github.com/mcoot/blockmatch/internal/model"
)

// IsPlayable reports whether some occupied cell has a same-colored
// orthogonal neighbour. Checking right and down from every cell covers
// every adjacent pair once.
func IsPlayable(g *model.Grid) bool {
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			b := g.At(model.Position{Row: row, Col: col})
			if b == nil {
				continue
			}
			if right := g.At(model.Position{Row: row, Col: col + 1}); right != nil && right.Color == b.Color {
				return true
			}
			if below := g.At(model.Position{Row: row + 1, Col: col}); below != nil && below.Color == b.Color {
				return true
			}
		}
	}
	return false
}
