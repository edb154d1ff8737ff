package model

import "time"

// Position identifies a cell on the board
type Position struct {
	Row int `json:"row"` // 0-indexed from top
	Col int `json:"col"` // 0-indexed from left
}

// Group is a connected same-color region found by flood fill. A Group handed
// out by the engine shares its backing array with the engine's buffers and is
// only valid until the next engine call.
type Group []Position

// Columns returns the distinct columns touched by the group in ascending order
func (g Group) Columns() []int {
	if len(g) == 0 {
		return nil
	}
	lo, hi := g[0].Col, g[0].Col
	for _, p := range g[1:] {
		lo = min(lo, p.Col)
		hi = max(hi, p.Col)
	}
	seen := make([]bool, hi-lo+1)
	for _, p := range g {
		seen[p.Col-lo] = true
	}
	cols := make([]int, 0, len(seen))
	for i, ok := range seen {
		if ok {
			cols = append(cols, lo+i)
		}
	}
	return cols
}

// BoardID identifies a live board session
type BoardID string

// CellState is a read-only view of one cell
type CellState struct {
	BlockID BlockID
	Color   Color
	Tier    Tier
}

// BoardState is a read-only snapshot of a board: nil cells are empty
type BoardState struct {
	ID        BoardID
	Level     string
	Rows      int
	Cols      int
	Cells     [][]*CellState // Row-major: Cells[row][col]
	Locked    bool
	Playable  bool
	CreatedAt time.Time
}

// SnapshotGrid copies the grid contents into row-major cell views
func SnapshotGrid(g *Grid) [][]*CellState {
	cells := make([][]*CellState, g.Rows)
	for row := range cells {
		cells[row] = make([]*CellState, g.Cols)
		for col := range cells[row] {
			if b := g.At(Position{Row: row, Col: col}); b != nil {
				cells[row][col] = &CellState{BlockID: b.ID, Color: b.Color, Tier: b.Tier}
			}
		}
	}
	return cells
}

// Get returns the cell at pos, or nil if it is empty or out of bounds
func (s *BoardState) Get(pos Position) *CellState {
	if pos.Row < 0 || pos.Row >= s.Rows || pos.Col < 0 || pos.Col >= s.Cols {
		return nil
	}
	return s.Cells[pos.Row][pos.Col]
}

// EmptyCount returns the number of empty cells
func (s *BoardState) EmptyCount() int {
	count := 0
	for _, row := range s.Cells {
		for _, c := range row {
			if c == nil {
				count++
			}
		}
	}
	return count
}
