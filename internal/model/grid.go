package model

import "fmt"

// Grid is a fixed rows × cols matrix of cells. Each cell is either empty (nil)
// or holds a single *Block. Cells are stored row-major and addressed by the
// linear index row*Cols+col.
type Grid struct {
	Rows  int
	Cols  int
	cells []*Block
}

// NewGrid creates an empty grid
func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	return &Grid{
		Rows:  rows,
		Cols:  cols,
		cells: make([]*Block, rows*cols),
	}, nil
}

// Len returns the number of cells
func (g *Grid) Len() int {
	return len(g.cells)
}

// InBounds reports whether (row, col) addresses a cell
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}

// Contains reports whether pos addresses a cell
func (g *Grid) Contains(pos Position) bool {
	return g.InBounds(pos.Row, pos.Col)
}

// Index returns the linear index of an in-bounds position
func (g *Grid) Index(pos Position) int {
	return pos.Row*g.Cols + pos.Col
}

// PositionOf decodes a linear index
func (g *Grid) PositionOf(index int) Position {
	return Position{Row: index / g.Cols, Col: index % g.Cols}
}

func (g *Grid) check(pos Position) error {
	if !g.Contains(pos) {
		return fmt.Errorf("%w: (%d, %d) on %dx%d grid", ErrOutOfBounds, pos.Row, pos.Col, g.Rows, g.Cols)
	}
	return nil
}

// Get returns the block at pos, or nil for an empty cell
func (g *Grid) Get(pos Position) (*Block, error) {
	if err := g.check(pos); err != nil {
		return nil, err
	}
	return g.cells[g.Index(pos)], nil
}

// At is the unchecked form of Get: it returns nil for empty or out-of-bounds
// positions
func (g *Grid) At(pos Position) *Block {
	if !g.Contains(pos) {
		return nil
	}
	return g.cells[g.Index(pos)]
}

// IsOccupied reports whether pos is in bounds and holds a block
func (g *Grid) IsOccupied(pos Position) bool {
	return g.At(pos) != nil
}

// SetEmpty clears the cell at pos
func (g *Grid) SetEmpty(pos Position) error {
	if err := g.check(pos); err != nil {
		return err
	}
	g.cells[g.Index(pos)] = nil
	return nil
}

// SetBlock places b into the empty cell at pos. Assigning into an occupied
// cell is refused so a block can never silently replace another.
func (g *Grid) SetBlock(pos Position, b *Block) error {
	if err := g.check(pos); err != nil {
		return err
	}
	if b == nil {
		return ErrNilBlock
	}
	idx := g.Index(pos)
	if g.cells[idx] != nil {
		return fmt.Errorf("%w: (%d, %d)", ErrCellOccupied, pos.Row, pos.Col)
	}
	g.cells[idx] = b
	return nil
}

// Move transfers the block at from into the empty cell at to. Both positions
// are validated before either cell changes.
func (g *Grid) Move(from, to Position) error {
	if err := g.check(from); err != nil {
		return err
	}
	if err := g.check(to); err != nil {
		return err
	}
	src, dst := g.Index(from), g.Index(to)
	if g.cells[src] == nil {
		return fmt.Errorf("%w: (%d, %d)", ErrCellEmpty, from.Row, from.Col)
	}
	if src == dst {
		return nil
	}
	if g.cells[dst] != nil {
		return fmt.Errorf("%w: (%d, %d)", ErrCellOccupied, to.Row, to.Col)
	}
	g.cells[dst], g.cells[src] = g.cells[src], nil
	return nil
}

// EmptyInColumn counts the empty cells of a column
func (g *Grid) EmptyInColumn(col int) (int, error) {
	if err := g.check(Position{Row: 0, Col: col}); err != nil {
		return 0, err
	}
	count := 0
	for row := 0; row < g.Rows; row++ {
		if g.cells[row*g.Cols+col] == nil {
			count++
		}
	}
	return count, nil
}

// Occupied returns every occupied position in row-major order
func (g *Grid) Occupied() []Position {
	out := make([]Position, 0, len(g.cells))
	for i, b := range g.cells {
		if b != nil {
			out = append(out, g.PositionOf(i))
		}
	}
	return out
}

// Blocks returns every block in row-major order
func (g *Grid) Blocks() []*Block {
	out := make([]*Block, 0, len(g.cells))
	for _, b := range g.cells {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}
