package board

import (
	"fmt"

	"github.com/mcoot/blockmatch/internal/model"
)

// Direction is an orthogonal neighbour offset
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// DefaultNeighbourOrder is the push order used unless overridden
var DefaultNeighbourOrder = [4]Direction{Up, Down, Left, Right}

var offsets = [4]model.Position{
	Up:    {Row: -1, Col: 0},
	Down:  {Row: 1, Col: 0},
	Left:  {Row: 0, Col: -1},
	Right: {Row: 0, Col: 1},
}

// Finder extracts connected same-color groups with an iterative depth-first
// flood fill. The visited set, explore stack and result buffer are reused
// across calls, so a Finder must not be shared between goroutines and a
// returned Group is only valid until the next Find.
type Finder struct {
	visited []bool
	stack   []int
	group   model.Group
	order   [4]Direction
}

// NewFinder creates a Finder with buffers sized for size cells
func NewFinder(size int) *Finder {
	return &Finder{
		visited: make([]bool, size),
		stack:   make([]int, 0, size),
		group:   make(model.Group, 0, size),
		order:   DefaultNeighbourOrder,
	}
}

// SetNeighbourOrder changes the order neighbours are pushed. The order must
// name each direction exactly once.
func (f *Finder) SetNeighbourOrder(order [4]Direction) error {
	var seen [4]bool
	for _, d := range order {
		if d > Right || seen[d] {
			return fmt.Errorf("%w: neighbour order %v is not a permutation", model.ErrInvalidConfig, order)
		}
		seen[d] = true
	}
	f.order = order
	return nil
}

// Find returns the maximal group of same-colored cells 4-connected to start
func (f *Finder) Find(g *model.Grid, start model.Position) (model.Group, error) {
	origin, err := g.Get(start)
	if err != nil {
		return nil, err
	}
	if origin == nil {
		return nil, fmt.Errorf("%w: (%d, %d)", model.ErrEmptyStartCell, start.Row, start.Col)
	}

	if len(f.visited) < g.Len() {
		f.visited = make([]bool, g.Len())
	} else {
		clear(f.visited)
	}
	f.stack = append(f.stack[:0], g.Index(start))
	f.group = f.group[:0]
	color := origin.Color

	for len(f.stack) > 0 {
		idx := f.stack[len(f.stack)-1]
		f.stack = f.stack[:len(f.stack)-1]
		if f.visited[idx] {
			continue
		}
		pos := g.PositionOf(idx)
		b := g.At(pos)
		if b == nil || b.Color != color {
			continue
		}
		f.visited[idx] = true
		f.group = append(f.group, pos)

		for _, d := range f.order {
			next := model.Position{Row: pos.Row + offsets[d].Row, Col: pos.Col + offsets[d].Col}
			// Linear indices wrap across row edges, so reject off-grid
			// neighbours before encoding them.
			if !g.Contains(next) {
				continue
			}
			f.stack = append(f.stack, g.Index(next))
		}
	}
	return f.group, nil
}
