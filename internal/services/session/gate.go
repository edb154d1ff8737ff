package session

import (
	"sync/atomic"

	"github.com/mcoot/blockmatch/internal/services/board"
)

// Gate is the interaction flag of one board. Taps consult it before they
// reach the engine; only the engine's shuffle protocol toggles it.
type Gate struct {
	enabled  atomic.Bool
	onChange func(enabled bool)
}

var _ board.InputGate = (*Gate)(nil)

// NewGate creates an enabled gate. onChange may be nil.
func NewGate(onChange func(enabled bool)) *Gate {
	g := &Gate{onChange: onChange}
	g.enabled.Store(true)
	return g
}

// SetInteractionEnabled flips the flag and reports real changes
func (g *Gate) SetInteractionEnabled(enabled bool) {
	if g.enabled.Swap(enabled) == enabled {
		return
	}
	if g.onChange != nil {
		g.onChange(enabled)
	}
}

// Enabled reports whether taps may reach the engine
func (g *Gate) Enabled() bool {
	return g.enabled.Load()
}
