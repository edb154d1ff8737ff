package board

import (
	"context"

	"github.com/mcoot/blockmatch/internal/model"
)

// BlockSource supplies and recycles blocks. The engine never picks colors
// itself.
type BlockSource interface {
	// RefillBlock returns a new block for the top of col after gravity
	RefillBlock(col int) *model.Block

	// RandomBlock returns a block for random board initialization
	RandomBlock() *model.Block

	// Block returns a block of the given color for explicit level layouts
	Block(color model.Color) *model.Block

	// Release hands a cleared block back to the source
	Release(b *model.Block)
}

// Sink receives fire-and-forget lifecycle notifications. Implementations
// must not call back into the engine.
type Sink interface {
	BlockRemoved(b *model.Block, at model.Position)
	BlockMoved(b *model.Block, from, to model.Position)
	BlockSpawned(b *model.Block, at model.Position)
	BlockTierChanged(b *model.Block, tier model.Tier)
	MatchRejected(at model.Position)
	BoardHidden()
	BoardRevealed()
}

// Settler is implemented by view collaborators that animate blocks.
// AwaitStationary returns once every in-flight animation has been
// force-completed.
type Settler interface {
	AwaitStationary(ctx context.Context) error
}

// InputGate pauses and resumes tap delivery. Only the shuffle protocol
// toggles it.
type InputGate interface {
	SetInteractionEnabled(enabled bool)
}

type nopGate struct{}

func (nopGate) SetInteractionEnabled(bool) {}
