package blocks

import (
	"log/slog"

	"github.com/mcoot/blockmatch/internal/dependencies/random"
	"github.com/mcoot/blockmatch/internal/model"
	"github.com/mcoot/blockmatch/internal/services/board"
)

// Source draws block colors uniformly from the first N palette colors and
// recycles handles through a Pool
type Source struct {
	palette []model.Color
	random  random.Random
	pool    *Pool
	logger  *slog.Logger
}

var _ board.BlockSource = (*Source)(nil)

// NewSource creates a Source for a level with the given number of colors
func NewSource(colors int, rnd random.Random, pool *Pool, logger *slog.Logger) *Source {
	palette := model.PaletteOf(colors)
	if len(palette) == 0 {
		palette = model.PaletteOf(1)
	}
	return &Source{
		palette: palette,
		random:  rnd,
		pool:    pool,
		logger:  logger,
	}
}

// Palette returns the colors the source draws from
func (s *Source) Palette() []model.Color {
	return s.palette
}

// Pool returns the backing pool
func (s *Source) Pool() *Pool {
	return s.pool
}

// RefillBlock returns a random block; the column does not bias the color
func (s *Source) RefillBlock(col int) *model.Block {
	return s.RandomBlock()
}

// RandomBlock returns a block of a uniformly random palette color
func (s *Source) RandomBlock() *model.Block {
	return s.Block(s.palette[s.random.Intn(len(s.palette))])
}

// Block returns a block of the given color
func (s *Source) Block(color model.Color) *model.Block {
	b := s.pool.Get()
	b.Color = color
	b.Tier = 0
	return b
}

// Release returns b to the pool
func (s *Source) Release(b *model.Block) {
	if !s.pool.Put(b) {
		s.logger.Warn("released block not owned by pool", slog.Any("block", b))
	}
}
