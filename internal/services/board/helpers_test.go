package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcoot/blockmatch/internal/dependencies/random"
	"github.com/mcoot/blockmatch/internal/model"
)

var letterColors = map[rune]model.Color{
	'R': model.ColorRed,
	'G': model.ColorGreen,
	'B': model.ColorBlue,
	'Y': model.ColorYellow,
	'P': model.ColorPurple,
	'K': model.ColorPink,
}

// layoutOf turns rows of color letters into a row-major layout
func layoutOf(t *testing.T, rows ...string) [][]model.Color {
	t.Helper()
	out := make([][]model.Color, len(rows))
	for r, line := range rows {
		for _, ch := range line {
			c, ok := letterColors[ch]
			require.Truef(t, ok, "unknown color letter %q", ch)
			out[r] = append(out[r], c)
		}
	}
	return out
}

func levelOf(t *testing.T, rows ...string) model.Level {
	t.Helper()
	layout := layoutOf(t, rows...)
	return model.Level{
		Name:   "test",
		Rows:   len(layout),
		Cols:   len(layout[0]),
		Colors: len(model.Palette),
		Layout: layout,
	}
}

// scriptedSource hands out blocks with queued colors, falling back to a
// fixed color or to rnd when one is set
type scriptedSource struct {
	nextID      model.BlockID
	refills     []model.Color
	fallback    model.Color
	rnd         random.Random
	colors      int
	refillCalls []int
	released    []*model.Block
}

var _ BlockSource = (*scriptedSource)(nil)

func newScriptedSource(fallback model.Color) *scriptedSource {
	return &scriptedSource{fallback: fallback}
}

func (s *scriptedSource) next() model.Color {
	if len(s.refills) > 0 {
		c := s.refills[0]
		s.refills = s.refills[1:]
		return c
	}
	if s.rnd != nil {
		return model.Palette[s.rnd.Intn(s.colors)]
	}
	return s.fallback
}

func (s *scriptedSource) Block(color model.Color) *model.Block {
	s.nextID++
	return &model.Block{ID: s.nextID, Color: color}
}

func (s *scriptedSource) RefillBlock(col int) *model.Block {
	s.refillCalls = append(s.refillCalls, col)
	return s.Block(s.next())
}

func (s *scriptedSource) RandomBlock() *model.Block {
	return s.Block(s.next())
}

func (s *scriptedSource) Release(b *model.Block) {
	s.released = append(s.released, b)
}

func (s *scriptedSource) queue(colors ...model.Color) {
	s.refills = append(s.refills, colors...)
}

// recordingGate remembers every toggle
type recordingGate struct {
	calls []bool
}

func (g *recordingGate) SetInteractionEnabled(enabled bool) {
	g.calls = append(g.calls, enabled)
}

// funcSettler runs fn when the engine waits for blocks to settle
type funcSettler struct {
	fn func(ctx context.Context) error
}

func (s funcSettler) AwaitStationary(ctx context.Context) error {
	return s.fn(ctx)
}

func colorsOf(g *model.Grid) [][]model.Color {
	out := make([][]model.Color, g.Rows)
	for row := range out {
		out[row] = make([]model.Color, g.Cols)
		for col := range out[row] {
			if b := g.At(model.Position{Row: row, Col: col}); b != nil {
				out[row][col] = b.Color
			}
		}
	}
	return out
}

func positionSet(group model.Group) map[model.Position]bool {
	set := make(map[model.Position]bool, len(group))
	for _, p := range group {
		set[p] = true
	}
	return set
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Yield = nil
	return cfg
}
