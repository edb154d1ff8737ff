package model

import (
	"fmt"
	"strings"
)

// Color is the palette entry a block is drawn with. The zero value is not a
// valid block color.
type Color uint8

const (
	ColorNone Color = iota
	ColorRed
	ColorGreen
	ColorBlue
	ColorYellow
	ColorPurple
	ColorPink
)

// Palette lists every playable color in a stable order. Levels with N colors
// draw from the first N entries.
var Palette = []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow, ColorPurple, ColorPink}

var colorNames = map[Color]string{
	ColorNone:   "none",
	ColorRed:    "red",
	ColorGreen:  "green",
	ColorBlue:   "blue",
	ColorYellow: "yellow",
	ColorPurple: "purple",
	ColorPink:   "pink",
}

// String returns the lowercase color name
func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

var colorLetters = map[Color]string{
	ColorRed:    "R",
	ColorGreen:  "G",
	ColorBlue:   "B",
	ColorYellow: "Y",
	ColorPurple: "P",
	ColorPink:   "K",
}

// Letter returns a single uppercase letter for compact grid output
func (c Color) Letter() string {
	if l, ok := colorLetters[c]; ok {
		return l
	}
	return "?"
}

// ParseLetter is the inverse of Letter
func ParseLetter(s string) (Color, error) {
	needle := strings.ToUpper(strings.TrimSpace(s))
	for c, l := range colorLetters {
		if l == needle {
			return c, nil
		}
	}
	return ColorNone, fmt.Errorf("%w: unknown color letter %q", ErrInvalidLevel, s)
}

// Valid reports whether c is a playable palette color
func (c Color) Valid() bool {
	return c > ColorNone && c <= ColorPink
}

// ParseColor converts a color name (case-insensitive) to a Color
func ParseColor(s string) (Color, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for c, name := range colorNames {
		if c != ColorNone && name == needle {
			return c, nil
		}
	}
	return ColorNone, fmt.Errorf("%w: unknown color %q", ErrInvalidLevel, s)
}

// MarshalText encodes the color by name so level files stay readable
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: cannot encode %s", ErrInvalidLevel, c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a color name
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PaletteOf returns the first n palette colors, clamped to the palette size
func PaletteOf(n int) []Color {
	if n <= 0 {
		return nil
	}
	if n > len(Palette) {
		n = len(Palette)
	}
	out := make([]Color, n)
	copy(out, Palette[:n])
	return out
}

// Tier is a block's size category, derived from the size of the group it
// belongs to. Tier 0 is the default look.
type Tier uint8

// BlockID identifies a block handle for the lifetime of its pool
type BlockID uint64

// Block is a colored game piece. A block is owned by at most one grid cell.
type Block struct {
	ID    BlockID
	Color Color
	Tier  Tier
}
