package model

import (
	"fmt"
	"regexp"
)

// Level limits
const (
	MaxLevelDimension = 32
	DefaultLevelName  = "default"
	DefaultRows       = 10
	DefaultCols       = 9
	DefaultColors     = 5
)

var levelNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Level is the read-once board configuration: grid size, palette size and an
// optional explicit color layout. A level without a layout is filled randomly.
type Level struct {
	Name   string    `json:"name"`
	Rows   int       `json:"rows"`
	Cols   int       `json:"cols"`
	Colors int       `json:"colors"`
	Layout [][]Color `json:"layout,omitempty"` // Row-major: Layout[row][col]
}

// DefaultLevel returns the built-in 10×9 random level
func DefaultLevel() Level {
	return Level{
		Name:   DefaultLevelName,
		Rows:   DefaultRows,
		Cols:   DefaultCols,
		Colors: DefaultColors,
	}
}

// Clone returns a deep copy of the level
func (l *Level) Clone() *Level {
	out := *l
	if l.Layout != nil {
		out.Layout = make([][]Color, len(l.Layout))
		for i, row := range l.Layout {
			out.Layout[i] = append([]Color(nil), row...)
		}
	}
	return &out
}

// HasLayout reports whether the level specifies explicit colors
func (l *Level) HasLayout() bool {
	return len(l.Layout) > 0
}

// Validate checks dimensions, palette size, and the layout shape
func (l *Level) Validate() error {
	if !levelNamePattern.MatchString(l.Name) {
		return fmt.Errorf("%w: name %q must be lowercase letters, digits, '-' or '_'", ErrInvalidLevel, l.Name)
	}
	if l.Rows <= 0 || l.Cols <= 0 || l.Rows > MaxLevelDimension || l.Cols > MaxLevelDimension {
		return fmt.Errorf("%w: dimensions %dx%d must be within 1..%d", ErrInvalidLevel, l.Rows, l.Cols, MaxLevelDimension)
	}
	if l.Colors < 1 || l.Colors > len(Palette) {
		return fmt.Errorf("%w: colors must be within 1..%d", ErrInvalidLevel, len(Palette))
	}
	if !l.HasLayout() {
		return nil
	}
	if len(l.Layout) != l.Rows {
		return fmt.Errorf("%w: layout has %d rows, want %d", ErrInvalidLevel, len(l.Layout), l.Rows)
	}
	for row, line := range l.Layout {
		if len(line) != l.Cols {
			return fmt.Errorf("%w: layout row %d has %d cells, want %d", ErrInvalidLevel, row, len(line), l.Cols)
		}
		for col, c := range line {
			if !c.Valid() {
				return fmt.Errorf("%w: layout (%d, %d) has no color", ErrInvalidLevel, row, col)
			}
		}
	}
	return nil
}

// Transpose converts a column-major layout (Layout[col][row]) into the
// row-major form used by Level
func Transpose(columns [][]Color) [][]Color {
	if len(columns) == 0 {
		return nil
	}
	rows := len(columns[0])
	out := make([][]Color, rows)
	for row := range out {
		out[row] = make([]Color, len(columns))
		for col := range columns {
			if row < len(columns[col]) {
				out[row][col] = columns[col][row]
			}
		}
	}
	return out
}
