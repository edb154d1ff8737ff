package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/blockmatch/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// outputFor returns the formatter for a command
func outputFor(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout())
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Board:
		o.printBoardState(v)
	case BoardList:
		o.printBoardList(v)
	case TapResult:
		o.printTapResult(v)
	case ShuffleResult:
		o.printShuffleResult(v)
	case Level:
		o.printLevel(v)
	case LevelList:
		o.printLevelList(v)
	case HealthResult:
		o.printf("Status: %s\nBoards: %d\n", v.Status, v.Boards)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Cell response type; nil cells are empty
type Cell struct {
	ID    uint64 `json:"id"`
	Color string `json:"color"`
	Tier  int    `json:"tier"`
}

// Board response type
type Board struct {
	ID       string    `json:"id"`
	Level    string    `json:"level"`
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	Cells    [][]*Cell `json:"cells"`
	Locked   bool      `json:"locked"`
	Playable bool      `json:"playable"`
}

// BoardList response type
type BoardList struct {
	Boards []Board `json:"boards"`
}

// TapResult response type
type TapResult struct {
	Outcome         string `json:"outcome"`
	Removed         int    `json:"removed"`
	Columns         []int  `json:"columns"`
	Shuffled        bool   `json:"shuffled"`
	ShuffleAttempts int    `json:"shuffle_attempts,omitempty"`
	Board           Board  `json:"board"`
}

// ShuffleResult response type
type ShuffleResult struct {
	Attempts int   `json:"attempts"`
	Skipped  bool  `json:"skipped"`
	Playable bool  `json:"playable"`
	Board    Board `json:"board"`
}

// Level response type
type Level struct {
	Name   string     `json:"name"`
	Rows   int        `json:"rows"`
	Cols   int        `json:"cols"`
	Colors int        `json:"colors"`
	Layout [][]string `json:"layout,omitempty"`
}

// LevelList response type
type LevelList struct {
	Levels []Level `json:"levels"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	Boards int    `json:"boards"`
}

// cellText renders a cell as its color letter followed by its tier, if any
func cellText(c *Cell) string {
	if c == nil {
		return " . "
	}
	letter := "?"
	if color, err := model.ParseColor(c.Color); err == nil {
		letter = color.Letter()
	}
	if c.Tier > 0 {
		return fmt.Sprintf(" %s%d", letter, c.Tier)
	}
	return " " + letter + " "
}

// RenderGrid draws cells as a lettered grid with row and column headers
func RenderGrid(cells [][]*Cell) string {
	if len(cells) == 0 {
		return ""
	}
	cols := len(cells[0])
	var b strings.Builder

	b.WriteString("    ")
	for col := range cols {
		fmt.Fprintf(&b, "%2d ", col)
	}
	b.WriteString("\n   +" + strings.Repeat("---", cols) + "+\n")
	for row, line := range cells {
		fmt.Fprintf(&b, "%2d |", row)
		for _, c := range line {
			b.WriteString(cellText(c))
		}
		b.WriteString("|\n")
	}
	b.WriteString("   +" + strings.Repeat("---", cols) + "+\n")
	return b.String()
}

func (o *Output) printBoardState(b Board) {
	o.printf("Board: %s (level %s, %dx%d)\n", b.ID, b.Level, b.Rows, b.Cols)
	status := "playable"
	switch {
	case b.Locked:
		status = "locked"
	case !b.Playable:
		status = "no moves"
	}
	o.printf("Status: %s\n", status)
	o.printf("%s", RenderGrid(b.Cells))
}

func (o *Output) printBoardList(l BoardList) {
	if len(l.Boards) == 0 {
		o.printf("No boards\n")
		return
	}
	for _, b := range l.Boards {
		o.printf("%s  %-12s %dx%d\n", b.ID, b.Level, b.Rows, b.Cols)
	}
}

func (o *Output) printTapResult(t TapResult) {
	switch t.Outcome {
	case "matched":
		o.printf("Removed %d blocks from columns %v\n", t.Removed, t.Columns)
	case "rejected":
		o.printf("Group too small, nothing removed\n")
	default:
		o.printf("Empty cell\n")
	}
	if t.Shuffled {
		o.printf("No moves left, shuffled in %d attempts\n", t.ShuffleAttempts)
	}
	o.printf("%s", RenderGrid(t.Board.Cells))
}

func (o *Output) printShuffleResult(s ShuffleResult) {
	if s.Skipped {
		o.printf("Shuffle already running\n")
	} else {
		o.printf("Shuffled in %d attempts\n", s.Attempts)
	}
	o.printf("%s", RenderGrid(s.Board.Cells))
}

func (o *Output) printLevel(l Level) {
	o.printf("Level: %s\n", l.Name)
	o.printf("Size: %dx%d, %d colors\n", l.Rows, l.Cols, l.Colors)
	if len(l.Layout) == 0 {
		o.printf("Layout: random\n")
		return
	}
	cells := make([][]*Cell, len(l.Layout))
	for row, line := range l.Layout {
		cells[row] = make([]*Cell, len(line))
		for col, color := range line {
			cells[row][col] = &Cell{Color: color}
		}
	}
	o.printf("%s", RenderGrid(cells))
}

func (o *Output) printLevelList(l LevelList) {
	for _, level := range l.Levels {
		layout := "random"
		if len(level.Layout) > 0 {
			layout = "fixed"
		}
		o.printf("%-16s %2dx%-2d %d colors  %s\n", level.Name, level.Rows, level.Cols, level.Colors, layout)
	}
}
