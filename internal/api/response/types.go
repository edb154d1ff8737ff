package response

import (
	"time"

	"github.com/mcoot/blockmatch/internal/api/apierr"
	"github.com/mcoot/blockmatch/internal/model"
	"github.com/mcoot/blockmatch/internal/services/board"
)

// Cell represents an occupied board cell. Empty cells are encoded as null.
type Cell struct {
	ID    uint64 `json:"id"`
	Color string `json:"color"`
	Tier  int    `json:"tier"`
}

// Board represents a board snapshot in API responses
type Board struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	Cells     [][]*Cell `json:"cells"` // Row-major
	Locked    bool      `json:"locked"`
	Playable  bool      `json:"playable"`
	CreatedAt time.Time `json:"created_at"`
}

// BoardFromModel converts a model.BoardState
func BoardFromModel(s model.BoardState) Board {
	cells := make([][]*Cell, len(s.Cells))
	for row, line := range s.Cells {
		cells[row] = make([]*Cell, len(line))
		for col, c := range line {
			if c != nil {
				cells[row][col] = &Cell{ID: uint64(c.BlockID), Color: c.Color.String(), Tier: int(c.Tier)}
			}
		}
	}
	return Board{
		ID:        string(s.ID),
		Level:     s.Level,
		Rows:      s.Rows,
		Cols:      s.Cols,
		Cells:     cells,
		Locked:    s.Locked,
		Playable:  s.Playable,
		CreatedAt: s.CreatedAt,
	}
}

// BoardList is the response for listing boards
type BoardList struct {
	Boards []Board `json:"boards"`
}

// TapResponse is the response after tapping a cell
type TapResponse struct {
	Outcome         string `json:"outcome"`
	Removed         int    `json:"removed"`
	Columns         []int  `json:"columns"`
	Shuffled        bool   `json:"shuffled"`
	ShuffleAttempts int    `json:"shuffle_attempts,omitempty"`
	Board           Board  `json:"board"`
}

// TapResponseFromResult converts a tap result and the board it left
func TapResponseFromResult(r board.TapResult, s model.BoardState) TapResponse {
	columns := r.Columns
	if columns == nil {
		columns = []int{}
	}
	resp := TapResponse{
		Outcome: string(r.Outcome),
		Removed: r.Removed,
		Columns: columns,
		Board:   BoardFromModel(s),
	}
	if r.Shuffle != nil {
		resp.Shuffled = true
		resp.ShuffleAttempts = r.Shuffle.Attempts
	}
	return resp
}

// TapFailure is the error body for a tap whose match resolved but whose
// follow-up shuffle failed. Tap describes the board the match left.
type TapFailure struct {
	Error apierr.APIError `json:"error"`
	Tap   TapResponse     `json:"tap"`
}

// ShuffleResponse is the response after a requested shuffle
type ShuffleResponse struct {
	Attempts int   `json:"attempts"`
	Skipped  bool  `json:"skipped"`
	Playable bool  `json:"playable"`
	Board    Board `json:"board"`
}

// ShuffleResponseFromResult converts a shuffle result and the board it left
func ShuffleResponseFromResult(r board.ShuffleResult, s model.BoardState) ShuffleResponse {
	return ShuffleResponse{
		Attempts: r.Attempts,
		Skipped:  r.Skipped,
		Playable: r.Playable,
		Board:    BoardFromModel(s),
	}
}

// Level represents a level in API responses
type Level struct {
	Name   string          `json:"name"`
	Rows   int             `json:"rows"`
	Cols   int             `json:"cols"`
	Colors int             `json:"colors"`
	Layout [][]model.Color `json:"layout,omitempty"`
}

// LevelFromModel converts a model.Level
func LevelFromModel(l *model.Level) Level {
	return Level{
		Name:   l.Name,
		Rows:   l.Rows,
		Cols:   l.Cols,
		Colors: l.Colors,
		Layout: l.Layout,
	}
}

// LevelList is the response for listing levels
type LevelList struct {
	Levels []Level `json:"levels"`
}

// Health is the response of the health endpoint
type Health struct {
	Status string `json:"status"`
	Boards int    `json:"boards"`
}
