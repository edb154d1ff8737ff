package request

// CreateBoardRequest is the request body for creating a board. Every field
// is optional: the default level is used when Level is empty and non-zero
// dimensions override the level's.
type CreateBoardRequest struct {
	Level  string  `json:"level,omitempty"`
	Rows   int     `json:"rows,omitempty"`
	Cols   int     `json:"cols,omitempty"`
	Colors int     `json:"colors,omitempty"`
	Seed   *uint64 `json:"seed,omitempty"`
}

// TapRequest is the request body for tapping a cell
type TapRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}
