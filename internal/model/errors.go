package model

import "errors"

// Common errors used across the application
var (
	// Grid errors
	ErrOutOfBounds       = errors.New("position out of bounds")
	ErrInvalidDimensions = errors.New("grid dimensions must be positive")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrCellEmpty         = errors.New("cell is empty")
	ErrNilBlock          = errors.New("block is nil")

	// Engine errors
	ErrEmptyStartCell   = errors.New("flood fill started on an empty cell")
	ErrRejectedMatch    = errors.New("group is smaller than the minimum match size")
	ErrShuffleExhausted = errors.New("no playable layout found within the shuffle attempt limit")
	ErrBoardLocked      = errors.New("board is not accepting input")
	ErrInvalidConfig    = errors.New("invalid engine configuration")

	// Board session errors
	ErrBoardNotFound = errors.New("board not found")
	ErrTooManyBoards = errors.New("too many live boards")

	// Level errors
	ErrLevelNotFound = errors.New("level not found")
	ErrInvalidLevel  = errors.New("invalid level")
)
