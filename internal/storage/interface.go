package storage

import (
	"context"

	"github.com/mcoot/blockmatch/internal/model"
)

// Storage defines the interface for the level library. Live boards are
// never persisted.
type Storage interface {
	// SaveLevel stores a level, replacing any level with the same name
	SaveLevel(ctx context.Context, level *model.Level) error

	// GetLevel returns model.ErrLevelNotFound for unknown names
	GetLevel(ctx context.Context, name string) (*model.Level, error)

	// ListLevels returns every stored level ordered by name
	ListLevels(ctx context.Context) ([]*model.Level, error)

	// DeleteLevel returns model.ErrLevelNotFound for unknown names
	DeleteLevel(ctx context.Context, name string) error
}
