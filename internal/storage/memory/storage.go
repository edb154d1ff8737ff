package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/mcoot/blockmatch/internal/model"
	"github.com/mcoot/blockmatch/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu     sync.RWMutex
	levels map[string]*model.Level
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		levels: make(map[string]*model.Level),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveLevel(ctx context.Context, level *model.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[level.Name] = level.Clone()
	return nil
}

func (s *Storage) GetLevel(ctx context.Context, name string) (*model.Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	level, ok := s.levels[name]
	if !ok {
		return nil, model.ErrLevelNotFound
	}
	return level.Clone(), nil
}

func (s *Storage) ListLevels(ctx context.Context) ([]*model.Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	levels := make([]*model.Level, 0, len(s.levels))
	for _, level := range s.levels {
		levels = append(levels, level.Clone())
	}
	slices.SortFunc(levels, func(a, b *model.Level) int {
		return strings.Compare(a.Name, b.Name)
	})
	return levels, nil
}

func (s *Storage) DeleteLevel(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.levels[name]; !ok {
		return model.ErrLevelNotFound
	}
	delete(s.levels, name)
	return nil
}
