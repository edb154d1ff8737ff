package levels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/mcoot/blockmatch/internal/model"
	"github.com/mcoot/blockmatch/internal/storage"
)

// Service resolves level names to level configurations. Stored levels take
// precedence; the built-in default level answers for "" and "default".
type Service struct {
	storage storage.Storage
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]*model.Level
}

// New creates a new level Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "levels")),
		cache:   make(map[string]*model.Level),
	}
}

// Get returns a copy of the named level
func (s *Service) Get(ctx context.Context, name string) (*model.Level, error) {
	if name == "" {
		name = model.DefaultLevelName
	}

	s.mu.RLock()
	if level, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return level.Clone(), nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if level, ok := s.cache[name]; ok {
		return level.Clone(), nil
	}

	level, err := s.storage.GetLevel(ctx, name)
	if errors.Is(err, model.ErrLevelNotFound) && name == model.DefaultLevelName {
		def := model.DefaultLevel()
		level, err = &def, nil
	}
	if err != nil {
		return nil, err
	}
	s.cache[name] = level
	return level.Clone(), nil
}

// List returns every stored level plus the default level, ordered by name
func (s *Service) List(ctx context.Context) ([]*model.Level, error) {
	levels, err := s.storage.ListLevels(ctx)
	if err != nil {
		return nil, err
	}
	hasDefault := slices.ContainsFunc(levels, func(l *model.Level) bool {
		return l.Name == model.DefaultLevelName
	})
	if !hasDefault {
		def := model.DefaultLevel()
		levels = append(levels, &def)
		slices.SortFunc(levels, func(a, b *model.Level) int {
			return strings.Compare(a.Name, b.Name)
		})
	}
	return levels, nil
}

// Save validates and stores a level
func (s *Service) Save(ctx context.Context, level *model.Level) error {
	if err := level.Validate(); err != nil {
		return err
	}
	if err := s.storage.SaveLevel(ctx, level); err != nil {
		s.logger.Error("failed to save level",
			slog.String("level", level.Name),
			slog.Any("error", err),
		)
		return err
	}
	s.invalidate(level.Name)

	s.logger.Info("level saved",
		slog.String("level", level.Name),
		slog.Int("rows", level.Rows),
		slog.Int("cols", level.Cols),
		slog.Bool("layout", level.HasLayout()),
	)
	return nil
}

// Delete removes a stored level. The built-in default level cannot be
// deleted, only overridden.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.storage.DeleteLevel(ctx, name); err != nil {
		return err
	}
	s.invalidate(name)
	s.logger.Info("level deleted", slog.String("level", name))
	return nil
}

func (s *Service) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, name)
}

// ImportDir stores every *.json level file in dir. Files that fail to parse
// or validate are skipped and logged. It returns the number of levels
// stored.
func (s *Service) ImportDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read level directory: %w", err)
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		level, err := LoadFile(path)
		if err == nil {
			err = s.Save(ctx, level)
		}
		if err != nil {
			if errors.Is(err, model.ErrInvalidLevel) {
				s.logger.Warn("skipping level file",
					slog.String("path", path),
					slog.Any("error", err),
				)
				continue
			}
			return imported, err
		}
		imported++
	}

	s.logger.Info("levels imported",
		slog.String("dir", dir),
		slog.Int("count", imported),
	)
	return imported, nil
}

// levelFile is the on-disk level format. Authoring tools may supply the
// layout column-major under "columns" instead of row-major "layout".
type levelFile struct {
	model.Level
	Columns [][]model.Color `json:"columns,omitempty"`
}

// Parse decodes a level document. An unnamed level takes fallbackName.
func Parse(data []byte, fallbackName string) (*model.Level, error) {
	var file levelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidLevel, err)
	}
	level := file.Level
	if level.Name == "" {
		level.Name = fallbackName
	}
	if !level.HasLayout() && len(file.Columns) > 0 {
		level.Layout = model.Transpose(file.Columns)
	}
	if err := level.Validate(); err != nil {
		return nil, err
	}
	return &level, nil
}

// LoadFile reads and parses a level file named after its base name
func LoadFile(path string) (*model.Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(data, name)
}
