package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/blockmatch/internal/model"
	"github.com/mcoot/blockmatch/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveLevel(ctx context.Context, level *model.Level) error {
	data, err := json.Marshal(level)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, levelKey(level.Name), data, s.cfg.LevelTTL)
	pipe.SAdd(ctx, levelIndexKey(), level.Name)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetLevel(ctx context.Context, name string) (*model.Level, error) {
	data, err := s.client.Get(ctx, levelKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrLevelNotFound
		}
		return nil, err
	}
	return decodeLevel(data)
}

func (s *Storage) ListLevels(ctx context.Context) ([]*model.Level, error) {
	names, err := s.client.SMembers(ctx, levelIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []*model.Level{}, nil
	}
	slices.Sort(names)

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = levelKey(name)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	levels := make([]*model.Level, 0, len(values))
	var stale []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Expired level still in the index
			stale = append(stale, names[i])
			continue
		}
		level, err := decodeLevel([]byte(str))
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, levelIndexKey(), stale...).Err(); err != nil {
			return nil, err
		}
	}
	return levels, nil
}

func (s *Storage) DeleteLevel(ctx context.Context, name string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, levelKey(name))
	pipe.SRem(ctx, levelIndexKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return model.ErrLevelNotFound
	}
	return nil
}

func decodeLevel(data []byte) (*model.Level, error) {
	var level model.Level
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("failed to decode level: %w", err)
	}
	return &level, nil
}
