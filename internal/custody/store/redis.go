package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"jailcheck/internal/custody/models"
	"jailcheck/pkg/platform/sentinel"
)

const (
	runKeyPrefix = "jailcheck:run:"
	runIndexKey  = "jailcheck:runs"
)

// RedisStore keeps runs as JSON values with a TTL and a sorted set of run IDs
// scored by start time. Expired runs are pruned from the index on List.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a RedisStore. A zero ttl keeps runs indefinitely.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func runKey(id uuid.UUID) string {
	return runKeyPrefix + id.String()
}

// Save writes the run and indexes it atomically.
func (s *RedisStore) Save(ctx context.Context, run *models.Run) error {
	if run == nil {
		return errRunRequired
	}
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, runKey(run.ID), data, s.ttl)
		pipe.ZAdd(ctx, runIndexKey, redis.Z{
			Score:  float64(run.StartedAt.UnixMilli()),
			Member: run.ID.String(),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// Find returns the run with id or sentinel.ErrNotFound.
func (s *RedisStore) Find(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	data, err := s.client.Get(ctx, runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	return decodeRun(data)
}

// List returns up to limit runs, most recently started first.
func (s *RedisStore) List(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit < 1 {
		limit = 1
	}
	ids, err := s.client.ZRevRange(ctx, runIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list run ids: %w", err)
	}
	if len(ids) == 0 {
		return []*models.Run{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = runKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}

	runs := make([]*models.Run, 0, len(values))
	var expired []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		run, err := decodeRun([]byte(str))
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, runIndexKey, expired...).Err(); err != nil {
			return nil, fmt.Errorf("prune expired runs: %w", err)
		}
	}
	return runs, nil
}

func decodeRun(data []byte) (*models.Run, error) {
	var run models.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &run, nil
}
