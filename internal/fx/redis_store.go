package fx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTableStore shares rate tables between API and worker processes.
type RedisTableStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisTableStore builds a store writing tables with ttl. A non-positive
// ttl defaults to 36 hours so a table outlives the day it belongs to.
func NewRedisTableStore(client redis.Cmdable, ttl time.Duration) *RedisTableStore {
	if ttl <= 0 {
		ttl = 36 * time.Hour
	}
	return &RedisTableStore{client: client, ttl: ttl}
}

func tableKey(date string) string {
	return "fx:rates:" + date
}

// Get implements SharedStore.
func (s *RedisTableStore) Get(ctx context.Context, date string) (Table, bool, error) {
	if s == nil || s.client == nil {
		return nil, false, nil
	}
	data, err := s.client.Get(ctx, tableKey(date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, false, err
	}
	if len(table) == 0 {
		return nil, false, nil
	}
	return table, true, nil
}

// Put implements SharedStore.
func (s *RedisTableStore) Put(ctx context.Context, date string, table Table) error {
	if s == nil || s.client == nil {
		return nil
	}
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, tableKey(date), data, s.ttl).Err()
}
