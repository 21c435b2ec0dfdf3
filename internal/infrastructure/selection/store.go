// Package selection persists selection sets across viewer loads of the
// same server session.
package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultTTL bounds how long an orphaned selection set outlives its
// session. Server sessions rarely last longer than an hour or two.
const DefaultTTL = 4 * time.Hour

type RedisSelectionStore struct {
	log *zap.SugaredLogger
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSelectionStore(log *zap.SugaredLogger, rdb *redis.Client) *RedisSelectionStore {
	return &RedisSelectionStore{log: log, rdb: rdb, ttl: DefaultTTL}
}

func selectionKey(session, mapName string) string {
	return fmt.Sprintf("selection:%s:%s", session, mapName)
}

// SaveSelectionSet stores the raw selection set of a map.
func (s *RedisSelectionStore) SaveSelectionSet(ctx context.Context, session, mapName string, sset json.RawMessage) error {
	key := selectionKey(session, mapName)
	if err := s.rdb.Set(ctx, key, string(sset), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis save selection set: %v", err)
	}
	return nil
}

// GetSelectionSet returns the stored selection set of a map, or nil when
// none was saved.
func (s *RedisSelectionStore) GetSelectionSet(ctx context.Context, session, mapName string) (json.RawMessage, error) {
	value, err := s.rdb.Get(ctx, selectionKey(session, mapName)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get selection set: %v", err)
	}
	return json.RawMessage(value), nil
}

// ClearSessionStore removes every selection set of a session. Called on
// bootstrap after restoring, so the store does not accumulate stale sets.
func (s *RedisSelectionStore) ClearSessionStore(ctx context.Context, session string) error {
	pattern := fmt.Sprintf("selection:%s:*", session)
	keys, err := s.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return fmt.Errorf("redis list selection sets: %v", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis clear selection sets: %v", err)
	}
	return nil
}
