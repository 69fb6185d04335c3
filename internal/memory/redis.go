package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps agent memory in Redis lists. Push+trim keeps the bound;
// per-key operations are atomic on the server, which is all the ordering
// this history needs.
type RedisStore struct {
	client *redis.Client
	limit  int
	ttl    time.Duration
}

// NewRedisStore returns a Store backed by the given Redis client. A limit
// of 0 falls back to 5. A ttl of 0 means entries never expire.
func NewRedisStore(client *redis.Client, limit int, ttl time.Duration) *RedisStore {
	if limit <= 0 {
		limit = 5
	}
	return &RedisStore{client: client, limit: limit, ttl: ttl}
}

// Key returns the Redis key holding one agent's memory list.
func Key(agentID uint) string {
	return fmt.Sprintf("agent:%d:memory", agentID)
}

// Append pushes the interaction and trims the list to the limit. If a TTL
// is configured the key's expiry is reset on every append.
func (s *RedisStore) Append(ctx context.Context, agentID uint, input, output string) error {
	payload, err := json.Marshal(Entry{Input: input, Output: output})
	if err != nil {
		return fmt.Errorf("memory: marshal entry: %w", err)
	}

	key := Key(agentID)
	if err := s.client.LPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("memory: lpush %s: %w", key, err)
	}
	if err := s.client.LTrim(ctx, key, 0, int64(s.limit-1)).Err(); err != nil {
		return fmt.Errorf("memory: ltrim %s: %w", key, err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("memory: expire %s: %w", key, err)
		}
	}
	return nil
}

// List returns the retained history, most-recent-first.
func (s *RedisStore) List(ctx context.Context, agentID uint) ([]Entry, error) {
	key := Key(agentID)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("memory: lrange %s: %w", key, err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("memory: unmarshal entry in %s: %w", key, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear deletes the agent's memory key.
func (s *RedisStore) Clear(ctx context.Context, agentID uint) error {
	key := Key(agentID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("memory: del %s: %w", key, err)
	}
	return nil
}
