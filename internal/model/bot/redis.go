package bot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "bot:"

// RedisStore implements Store against a Redis instance the dashboard writes
// bot records into, one JSON value per bot under "bot:<id>", plus a "bots"
// set of known identifiers.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing Redis client. A non-positive ttl disables
// expiry refresh.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// List returns every bot recorded in the "bots" identifier set.
func (s *RedisStore) List(ctx context.Context) ([]Bot, error) {
	ids, err := s.client.SMembers(ctx, "bots").Result()
	if err != nil {
		return nil, err
	}

	bots := make([]Bot, 0, len(ids))
	for _, id := range ids {
		b, ok, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			bots = append(bots, b)
		}
	}
	return bots, nil
}

// FindByID loads one bot record. A missing key is not an error.
func (s *RedisStore) FindByID(ctx context.Context, id string) (Bot, bool, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return Bot{}, false, nil
	}
	if err != nil {
		return Bot{}, false, err
	}

	var b Bot
	if err := json.Unmarshal([]byte(val), &b); err != nil {
		return Bot{}, false, err
	}
	b.Position = ParsePosition(string(b.Position))

	if s.ttl > 0 {
		// Keep actively embedded bots warm.
		_ = s.client.Expire(ctx, redisKeyPrefix+id, s.ttl).Err()
	}

	return b, true, nil
}
