package lockout

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores lockout state in redis so the throttle holds across instances
// and restarts. Expiry is delegated to key TTLs.
type Redis struct {
	client redis.Cmdable
}

// NewRedis creates a redis-backed lockout store.
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

func failureKey(key string) string { return "lockout:failures:" + key }
func lockKey(key string) string    { return "lockout:lock:" + key }

func (s *Redis) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	k := failureKey(key)
	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, err
		}
	}
	return int(count), nil
}

func (s *Redis) Lock(ctx context.Context, key string, lockFor time.Duration) error {
	return s.client.Set(ctx, lockKey(key), "1", lockFor).Err()
}

func (s *Redis) LockedUntil(ctx context.Context, key string) (*time.Time, error) {
	ttl, err := s.client.TTL(ctx, lockKey(key)).Result()
	if err != nil {
		return nil, err
	}
	// Negative TTL means the key is absent or has no expiry.
	if ttl <= 0 {
		return nil, nil
	}
	until := time.Now().Add(ttl)
	return &until, nil
}

func (s *Redis) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, failureKey(key), lockKey(key)).Err()
}
