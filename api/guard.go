package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard marks a contact sync as in flight per user so all instances
// refuse a second concurrent run instead of racing the first. The TTL bounds
// how long a crashed instance can keep a user locked out.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuard creates a guard using the provided Redis client and TTL.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) key(userID string) string {
	return "methodsync:inflight:" + userID
}

// Acquire records the in-flight marker if absent. It returns true when no
// sync was running for the user.
func (g *RedisGuard) Acquire(ctx context.Context, userID string) (bool, error) {
	return g.client.SetNX(ctx, g.key(userID), 1, g.ttl).Result()
}

// Release clears the marker once the sync completes, successfully or not.
func (g *RedisGuard) Release(ctx context.Context, userID string) error {
	return g.client.Del(ctx, g.key(userID)).Err()
}
