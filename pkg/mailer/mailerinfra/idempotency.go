package mailerinfra

import (
	"context"
	"time"

	"github.com/Abraxas-365/caremail/pkg/errx"
	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "caremail:send:"

// RedisIdempotencyGuard implements mailer.IdempotencyGuard with a SETNX
// claim per key. Keys expire after the configured TTL; within it a repeated
// key means the email was already dispatched.
type RedisIdempotencyGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyGuard creates a guard on the given Redis client.
func NewRedisIdempotencyGuard(client *redis.Client, ttl time.Duration) *RedisIdempotencyGuard {
	return &RedisIdempotencyGuard{client: client, ttl: ttl}
}

// Acquire claims the key. It returns false when an earlier send already
// claimed it.
func (g *RedisIdempotencyGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, g.ttl).Result()
	if err != nil {
		return false, errx.Wrap(err, "idempotency claim failed", errx.TypeInternal).
			WithDetail("key", key)
	}
	return ok, nil
}
