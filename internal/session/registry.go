// Package session tracks issued identities and revoked credentials in Redis.
package session

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Registry is the ephemeral-session bookkeeping the gate and the auth
// middleware share.
type Registry interface {
	// Reserve claims a session id for ttl. It reports false when the id is
	// already taken.
	Reserve(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)

	// BlacklistToken revokes a credential until it would have expired anyway.
	BlacklistToken(ctx context.Context, token string, ttl time.Duration) error

	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

type RedisRegistry struct {
	client *redis.Client
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func (r *RedisRegistry) Reserve(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, "session:"+sessionID, 1, ttl).Result()
}

func (r *RedisRegistry) BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, "blacklist:"+token, 1, ttl).Err()
}

func (r *RedisRegistry) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, "blacklist:"+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
