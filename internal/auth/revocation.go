package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker records logged-out tokens until they would have expired anyway.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisRevoker struct {
	client *redis.Client
	prefix string
}

// NewRedisRevoker keeps a denylist of token ids in Redis. A nil client yields a
// revoker that accepts every token, so logout only clears the client cookie.
func NewRedisRevoker(client *redis.Client, prefix string) TokenRevoker {
	if client == nil {
		return noopRevoker{}
	}
	return &redisRevoker{client: client, prefix: prefix}
}

func (r *redisRevoker) key(tokenID string) string {
	return r.prefix + ":revoked:" + tokenID
}

func (r *redisRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.key(tokenID), 1, ttl).Err()
}

func (r *redisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type noopRevoker struct{}

func (noopRevoker) Revoke(context.Context, string, time.Time) error { return nil }

func (noopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }
