package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlocklist remembers token ids revoked by logout until they expire.
type TokenBlocklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisTokenBlocklist stores revoked token ids as expiring Redis keys.
type RedisTokenBlocklist struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenBlocklist creates a blocklist on top of client.
func NewRedisTokenBlocklist(client *redis.Client) *RedisTokenBlocklist {
	return &RedisTokenBlocklist{client: client, prefix: "auth:revoked:"}
}

// Revoke marks tokenID revoked for ttl.
func (b *RedisTokenBlocklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.prefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked and has not expired yet.
func (b *RedisTokenBlocklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := b.client.Get(ctx, b.prefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return true, nil
}

// MemoryTokenBlocklist is an in-process TokenBlocklist for single-instance
// deployments and tests.
type MemoryTokenBlocklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryTokenBlocklist creates an empty in-process blocklist.
func NewMemoryTokenBlocklist() *MemoryTokenBlocklist {
	return &MemoryTokenBlocklist{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke marks tokenID revoked for ttl.
func (b *MemoryTokenBlocklist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for id, exp := range b.revoked {
		if !now.Before(exp) {
			delete(b.revoked, id)
		}
	}
	b.revoked[tokenID] = now.Add(ttl)
	return nil
}

// IsRevoked reports whether tokenID was revoked and has not expired yet.
func (b *MemoryTokenBlocklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	exp, ok := b.revoked[tokenID]
	return ok && b.now().Before(exp), nil
}
