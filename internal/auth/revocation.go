package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers revoked token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisRevocations struct {
	rdb *redis.Client
}

// NewRedisRevocations stores revoked ids under "blacklist:<jti>".
func NewRedisRevocations(rdb *redis.Client) RevocationStore {
	return &redisRevocations{rdb: rdb}
}

func (r *redisRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return r.rdb.Set(ctx, "blacklist:"+jti, "1", ttl).Err()
}

func (r *redisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, "blacklist:"+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type memoryRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocations keeps revoked ids in process memory. It serves
// single-instance deployments that run without Redis.
func NewMemoryRevocations() RevocationStore {
	return &memoryRevocations{entries: map[string]time.Time{}, now: time.Now}
}

func (m *memoryRevocations) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, until := range m.entries {
		if !until.After(now) {
			delete(m.entries, id)
		}
	}
	m.entries[jti] = now.Add(ttl)
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.entries[jti]
	return ok && until.After(m.now()), nil
}
