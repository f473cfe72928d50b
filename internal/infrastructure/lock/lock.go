package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
)

// Release gives a held lease back. Releasing a lease that already expired
// or was taken over is a no-op.
type Release func(ctx context.Context) error

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lease shared by every process pointing at the same Redis.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	tokens id.Generator
}

func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "ticket-marketplace:lock:"
	}
	return &RedisLocker{client: client, prefix: prefix, tokens: id.NewUUIDGenerator()}
}

// TryAcquire takes the lease with SET NX PX. acquired is false when another
// holder has it.
func (l *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (Release, bool, error) {
	if ttl <= 0 {
		return nil, false, fmt.Errorf("lease ttl must be positive")
	}
	token, err := l.tokens.NewID()
	if err != nil {
		return nil, false, err
	}

	fullKey := l.prefix + key
	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lease %s: %w", fullKey, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release lease %s: %w", fullKey, err)
		}
		return nil
	}
	return release, true, nil
}

// LocalLocker is the single-process lease used when no Redis is configured.
type LocalLocker struct {
	mu     sync.Mutex
	held   map[string]localLease
	clock  clockwork.Clock
	nextID uint64
}

type localLease struct {
	id        uint64
	expiresAt time.Time
}

func NewLocalLocker(clock clockwork.Clock) *LocalLocker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LocalLocker{held: make(map[string]localLease), clock: clock}
}

func (l *LocalLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (Release, bool, error) {
	if ttl <= 0 {
		return nil, false, fmt.Errorf("lease ttl must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if current, ok := l.held[key]; ok && now.Before(current.expiresAt) {
		return nil, false, nil
	}
	l.nextID++
	lease := localLease{id: l.nextID, expiresAt: now.Add(ttl)}
	l.held[key] = lease

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if current, ok := l.held[key]; ok && current.id == lease.id {
			delete(l.held, key)
		}
		return nil
	}
	return release, true, nil
}
