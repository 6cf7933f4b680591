package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	cfg "github.com/clearhaul/docvalidator/config"
)

// Guard is the idempotency store for entry notifications. TryAcquire must
// be an atomic check-and-set: concurrent completion checks for the same
// entry may race, and exactly one caller may win inside the window.
type Guard interface {
	// TryAcquire records a notification marker for the entry and reports
	// whether this caller won it. False means a notification was already
	// recorded within the window.
	TryAcquire(ctx context.Context, entryID string, window time.Duration) (bool, error)
}

// RedisGuard implements Guard with SET NX EX, which is atomic on the
// server.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard() *RedisGuard {
	redisCfg := cfg.GetRedisConfig()
	return &RedisGuard{
		client: redis.NewClient(&redis.Options{
			Addr: redisCfg.Addr,
			DB:   redisCfg.DB,
		}),
	}
}

func (g *RedisGuard) TryAcquire(ctx context.Context, entryID string, window time.Duration) (bool, error) {
	key := fmt.Sprintf("entry_notified:%s", entryID)
	ok, err := g.client.SetNX(ctx, key, time.Now().Format(time.RFC3339), window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set dedup marker: %w", err)
	}
	return ok, nil
}

// MemoryGuard is a process-local Guard for tests.
type MemoryGuard struct {
	mu      sync.Mutex
	markers map[string]time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{markers: make(map[string]time.Time)}
}

func (g *MemoryGuard) TryAcquire(ctx context.Context, entryID string, window time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if at, ok := g.markers[entryID]; ok && time.Since(at) < window {
		return false, nil
	}
	g.markers[entryID] = time.Now()
	return true, nil
}
