package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/subeth/subeth/internal/shared/logger"
)

const (
	// lockKeyPrefix is the prefix for all account lock keys
	lockKeyPrefix    = "subeth:account_lock:"
	lockPollInterval = 100 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process using the same Redis.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger logger.Interface
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a Redis-backed locker. ttl bounds how long a crashed
// holder can block others; wait bounds how long Acquire polls.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, logger logger.Interface) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
		logger: logger,
	}
}

func (l *RedisLocker) buildKey(key string) string {
	return lockKeyPrefix + key
}

// Acquire polls SET NX until the lock is taken, the wait elapses or ctx ends.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.buildKey(key)
	token := uuid.NewString()

	waitCtx := ctx
	if l.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		// SetNX is atomic: only sets if key doesn't exist
		acquired, err := l.client.SetNX(waitCtx, redisKey, token, l.ttl).Result()
		if err != nil && waitCtx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire account lock: %w", err)
		}
		if acquired {
			return l.releaser(redisKey, token), nil
		}

		select {
		case <-waitCtx.Done():
			return nil, busyError(key)
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) releaser(redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warnw("failed to release account lock",
					"key", redisKey,
					"error", err,
				)
			}
		})
	}
}
