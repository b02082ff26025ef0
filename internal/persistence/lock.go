package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// ErrLockNotAcquired is returned when a lock could not be taken before the
// context or wait budget ran out.
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-taken by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

const lockPollInterval = 25 * time.Millisecond

// RedisLocker provides per-key mutual exclusion across service replicas.
type RedisLocker struct {
	client *redis.Client
	prefix string
	wait   time.Duration
}

// NewRedisLocker builds a locker. wait bounds how long Acquire polls for a
// held key.
func NewRedisLocker(client *redis.Client, prefix string, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix, wait: wait}
}

// Acquire takes the lock for key with the given ttl. The returned release
// func is safe to call once the lock has expired.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := l.prefix + key
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
		ok, err := l.client.SetNX(waitCtx, fullKey, token, ttl).Result()
		if err != nil && waitCtx.Err() == nil {
			return nil, eris.Wrapf(err, "lock: acquire %s", fullKey)
		}
		if ok {
			return func() {
				// detached from ctx so a cancelled request still unlocks
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
			}, nil
		}
		select {
		case <-waitCtx.Done():
			return nil, ErrLockNotAcquired
		case <-ticker.C:
		}
	}
}

// LocalLocker serializes callers inside one process. It backs the status
// lock when no redis is configured.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker builds an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

// Acquire blocks until key is free or ctx is done. ttl is ignored.
func (l *LocalLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, ErrLockNotAcquired
	}
}
