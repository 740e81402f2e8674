package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when a lock could not be acquired
// within the bounded wait.
var ErrLockNotAcquired = errors.New("lock not acquired")

const (
	lockTTL         = 10 * time.Second
	lockRetryDelay  = 50 * time.Millisecond
	lockAcquireWait = 2 * time.Second
)

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore serializes mutations on a named resource (a trip id, a
// passenger's creation slot) via Redis locks.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// Acquire takes the lock for the given key, waiting up to a bounded
// interval. It returns an owner token for Release, or ErrLockNotAcquired
// when the lock stays held past the wait bound.
func (s *LockStore) Acquire(ctx context.Context, key string) (string, error) {
	token := uuid.New().String()
	deadline := time.Now().Add(lockAcquireWait)

	for {
		ok, err := s.client.SetNX(ctx, lockKey(key), token, lockTTL).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

// Release frees the lock if the token still owns it. A lock lost to TTL
// expiry is not an error; the status check on write catches the race.
func (s *LockStore) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, s.client, []string{lockKey(key)}, token).Err()
}

func lockKey(key string) string {
	return fmt.Sprintf("lock:%s", key)
}
