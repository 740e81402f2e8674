package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UserCacheTTL keeps directory lookups cheap without letting a
// deactivated account linger for long.
const UserCacheTTL = 30 * time.Second

const userCachePrefix = "cache:user:"

// CachedUser represents a cached directory entry. Only the fields the
// lifecycle service consults are cached; trip state is never cached.
type CachedUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// CacheStore handles directory-entry caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetUser retrieves a cached user. Returns nil on a miss.
func (s *CacheStore) GetUser(ctx context.Context, id string) (*CachedUser, error) {
	data, err := s.client.Get(ctx, userCachePrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var user CachedUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("unmarshal cached user: %w", err)
	}

	return &user, nil
}

// SetUser caches a user directory entry.
func (s *CacheStore) SetUser(ctx context.Context, user *CachedUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, userCachePrefix+user.ID, data, UserCacheTTL).Err()
}

// InvalidateUser drops a user from the cache.
func (s *CacheStore) InvalidateUser(ctx context.Context, id string) error {
	return s.client.Del(ctx, userCachePrefix+id).Err()
}
