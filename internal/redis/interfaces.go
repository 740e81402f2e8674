package redis

import "context"

// LockerInterface defines a keyed serialization point.
type LockerInterface interface {
	Acquire(ctx context.Context, key string) (string, error)
	Release(ctx context.Context, key, token string) error
}

// CacheStoreInterface defines the interface for directory caching.
type CacheStoreInterface interface {
	GetUser(ctx context.Context, id string) (*CachedUser, error)
	SetUser(ctx context.Context, user *CachedUser) error
	InvalidateUser(ctx context.Context, id string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockerInterface     = (*LockStore)(nil)
	_ CacheStoreInterface = (*CacheStore)(nil)
)
