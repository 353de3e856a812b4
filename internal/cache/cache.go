// Package cache provides a small key-value cache abstraction backed by
// Redis. The unlock debouncer depends only on the Cache interface so the
// store can be swapped when the engine runs behind multiple processes.
package cache

import (
	"context"
	"time"
)

// Cache is the key-value surface the engine uses. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// SetNX sets a key only if it does not exist and returns whether the
	// key was set. Used for debounce windows and lightweight locking.
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (int64, error)
	Health(ctx context.Context) error
	Close() error
}
