package session

import (
	"context"
	"time"
)

// Cache is the backing key-value store for session state. Implementations
// must return (nil, nil) on a missing key. No cross-key atomicity is
// required; last-write-wins semantics are accepted.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
