package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the session cache backed by Redis. Values are opaque byte blobs
// (JSON-encoded by the caller). A miss returns (nil, nil).
//
// Writes are plain SET with TTL and last-write-wins: concurrent requests for
// the same session can interleave, which matches the single-browser-tab usage
// this store serves.
type KV struct {
	client *Client
}

// NewKV creates a new key-value session cache
func NewKV(client *Client) *KV {
	return &KV{client: client}
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

func (s *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}
