package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/rasoi/chaatbot/internal/config"
	"github.com/redis/go-redis/v9"
)

// Client wraps a go-redis client and owns its lifecycle.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and verifies the connection with a bounded ping.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}

	return &Client{rdb: rdb}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Client exposes the raw go-redis client for the KV layer.
func (c *Client) Client() *redis.Client {
	return c.rdb
}
