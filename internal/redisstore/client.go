// Package redisstore keeps drafts in Redis and publishes finalize events on
// Redis pub/sub.
package redisstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/rpggio/careplan/internal/retry"
)

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key and channel. Defaults to "careplan".
	Prefix string
	Retry  retry.Config
	Logger *slog.Logger
}

// Client wraps a Redis connection and the key prefix.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// NewClient connects and pings Redis with backoff.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	cfg := opts.Retry
	if cfg.MaxAttempts == 0 {
		cfg = retry.DefaultConfig()
	}
	err := retry.Do(ctx, cfg, "redis", opts.Logger, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return newClient(rdb, opts.Prefix), nil
}

func newClient(rdb *redis.Client, prefix string) *Client {
	if prefix == "" {
		prefix = "careplan"
	}
	return &Client{rdb: rdb, prefix: prefix}
}

// Redis returns the underlying client.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Ping verifies the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) key(tenantID string, parts ...string) string {
	k := c.prefix + ":" + tenantID
	for _, p := range parts {
		k += ":" + p
	}
	return k
}
