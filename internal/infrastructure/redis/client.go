package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings.
type Config struct {
	URL string
	// Timeout bounds dialing, each command and the startup ping. Zero keeps
	// the go-redis defaults.
	Timeout time.Duration
	// PoolSize overrides the URL's pool_size when positive.
	PoolSize int
}

// NewClient connects to Redis and pings it once.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if cfg.Timeout > 0 {
		opts.DialTimeout = cfg.Timeout
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(opts)

	if err := Ping(ctx, client, cfg.Timeout); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// Ping checks the connection, giving up after timeout when it is positive.
func Ping(ctx context.Context, client redis.UniversalClient, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}
