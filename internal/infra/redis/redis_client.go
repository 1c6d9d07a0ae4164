package redis

import (
	"context"
	"time"

	"image-edit-saas/internal/config"

	"github.com/go-redis/redis/v8"
)

// RedisClient is the slice of redis the rate limiter needs: a counter with a
// window, plus liveness and teardown for the composition root.
type RedisClient interface {
	Ping(ctx context.Context) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, window time.Duration) error
	Close() error
}

var _ RedisClient = (*redClient)(nil)

type redClient struct {
	cli *redis.Client
}

// NewClient connects and pings, so a bad address fails at startup instead of
// on the first throttled request.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redClient, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &redClient{cli: c}, nil
}

func (c *redClient) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *redClient) Incr(ctx context.Context, key string) (int64, error) {
	return c.cli.Incr(ctx, key).Result()
}

func (c *redClient) Expire(ctx context.Context, key string, window time.Duration) error {
	return c.cli.Expire(ctx, key, window).Err()
}

func (c *redClient) Close() error { return c.cli.Close() }
