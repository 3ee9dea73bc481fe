package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client is the single shared Redis connection pool. The route cache, the interaction log
// and the activity stream all run on it.
type Client struct {
	*redis.Client
}

// Connect parses the URL (redis://[:password@]host:port[/db]), opens the pool and pings it
// so startup fails fast when Redis is configured but unreachable.
func Connect(ctx context.Context, redisURL string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	c := &Client{Client: redis.NewClient(opts)}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Client.Ping(pingCtx).Err(); err != nil {
		c.Client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info("connected to redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return c, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}
