package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"kathaipom/internal/logger"
)

const (
	// RouteCachePrefix is the key prefix for cached route renderings
	RouteCachePrefix = "route:"

	// RouteCacheTTL bounds staleness if an invalidation is ever missed
	RouteCacheTTL = 10 * time.Minute

	// FeedRoute is the chronological feed
	FeedRoute = "/feed"
)

// ProfileRoute returns the route of a user's profile page.
func ProfileRoute(username string) string {
	return "/profile/" + strings.ToLower(strings.TrimSpace(username))
}

// RouteCache stores rendered route bodies until a mutation invalidates them.
type RouteCache interface {
	// Get returns the cached body. found=false on a miss.
	Get(ctx context.Context, route string) (body []byte, found bool, err error)

	// Set stores the body for the route.
	Set(ctx context.Context, route string, body []byte) error

	// Invalidate drops the given routes. Unknown routes are ignored.
	Invalidate(ctx context.Context, routes ...string) error
}

// RedisRouteCache implements RouteCache with plain string keys.
type RedisRouteCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRouteCache creates a new RouteCache backed by Redis.
func NewRouteCache(client *redis.Client, log *zap.Logger) RouteCache {
	return &RedisRouteCache{
		client: client,
		ttl:    RouteCacheTTL,
		log:    logger.OrNop(log).Named("routecache"),
	}
}

func routeKey(route string) string {
	return RouteCachePrefix + route
}

func (c *RedisRouteCache) Get(ctx context.Context, route string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, routeKey(route)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		c.log.Warn("get failed", zap.String("route", route), zap.Error(err))
		return nil, false, fmt.Errorf("get route cache: %w", err)
	}
	return body, true, nil
}

func (c *RedisRouteCache) Set(ctx context.Context, route string, body []byte) error {
	if err := c.client.Set(ctx, routeKey(route), body, c.ttl).Err(); err != nil {
		c.log.Warn("set failed", zap.String("route", route), zap.Error(err))
		return fmt.Errorf("set route cache: %w", err)
	}
	return nil
}

func (c *RedisRouteCache) Invalidate(ctx context.Context, routes ...string) error {
	if len(routes) == 0 {
		return nil
	}
	keys := make([]string, len(routes))
	for i, r := range routes {
		keys[i] = routeKey(r)
	}

	removed, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		c.log.Warn("invalidate failed", zap.Strings("routes", routes), zap.Error(err))
		return fmt.Errorf("invalidate routes: %w", err)
	}
	c.log.Debug("invalidated", zap.Strings("routes", routes), zap.Int64("removed", removed))
	return nil
}

// MemoryRouteCache is the in-process RouteCache used when Redis is not configured.
type MemoryRouteCache struct {
	mu     sync.RWMutex
	bodies map[string][]byte
}

func NewMemoryRouteCache() *MemoryRouteCache {
	return &MemoryRouteCache{bodies: make(map[string][]byte)}
}

func (c *MemoryRouteCache) Get(_ context.Context, route string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	body, ok := c.bodies[route]
	return body, ok, nil
}

func (c *MemoryRouteCache) Set(_ context.Context, route string, body []byte) error {
	c.mu.Lock()
	c.bodies[route] = body
	c.mu.Unlock()
	return nil
}

func (c *MemoryRouteCache) Invalidate(_ context.Context, routes ...string) error {
	c.mu.Lock()
	for _, r := range routes {
		delete(c.bodies, r)
	}
	c.mu.Unlock()
	return nil
}
