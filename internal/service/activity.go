package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"kathaipom/internal/cache"
	"kathaipom/internal/logger"
	"kathaipom/internal/metrics"
	"kathaipom/internal/queue"
)

// Activity carries the side effects every successful mutation shares: dropping the cached
// routes it made stale and publishing an activity event. Both are best-effort.
type Activity struct {
	routes    cache.RouteCache
	publisher queue.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewActivity wires the route cache and publisher. publisher and m may be nil.
func NewActivity(routes cache.RouteCache, publisher queue.Publisher, m *metrics.Metrics, log *zap.Logger) *Activity {
	if routes == nil {
		routes = cache.NewMemoryRouteCache()
	}
	return &Activity{
		routes:    routes,
		publisher: publisher,
		metrics:   m,
		log:       logger.OrNop(log).Named("activity"),
	}
}

// Emit invalidates the event's routes right away, so the caller's next read is fresh,
// then publishes the event for the workers.
func (a *Activity) Emit(ctx context.Context, event queue.ActivityEvent) {
	if len(event.Routes) > 0 {
		if err := a.routes.Invalidate(ctx, event.Routes...); err != nil {
			a.log.Warn("invalidate failed", zap.String("type", event.Type), zap.Strings("routes", event.Routes), zap.Error(err))
		}
	}

	if a.publisher == nil {
		return
	}
	msgID, err := a.publisher.Publish(ctx, queue.StreamActivity, event)
	a.metrics.EventPublished(event.Type, err)
	if err != nil {
		a.log.Warn("publish failed", zap.String("type", event.Type), zap.String("actor", event.ActorID), zap.Error(err))
		return
	}
	a.log.Debug("published", zap.String("type", event.Type), zap.String("msg_id", msgID))
}

// Routes returns the feed route plus the profile route of every non-empty username,
// deduplicated and in a stable order.
func Routes(usernames ...string) []string {
	seen := map[string]bool{cache.FeedRoute: true}
	out := []string{cache.FeedRoute}
	var profiles []string
	for _, u := range usernames {
		if u == "" {
			continue
		}
		r := cache.ProfileRoute(u)
		if !seen[r] {
			seen[r] = true
			profiles = append(profiles, r)
		}
	}
	sort.Strings(profiles)
	return append(out, profiles...)
}
