package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kathaipom/internal/cache"
	"kathaipom/internal/logger"
	"kathaipom/internal/metrics"
	"kathaipom/internal/model"
	"kathaipom/internal/queue"
)

// Handler processes activity events from the queue.
// It keeps the interaction log current and drops cached routes the event made stale.
type Handler struct {
	routes       cache.RouteCache
	interactions cache.InteractionLog
	metrics      *metrics.Metrics
	log          *zap.Logger
}

// NewHandler creates a new event handler. m may be nil.
func NewHandler(routes cache.RouteCache, interactions cache.InteractionLog, m *metrics.Metrics, log *zap.Logger) *Handler {
	return &Handler{
		routes:       routes,
		interactions: interactions,
		metrics:      m,
		log:          logger.OrNop(log).Named("worker"),
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ActivityEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventStoryLiked:
		err = h.record(ctx, event.ActorID, event.StoryID, model.InteractionLike, event)
	case queue.EventStoryCommented:
		err = h.record(ctx, event.ActorID, event.StoryID, model.InteractionComment, event)
	case queue.EventUserFollowed:
		err = h.record(ctx, event.ActorID, event.TargetUserID, model.InteractionFollow, event)
	case queue.EventUserDeleted:
		err = h.interactions.Forget(ctx, event.TargetUserID)
	case queue.EventStoryCreated, queue.EventStoryDeleted, queue.EventStoryUnliked,
		queue.EventUserUnfollowed, queue.EventUserUpdated, queue.EventStoriesImported:
		// route invalidation only
	default:
		h.log.Warn("unknown event type", zap.String("type", event.Type))
		err = fmt.Errorf("unknown event type: %s", event.Type)
	}

	if invErr := h.invalidate(ctx, event); invErr != nil && err == nil {
		err = invErr
	}

	h.metrics.EventHandled(event.Type, err)
	if err != nil {
		h.log.Warn("handle event failed",
			zap.String("type", event.Type),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err))
		return err
	}

	h.log.Debug("handled event",
		zap.String("type", event.Type),
		zap.String("actor", event.ActorID),
		zap.Int("routes", len(event.Routes)),
		zap.Duration("duration", time.Since(startTime)))
	return nil
}

func (h *Handler) record(ctx context.Context, userID, targetID, kind string, event queue.ActivityEvent) error {
	if userID == "" || targetID == "" {
		return fmt.Errorf("%s event missing ids", event.Type)
	}
	err := h.interactions.Record(ctx, userID, model.Interaction{
		TargetID:  targetID,
		Type:      kind,
		Timestamp: event.Time(),
	})
	if err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}
	return nil
}

func (h *Handler) invalidate(ctx context.Context, event queue.ActivityEvent) error {
	if len(event.Routes) == 0 {
		return nil
	}
	if err := h.routes.Invalidate(ctx, event.Routes...); err != nil {
		return fmt.Errorf("invalidate routes: %w", err)
	}
	return nil
}
