package queue

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"kathaipom/internal/logger"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by the transport.
	Publish(ctx context.Context, stream string, event ActivityEvent) (messageID string, err error)
}

// EventHandler processes one event. The worker handler implements it.
type EventHandler interface {
	HandleEvent(ctx context.Context, event ActivityEvent) error
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	log    *zap.Logger
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client, log *zap.Logger) Publisher {
	return &RedisPublisher{client: client, log: logger.OrNop(log).Named("publisher")}
}

// Publish adds an event to the stream using XADD.
// Uses "*" for auto-generated message ID (timestamp-sequence).
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event ActivityEvent) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		p.log.Error("publish failed", zap.String("stream", stream), zap.String("type", event.Type), zap.Error(err))
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		p.log.Error("publish failed", zap.String("stream", stream), zap.String("type", event.Type), zap.Error(err))
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.log.Debug("published",
		zap.String("stream", stream),
		zap.String("type", event.Type),
		zap.String("msg_id", messageID),
		zap.String("actor", event.ActorID),
		zap.Duration("duration", time.Since(startTime)))
	return messageID, nil
}

// InlinePublisher hands each event straight to a handler on the caller's goroutine.
// It stands in for the stream when Redis is not configured.
type InlinePublisher struct {
	handler EventHandler
	seq     atomic.Int64
}

func NewInlinePublisher(handler EventHandler) *InlinePublisher {
	return &InlinePublisher{handler: handler}
}

func (p *InlinePublisher) Publish(ctx context.Context, stream string, event ActivityEvent) (string, error) {
	id := "inline-" + strconv.FormatInt(p.seq.Add(1), 10)
	if err := p.handler.HandleEvent(ctx, event); err != nil {
		return id, fmt.Errorf("handle %s inline: %w", event.Type, err)
	}
	return id, nil
}
