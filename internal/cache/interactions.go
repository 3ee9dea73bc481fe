package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"kathaipom/internal/logger"
	"kathaipom/internal/model"
)

const (
	// InteractionPrefix is the key prefix for per-user interaction history
	InteractionPrefix = "interactions:user:"

	// InteractionCap is the number of interactions kept per user
	InteractionCap = 100

	// InteractionTTL expires the history of users who stop interacting
	InteractionTTL = 30 * 24 * time.Hour
)

// InteractionLog keeps each user's recent likes, comments and follows, newest first.
type InteractionLog interface {
	Record(ctx context.Context, userID string, in model.Interaction) error
	Recent(ctx context.Context, userID string, limit int) ([]model.Interaction, error)
	// Forget drops a user's history (account deletion).
	Forget(ctx context.Context, userID string) error
}

// RedisInteractionLog implements InteractionLog with a capped Redis list per user.
type RedisInteractionLog struct {
	client *redis.Client
	log    *zap.Logger
}

func NewInteractionLog(client *redis.Client, log *zap.Logger) InteractionLog {
	return &RedisInteractionLog{
		client: client,
		log:    logger.OrNop(log).Named("interactions"),
	}
}

func interactionKey(userID string) string {
	return InteractionPrefix + userID
}

// Record pushes the interaction using a pipeline: LPUSH + LTRIM (cap) + EXPIRE (refresh TTL).
func (l *RedisInteractionLog) Record(ctx context.Context, userID string, in model.Interaction) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	key := interactionKey(userID)
	pipe := l.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, InteractionCap-1)
	pipe.Expire(ctx, key, InteractionTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Warn("record failed", zap.String("user", userID), zap.String("type", in.Type), zap.Error(err))
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

func (l *RedisInteractionLog) Recent(ctx context.Context, userID string, limit int) ([]model.Interaction, error) {
	if limit <= 0 || limit > InteractionCap {
		limit = InteractionCap
	}

	raw, err := l.client.LRange(ctx, interactionKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read interactions: %w", err)
	}

	out := make([]model.Interaction, 0, len(raw))
	for _, item := range raw {
		var in model.Interaction
		if err := json.Unmarshal([]byte(item), &in); err != nil {
			l.log.Warn("skipping malformed interaction", zap.String("user", userID), zap.Error(err))
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (l *RedisInteractionLog) Forget(ctx context.Context, userID string) error {
	if err := l.client.Del(ctx, interactionKey(userID)).Err(); err != nil {
		return fmt.Errorf("forget interactions: %w", err)
	}
	return nil
}

// MemoryInteractionLog is the in-process InteractionLog used when Redis is not configured.
type MemoryInteractionLog struct {
	mu    sync.Mutex
	items map[string][]model.Interaction
}

func NewMemoryInteractionLog() *MemoryInteractionLog {
	return &MemoryInteractionLog{items: make(map[string][]model.Interaction)}
}

func (l *MemoryInteractionLog) Record(_ context.Context, userID string, in model.Interaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := append([]model.Interaction{in}, l.items[userID]...)
	if len(list) > InteractionCap {
		list = list[:InteractionCap]
	}
	l.items[userID] = list
	return nil
}

func (l *MemoryInteractionLog) Recent(_ context.Context, userID string, limit int) ([]model.Interaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.items[userID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]model.Interaction, len(list))
	copy(out, list)
	return out, nil
}

func (l *MemoryInteractionLog) Forget(_ context.Context, userID string) error {
	l.mu.Lock()
	delete(l.items, userID)
	l.mu.Unlock()
	return nil
}
