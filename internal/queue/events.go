package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the activity stream
const (
	EventStoryCreated    = "story_created"
	EventStoryDeleted    = "story_deleted"
	EventStoryLiked      = "story_liked"
	EventStoryUnliked    = "story_unliked"
	EventStoryCommented  = "story_commented"
	EventUserFollowed    = "user_followed"
	EventUserUnfollowed  = "user_unfollowed"
	EventUserUpdated     = "user_updated"
	EventUserDeleted     = "user_deleted"
	EventStoriesImported = "stories_imported"
)

// Stream names
const (
	StreamActivity = "stream:activity"
)

// Consumer group name for activity workers
const (
	ConsumerGroupActivity = "activity_workers"
)

// ActivityEvent is published after every successful mutation.
// Routes lists the cached renderings the mutation made stale.
type ActivityEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix seconds when the mutation was saved

	ActorID      string   `json:"actor_id,omitempty"`
	StoryID      string   `json:"story_id,omitempty"`
	TargetUserID string   `json:"target_user_id,omitempty"`
	Count        int      `json:"count,omitempty"`
	Routes       []string `json:"routes,omitempty"`
}

// Time returns the event timestamp.
func (e ActivityEvent) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

func newEvent(eventType, actorID string, routes []string) ActivityEvent {
	return ActivityEvent{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		ActorID:   actorID,
		Routes:    routes,
	}
}

// NewStoryEvent covers story created/deleted/liked/unliked/commented.
func NewStoryEvent(eventType, actorID, storyID string, routes []string) ActivityEvent {
	e := newEvent(eventType, actorID, routes)
	e.StoryID = storyID
	return e
}

// NewUserEvent covers follow, unfollow, profile update and deletion.
func NewUserEvent(eventType, actorID, targetUserID string, routes []string) ActivityEvent {
	e := newEvent(eventType, actorID, routes)
	e.TargetUserID = targetUserID
	return e
}

// NewStoriesImportedEvent reports a repository import.
func NewStoriesImportedEvent(actorID string, count int, routes []string) ActivityEvent {
	e := newEvent(EventStoriesImported, actorID, routes)
	e.Count = count
	return e
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e ActivityEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseActivityEvent parses an ActivityEvent from Redis stream message values.
func ParseActivityEvent(values map[string]interface{}) (ActivityEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ActivityEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ActivityEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ActivityEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
