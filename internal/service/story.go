package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kathaipom/internal/cache"
	"kathaipom/internal/logger"
	"kathaipom/internal/metrics"
	"kathaipom/internal/model"
	"kathaipom/internal/queue"
	"kathaipom/internal/repository"
)

// StoryService owns story mutations and the joined read views.
type StoryService struct {
	stories  repository.StoryRepository
	users    repository.UserRepository
	routes   cache.RouteCache
	activity *Activity
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewStoryService(
	stories repository.StoryRepository,
	users repository.UserRepository,
	routes cache.RouteCache,
	activity *Activity,
	m *metrics.Metrics,
	log *zap.Logger,
) *StoryService {
	if routes == nil {
		routes = cache.NewMemoryRouteCache()
	}
	if activity == nil {
		activity = NewActivity(routes, nil, nil, log)
	}
	return &StoryService{
		stories:  stories,
		users:    users,
		routes:   routes,
		activity: activity,
		metrics:  m,
		log:      logger.OrNop(log).Named("stories"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddStory publishes a new story, stored ahead of the existing ones.
// It is rejected with ErrEmptyStory when every page is blank.
func (s *StoryService) AddStory(ctx context.Context, authorID string, req model.CreateStoryRequest) (*model.EnrichedStory, error) {
	if err := validateStory(req); err != nil {
		return nil, err
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	story := model.Story{
		ID:             model.StoryIDPrefix + uuid.NewString(),
		AuthorID:       author.ID,
		AuthorName:     author.Name,
		AuthorUsername: author.Username,
		Content:        req.Pages,
		Images:         req.Images,
		Likes:          0,
		LikedBy:        []string{},
		Comments:       []model.Comment{},
		Timestamp:      s.now(),
	}

	err = s.stories.Mutate(ctx, func(stories []model.Story) ([]model.Story, error) {
		return append([]model.Story{story}, stories...), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}

	s.metrics.StoryCreated("api", 1)
	s.activity.Emit(ctx, queue.NewStoryEvent(queue.EventStoryCreated, author.ID, story.ID, Routes(author.Username)))
	s.log.Info("story created", zap.String("story", story.ID), zap.String("author", author.ID), zap.Int("pages", len(story.Content)))

	enriched := joinStory(story, map[string]*model.User{author.ID: author})
	return &enriched, nil
}

// Like adds userID to the story's likers. Liking twice is a no-op.
func (s *StoryService) Like(ctx context.Context, storyID, userID string) (*model.Story, error) {
	return s.setLike(ctx, storyID, userID, true)
}

// Unlike removes userID from the story's likers. Unliking a story not liked is a no-op.
func (s *StoryService) Unlike(ctx context.Context, storyID, userID string) (*model.Story, error) {
	return s.setLike(ctx, storyID, userID, false)
}

func (s *StoryService) setLike(ctx context.Context, storyID, userID string, like bool) (*model.Story, error) {
	if userID == "" {
		return nil, model.ErrForbidden
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	var result model.Story
	changed := false
	err := s.stories.Mutate(ctx, func(stories []model.Story) ([]model.Story, error) {
		i := repository.FindStory(stories, storyID)
		if i < 0 {
			return nil, model.ErrStoryNotFound
		}
		st := &stories[i]
		liked := st.IsLikedBy(userID)

		switch {
		case like && !liked:
			st.LikedBy = append(st.LikedBy, userID)
			st.Likes++
			changed = true
		case !like && liked:
			st.LikedBy = removeID(st.LikedBy, userID)
			if st.Likes > 0 {
				st.Likes--
			}
			changed = true
		}
		result = *st
		if !changed {
			return nil, repository.ErrNoChange
		}
		return stories, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		eventType := queue.EventStoryLiked
		if !like {
			eventType = queue.EventStoryUnliked
		}
		s.metrics.Liked(like)
		s.activity.Emit(ctx, queue.NewStoryEvent(eventType, userID, storyID, s.storyRoutes(ctx, result)))
	}
	return &result, nil
}

// AddComment appends a comment. Missing story id, actor or blank text is ErrContentRequired.
func (s *StoryService) AddComment(ctx context.Context, storyID, actorID, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if storyID == "" || actorID == "" || text == "" {
		return nil, model.ErrContentRequired
	}
	if utf8.RuneCountInString(text) > model.MaxCommentLength {
		return nil, model.ErrContentTooLong
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	comment := model.Comment{
		ID:         model.CommentIDPrefix + uuid.NewString(),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Content:    text,
		Timestamp:  s.now(),
	}

	var story model.Story
	err = s.stories.Mutate(ctx, func(stories []model.Story) ([]model.Story, error) {
		i := repository.FindStory(stories, storyID)
		if i < 0 {
			return nil, model.ErrStoryNotFound
		}
		stories[i].Comments = append(stories[i].Comments, comment)
		story = stories[i]
		return stories, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Commented()
	s.activity.Emit(ctx, queue.NewStoryEvent(queue.EventStoryCommented, actorID, storyID, s.storyRoutes(ctx, story)))
	return &comment, nil
}

// DeleteStory removes a story. Only its author or an admin may delete it.
func (s *StoryService) DeleteStory(ctx context.Context, storyID, actorID string) error {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return err
	}

	var removed model.Story
	err = s.stories.Mutate(ctx, func(stories []model.Story) ([]model.Story, error) {
		i := repository.FindStory(stories, storyID)
		if i < 0 {
			return nil, model.ErrStoryNotFound
		}
		if stories[i].AuthorID != actor.ID && !actor.IsAdmin {
			return nil, model.ErrNotStoryOwner
		}
		removed = stories[i]
		return append(stories[:i], stories[i+1:]...), nil
	})
	if err != nil {
		return err
	}

	s.metrics.StoryDeleted()
	s.activity.Emit(ctx, queue.NewStoryEvent(queue.EventStoryDeleted, actorID, storyID, s.storyRoutes(ctx, removed)))
	s.log.Info("story deleted", zap.String("story", storyID), zap.String("by", actorID))
	return nil
}

// GetStory returns one joined story.
func (s *StoryService) GetStory(ctx context.Context, storyID string) (*model.EnrichedStory, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	enriched := joinStory(*story, usersByID(users))
	return &enriched, nil
}

// GetStories returns every story joined with its author, newest first.
// The result is served from the route cache when possible.
func (s *StoryService) GetStories(ctx context.Context) ([]model.EnrichedStory, error) {
	return s.cachedList(ctx, cache.FeedRoute, func(stories []model.Story, _ []model.User) ([]model.Story, bool) {
		return stories, true
	})
}

// GetStoriesByUsername returns the user's stories, newest first. An unknown user has none.
func (s *StoryService) GetStoriesByUsername(ctx context.Context, username string) ([]model.EnrichedStory, error) {
	return s.cachedList(ctx, cache.ProfileRoute(username), func(stories []model.Story, users []model.User) ([]model.Story, bool) {
		i := repository.FindUsername(users, username)
		if i < 0 {
			return nil, false
		}
		return filterStories(stories, func(st model.Story) bool { return st.AuthorID == users[i].ID }), true
	})
}

// GetLikedStoriesByUserID returns the stories userID has liked, newest first.
func (s *StoryService) GetLikedStoriesByUserID(ctx context.Context, userID string) ([]model.EnrichedStory, error) {
	stories, users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	liked := filterStories(stories, func(st model.Story) bool { return st.IsLikedBy(userID) })
	return joinStories(liked, users), nil
}

func (s *StoryService) load(ctx context.Context) ([]model.Story, []model.User, error) {
	stories, err := s.stories.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return stories, users, nil
}

// cachedList serves a joined list from the route cache, building and storing it on a miss.
// Cache failures are logged and the list is built from the store. pick reports false when
// the result must not be cached.
func (s *StoryService) cachedList(ctx context.Context, route string, pick func([]model.Story, []model.User) ([]model.Story, bool)) ([]model.EnrichedStory, error) {
	if body, found, err := s.routes.Get(ctx, route); err != nil {
		s.log.Warn("route cache read failed", zap.String("route", route), zap.Error(err))
	} else if found {
		var cached []model.EnrichedStory
		if err := json.Unmarshal(body, &cached); err == nil {
			return cached, nil
		}
		s.log.Warn("discarding undecodable cache entry", zap.String("route", route))
	}

	stories, users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	picked, cacheable := pick(stories, users)
	joined := joinStories(picked, users)
	if !cacheable {
		return joined, nil
	}

	if body, err := json.Marshal(joined); err == nil {
		if err := s.routes.Set(ctx, route, body); err != nil {
			s.log.Warn("route cache write failed", zap.String("route", route), zap.Error(err))
		}
	}
	return joined, nil
}

// storyRoutes names the routes showing the story: the feed and its author's profile.
func (s *StoryService) storyRoutes(ctx context.Context, st model.Story) []string {
	username := st.AuthorUsername
	if author, err := s.users.GetByID(ctx, st.AuthorID); err == nil {
		username = author.Username
	}
	if username == "" || strings.EqualFold(username, st.AuthorUsername) {
		return Routes(username)
	}
	// The snapshot drifted; drop both profiles.
	return Routes(username, st.AuthorUsername)
}

func filterStories(stories []model.Story, keep func(model.Story) bool) []model.Story {
	out := make([]model.Story, 0)
	for _, st := range stories {
		if keep(st) {
			out = append(out, st)
		}
	}
	return out
}

func validateStory(req model.CreateStoryRequest) error {
	if !model.HasContent(req.Pages) {
		return model.ErrEmptyStory
	}
	if len(req.Pages) > model.MaxStoryPages {
		return model.ErrTooManyPages
	}
	for _, p := range req.Pages {
		if utf8.RuneCountInString(p) > model.MaxPageLength {
			return model.ErrPageTooLong
		}
	}
	if len(req.Images) > model.MaxStoryImages {
		return model.ErrTooManyImages
	}
	return nil
}
