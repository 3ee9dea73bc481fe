package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kathaipom/internal/cache"
	"kathaipom/internal/model"
	"kathaipom/internal/queue"
)

// =============================================================================
// ADD STORY TESTS
// =============================================================================

func TestStoryService_AddStory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	story, err := env.storySvc.AddStory(ctx, "user-2", model.CreateStoryRequest{Pages: []string{"hello", "page two"}})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(story.ID, model.StoryIDPrefix))
	assert.Equal(t, "user-2", story.AuthorID)
	assert.Equal(t, "Jane Doe", story.AuthorName)
	assert.Equal(t, "janedoe", story.Author.Username)
	assert.Equal(t, 0, story.Likes)
	assert.Equal(t, []string{}, story.LikedBy)
	assert.Empty(t, story.Comments)

	stories, err := env.storySvc.GetStoriesByUsername(ctx, "janedoe")
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, []string{"hello", "page two"}, stories[0].Content)
	assert.Equal(t, []string{queue.EventStoryCreated}, env.publisher.types())
}

func TestStoryService_AddStory_Rejected(t *testing.T) {
	tooLong := strings.Repeat("x", model.MaxPageLength+1)
	tests := []struct {
		name string
		req  model.CreateStoryRequest
		want error
	}{
		{"no pages", model.CreateStoryRequest{}, model.ErrEmptyStory},
		{"blank pages", model.CreateStoryRequest{Pages: []string{"", "   ", "\n"}}, model.ErrEmptyStory},
		{"many blank pages", model.CreateStoryRequest{Pages: make([]string, model.MaxStoryPages+1)}, model.ErrEmptyStory},
		{"page too long", model.CreateStoryRequest{Pages: []string{tooLong}}, model.ErrPageTooLong},
		{"too many images", model.CreateStoryRequest{Pages: []string{"ok"}, Images: make([]string, model.MaxStoryImages+1)}, model.ErrTooManyImages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.storySvc.AddStory(context.Background(), "user-2", tt.req)

			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, env.allStories(t), "nothing persisted")
			assert.Empty(t, env.publisher.events)
		})
	}
}

func TestStoryService_AddStory_TooManyPages(t *testing.T) {
	env := newTestEnv(t)
	pages := make([]string, model.MaxStoryPages+1)
	for i := range pages {
		pages[i] = "page"
	}

	_, err := env.storySvc.AddStory(context.Background(), "user-2", model.CreateStoryRequest{Pages: pages})

	assert.ErrorIs(t, err, model.ErrTooManyPages)
}

func TestStoryService_AddStory_UnknownAuthor(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.storySvc.AddStory(context.Background(), "user-404", model.CreateStoryRequest{Pages: []string{"hi"}})

	assert.ErrorIs(t, err, model.ErrUserNotFound)
	assert.Empty(t, env.allStories(t))
}

// =============================================================================
// READ TESTS
// =============================================================================

func TestStoryService_GetStories_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// addStory prepends, so storage order is second, third, first.
	s1 := env.addStoryAt(t, "user-2", "first", base.Add(3*time.Hour))
	s3 := env.addStoryAt(t, "user-3", "third", base.Add(1*time.Hour))
	s2 := env.addStoryAt(t, "user-1", "second", base.Add(2*time.Hour))

	stories, err := env.storySvc.GetStories(context.Background())

	require.NoError(t, err)
	require.Len(t, stories, 3)
	assert.Equal(t, []string{s1.ID, s2.ID, s3.ID}, []string{stories[0].ID, stories[1].ID, stories[2].ID})
}

func TestStoryService_GetStories_UnknownAuthorPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.stories.Mutate(ctx, func(stories []model.Story) ([]model.Story, error) {
		return append(stories, model.Story{
			ID:        "story-orphan",
			AuthorID:  "user-404",
			Content:   []string{"left behind"},
			Comments:  []model.Comment{{ID: "comment-1", AuthorID: "user-405", AuthorName: "Gone", Content: "hi"}},
			Timestamp: time.Now(),
		}), nil
	}))

	stories, err := env.storySvc.GetStories(ctx)

	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, model.UnknownAuthorName, stories[0].Author.Name)
	assert.Equal(t, model.UnknownAuthorName, stories[0].AuthorName)
	assert.Equal(t, model.UnknownCommenter, stories[0].Comments[0].AuthorName)
	assert.Equal(t, []string{}, stories[0].LikedBy)
}

func TestStoryService_GetStoriesByUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStoryAt(t, "user-2", "hello", time.Now())
	env.addStoryAt(t, "user-3", "other", time.Now())

	stories, err := env.storySvc.GetStoriesByUsername(ctx, "janedoe")
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, []string{"hello"}, stories[0].Content)

	none, err := env.storySvc.GetStoriesByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, none)
	_, found, _ := env.routes.Get(ctx, cache.ProfileRoute("ghost"))
	assert.False(t, found, "unknown users are not cached")
}

func TestStoryService_GetStoriesByUsername_SeesNewStoryAfterCaching(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	empty, err := env.storySvc.GetStoriesByUsername(ctx, "janedoe")
	require.NoError(t, err)
	assert.Empty(t, empty)
	_, found, _ := env.routes.Get(ctx, cache.ProfileRoute("janedoe"))
	require.True(t, found)

	env.addStoryAt(t, "user-2", "hello", time.Now())

	stories, err := env.storySvc.GetStoriesByUsername(ctx, "janedoe")
	require.NoError(t, err)
	assert.Len(t, stories, 1)
}

func TestStoryService_GetStory(t *testing.T) {
	env := newTestEnv(t)
	created := env.addStoryAt(t, "user-3", "solo", time.Now())

	story, err := env.storySvc.GetStory(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "johnsmith", story.Author.Username)

	_, err = env.storySvc.GetStory(context.Background(), "story-missing")
	assert.ErrorIs(t, err, model.ErrStoryNotFound)
}

func TestStoryService_GetLikedStories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.addStoryAt(t, "user-2", "a", time.Now())
	env.addStoryAt(t, "user-2", "b", time.Now())
	_, err := env.storySvc.Like(ctx, a.ID, "user-3")
	require.NoError(t, err)

	liked, err := env.storySvc.GetLikedStoriesByUserID(ctx, "user-3")

	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, a.ID, liked[0].ID)
}

// =============================================================================
// LIKE / COMMENT / DELETE TESTS
// =============================================================================

func TestStoryService_Like_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	story := env.addStoryAt(t, "user-2", "likeable", time.Now())

	first, err := env.storySvc.Like(ctx, story.ID, "user-3")
	require.NoError(t, err)
	second, err := env.storySvc.Like(ctx, story.ID, "user-3")
	require.NoError(t, err)

	assert.Equal(t, 1, first.Likes)
	assert.Equal(t, 1, second.Likes)
	assert.Equal(t, []string{"user-3"}, second.LikedBy)
	assert.Equal(t, []string{queue.EventStoryCreated, queue.EventStoryLiked}, env.publisher.types())
}

func TestStoryService_Unlike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	story := env.addStoryAt(t, "user-2", "likeable", time.Now())
	_, err := env.storySvc.Like(ctx, story.ID, "user-3")
	require.NoError(t, err)

	unliked, err := env.storySvc.Unlike(ctx, story.ID, "user-3")
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.Likes)
	assert.Empty(t, unliked.LikedBy)

	again, err := env.storySvc.Unlike(ctx, story.ID, "user-3")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Likes)
}

func TestStoryService_Like_Errors(t *testing.T) {
	env := newTestEnv(t)
	story := env.addStoryAt(t, "user-2", "x", time.Now())

	_, err := env.storySvc.Like(context.Background(), "story-missing", "user-3")
	assert.ErrorIs(t, err, model.ErrStoryNotFound)

	_, err = env.storySvc.Like(context.Background(), story.ID, "")
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestStoryService_Like_DeletedUser(t *testing.T) {
	// ARRANGE: johnsmith is removed while his session is still valid
	env := newTestEnv(t)
	ctx := context.Background()
	story := env.addStoryAt(t, "user-2", "x", time.Now())
	require.NoError(t, env.userSvc.DeleteUserAndPosts(ctx, "user-3", "user-1"))

	// ACT
	_, likeErr := env.storySvc.Like(ctx, story.ID, "user-3")
	_, unlikeErr := env.storySvc.Unlike(ctx, story.ID, "user-3")

	// ASSERT
	assert.ErrorIs(t, likeErr, model.ErrUserNotFound)
	assert.ErrorIs(t, unlikeErr, model.ErrUserNotFound)
	stored, err := env.stories.GetByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.LikedBy)
	assert.Equal(t, 0, stored.Likes)
}

func TestStoryService_Like_InvalidatesFeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	story := env.addStoryAt(t, "user-2", "x", time.Now())
	_, err := env.storySvc.GetStories(ctx)
	require.NoError(t, err)

	_, err = env.storySvc.Like(ctx, story.ID, "user-3")
	require.NoError(t, err)

	stories, err := env.storySvc.GetStories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stories[0].Likes)
}

func TestStoryService_AddComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	story := env.addStoryAt(t, "user-2", "x", time.Now())

	comment, err := env.storySvc.AddComment(ctx, story.ID, "user-3", "  lovely  ")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(comment.ID, model.CommentIDPrefix))
	assert.Equal(t, "lovely", comment.Content)
	assert.Equal(t, "John Smith", comment.AuthorName)

	got, err := env.storySvc.GetStory(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, comment.ID, got.Comments[0].ID)
}

func TestStoryService_AddComment_Rejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	story := env.addStoryAt(t, "user-2", "x", time.Now())

	_, err := env.storySvc.AddComment(ctx, story.ID, "user-3", "   ")
	assert.ErrorIs(t, err, model.ErrContentRequired)

	_, err = env.storySvc.AddComment(ctx, story.ID, "", "hi")
	assert.ErrorIs(t, err, model.ErrContentRequired)

	_, err = env.storySvc.AddComment(ctx, "", "user-3", "hi")
	assert.ErrorIs(t, err, model.ErrContentRequired)

	_, err = env.storySvc.AddComment(ctx, story.ID, "user-3", strings.Repeat("a", model.MaxCommentLength+1))
	assert.ErrorIs(t, err, model.ErrContentTooLong)

	_, err = env.storySvc.AddComment(ctx, "story-missing", "user-3", "hi")
	assert.ErrorIs(t, err, model.ErrStoryNotFound)

	assert.Empty(t, env.allStories(t)[0].Comments)
}

func TestStoryService_AddComment_LiveAuthorName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	story := env.addStoryAt(t, "user-2", "x", time.Now())
	_, err := env.storySvc.AddComment(ctx, story.ID, "user-3", "hi")
	require.NoError(t, err)

	name := "Johnny"
	_, err = env.userSvc.UpdateProfile(ctx, "user-3", &model.UpdateProfileRequest{Name: &name})
	require.NoError(t, err)

	got, err := env.storySvc.GetStory(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, "Johnny", got.Comments[0].AuthorName)
}

func TestStoryService_DeleteStory(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		wantErr error
	}{
		{"author", "user-2", nil},
		{"admin", "user-1", nil},
		{"someone else", "user-3", model.ErrNotStoryOwner},
		{"unknown actor", "user-404", model.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			story := env.addStoryAt(t, "user-2", "x", time.Now())

			err := env.storySvc.DeleteStory(context.Background(), story.ID, tt.actor)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, env.allStories(t), 1)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, env.allStories(t))
			assert.Contains(t, env.publisher.types(), queue.EventStoryDeleted)
		})
	}
}

func TestStoryService_DeleteStory_NotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.storySvc.DeleteStory(context.Background(), "story-missing", "user-1")

	assert.ErrorIs(t, err, model.ErrStoryNotFound)
}

func TestStoryService_PublishFailureDoesNotFailMutation(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = assert.AnError

	story, err := env.storySvc.AddStory(context.Background(), "user-2", model.CreateStoryRequest{Pages: []string{"hi"}})

	require.NoError(t, err)
	assert.NotNil(t, story)
	assert.Len(t, env.allStories(t), 1)
}
