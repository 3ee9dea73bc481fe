package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"kathaipom/internal/cache"
	"kathaipom/internal/model"
	"kathaipom/internal/queue"
	"kathaipom/internal/repository"
	"kathaipom/internal/store"
)

const (
	seedPassword = "secret-password"

	// firstUserID is what the frozen test clock gives the first registered account.
	firstUserID = "user-1700000000000"
)

var testNow = time.UnixMilli(1700000000000)

// =============================================================================
// TEST ENVIRONMENT
// =============================================================================
//
// The services run against real repositories over the in-memory store, seeded with
// the three default accounts: user-1 nafadmin (admin), user-2 janedoe, user-3 johnsmith.

type testEnv struct {
	store     *store.MemoryStore
	users     repository.UserRepository
	stories   repository.StoryRepository
	routes    *cache.MemoryRouteCache
	publisher *recordingPublisher
	activity  *Activity

	userSvc   *UserService
	followSvc *FollowService
	storySvc  *StoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.MinCost)
	require.NoError(t, err)

	st := store.NewMemoryStore(store.SeedUsers(string(hash)))
	env := &testEnv{
		store:     st,
		users:     repository.NewUserRepository(st),
		stories:   repository.NewStoryRepository(st),
		routes:    cache.NewMemoryRouteCache(),
		publisher: &recordingPublisher{},
	}
	env.activity = NewActivity(env.routes, env.publisher, nil, nil)
	env.userSvc = NewUserService(env.users, env.stories, env.activity, nil, "nafadmin", nil)
	env.userSvc.now = func() time.Time { return testNow }
	env.followSvc = NewFollowService(env.users, env.activity, nil, nil)
	env.storySvc = NewStoryService(env.stories, env.users, env.routes, env.activity, nil, nil)
	return env
}

// addStoryAt stores a story with a fixed timestamp.
func (e *testEnv) addStoryAt(t *testing.T, authorID, text string, at time.Time) *model.EnrichedStory {
	t.Helper()
	e.storySvc.now = func() time.Time { return at }
	story, err := e.storySvc.AddStory(context.Background(), authorID, model.CreateStoryRequest{Pages: []string{text}})
	require.NoError(t, err)
	return story
}

func (e *testEnv) user(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := e.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) allStories(t *testing.T) []model.Story {
	t.Helper()
	stories, err := e.stories.List(context.Background())
	require.NoError(t, err)
	return stories
}

// =============================================================================
// MOCK PUBLISHER
// =============================================================================

type recordingPublisher struct {
	events []queue.ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event queue.ActivityEvent) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "1-0", nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
