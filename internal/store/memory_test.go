package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(SeedUsers(""))

	users, err := s.LoadUsers(ctx)
	require.NoError(t, err)
	users[0].Name = "changed"
	users[0].Followers = append(users[0].Followers, "user-2")

	reloaded, err := s.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NAVEEN.G", reloaded[0].Name, "unsaved edits must not leak into the store")
	assert.Empty(t, reloaded[0].Followers)

	require.NoError(t, s.SaveUsers(ctx, users))
	reloaded, err = s.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "changed", reloaded[0].Name)
	assert.Equal(t, []string{"user-2"}, reloaded[0].Followers)
}

func TestMemoryStore_SeedsStoriesEmpty(t *testing.T) {
	s := NewMemoryStore(nil)

	stories, err := s.LoadStories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, stories)
	assert.Empty(t, stories)

	users, err := s.LoadUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}
