package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kathaipom/internal/model"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), SeedUsers("hash"), nil)
	require.NoError(t, err)
	return s
}

func TestFileStore_LoadUsers_SeedsMissingFile(t *testing.T) {
	s := newTestFileStore(t)

	users, err := s.LoadUsers(context.Background())
	require.NoError(t, err)

	require.Len(t, users, 3)
	assert.Equal(t, "user-1", users[0].ID)
	assert.True(t, users[0].IsAdmin)
	assert.Equal(t, "janedoe", users[1].Username)
	assert.Equal(t, "johnsmith", users[2].Username)

	// The seed must be persisted, not just returned
	_, err = os.Stat(s.Path(UsersDocument))
	assert.NoError(t, err, "users.json should exist after the first load")
}

func TestFileStore_LoadStories_SeedsEmptyList(t *testing.T) {
	s := newTestFileStore(t)

	stories, err := s.LoadStories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stories)
	assert.NotNil(t, stories)

	data, err := os.ReadFile(s.Path(StoriesDocument))
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestFileStore_SaveStories_ReplacesWholeDocument(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	first := []model.Story{
		{ID: "story-a", AuthorID: "user-1", Content: []string{"a"}, Timestamp: time.Now().UTC()},
		{ID: "story-b", AuthorID: "user-2", Content: []string{"b"}, Timestamp: time.Now().UTC()},
	}
	require.NoError(t, s.SaveStories(ctx, first))
	require.NoError(t, s.SaveStories(ctx, first[1:]))

	stories, err := s.LoadStories(ctx)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "story-b", stories[0].ID)
	assert.Equal(t, []string{}, stories[0].LikedBy, "nil slices are persisted as empty arrays")
}

func TestFileStore_Save_IsPrettyPrinted(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	_, err := s.LoadUsers(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path(UsersDocument))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"id\": \"user-1\""),
		"users.json should be indented with two spaces, got:\n%s", string(data)[:60])

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded[0], "coverImage")
	assert.Contains(t, decoded[0], "isAdmin")
}

func TestFileStore_Save_LeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	require.NoError(t, s.SaveUsers(ctx, SeedUsers("")))
	require.NoError(t, s.SaveUsers(ctx, SeedUsers("")))

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileStore_Load_CorruptDocument(t *testing.T) {
	s := newTestFileStore(t)
	require.NoError(t, os.WriteFile(s.Path(UsersDocument), []byte("{not json"), 0o644))

	_, err := s.LoadUsers(context.Background())
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestFileStore_Load_CancelledContext(t *testing.T) {
	s := newTestFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.LoadStories(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
