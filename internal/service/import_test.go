package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kathaipom/internal/importer"
	"kathaipom/internal/model"
	"kathaipom/internal/queue"
)

// =============================================================================
// MOCK SOURCE
// =============================================================================

type mockSource struct {
	files []importer.File
	err   error

	owner, repo string
}

func (m *mockSource) MarkdownFiles(_ context.Context, owner, repo string) ([]importer.File, error) {
	m.owner, m.repo = owner, repo
	return m.files, m.err
}

func TestImportService_Import(t *testing.T) {
	// ARRANGE
	env := newTestEnv(t)
	ctx := context.Background()
	existing, err := env.storySvc.AddStory(ctx, "user-2", model.CreateStoryRequest{Pages: []string{"existing"}})
	require.NoError(t, err)

	source := &mockSource{files: []importer.File{
		{Path: "one.md", Content: "# One"},
		{Path: "blank.md", Content: "  \n"},
		{Path: "two.md", Content: "# Two"},
	}}
	svc := NewImportService(source, env.users, env.stories, env.activity, nil, nil)

	// ACT
	result, err := svc.Import(ctx, "user-1", "https://github.com/naveen/stories.git")

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, 2, result.ImportedCount)
	assert.Equal(t, "naveen", source.owner)
	assert.Equal(t, "stories", source.repo)

	stories := env.allStories(t)
	require.Len(t, stories, 3)
	assert.Equal(t, []string{"# Two"}, stories[0].Content, "last listed file ends up first")
	assert.Equal(t, []string{"# One"}, stories[1].Content)
	assert.Equal(t, existing.ID, stories[2].ID)
	for _, st := range stories[:2] {
		assert.Equal(t, "user-1", st.AuthorID)
		assert.Equal(t, "nafadmin", st.AuthorUsername)
		assert.Equal(t, 0, st.Likes)
	}

	assert.Contains(t, env.publisher.types(), queue.EventStoriesImported)
	last := env.publisher.events[len(env.publisher.events)-1]
	assert.Equal(t, 2, last.Count)
}

func TestImportService_Import_NoMarkdown(t *testing.T) {
	env := newTestEnv(t)
	svc := NewImportService(&mockSource{}, env.users, env.stories, env.activity, nil, nil)

	result, err := svc.Import(context.Background(), "user-1", "https://github.com/naveen/empty")

	require.NoError(t, err)
	assert.Equal(t, 0, result.ImportedCount)
	assert.Empty(t, env.allStories(t))
	assert.Empty(t, env.publisher.events)
}

func TestImportService_Import_Errors(t *testing.T) {
	fetchErr := errors.New("rate limited")
	tests := []struct {
		name    string
		actor   string
		url     string
		source  *mockSource
		wantErr error
	}{
		{"not an admin", "user-2", "https://github.com/a/b", &mockSource{}, model.ErrForbidden},
		{"anonymous", "", "https://github.com/a/b", &mockSource{}, model.ErrForbidden},
		{"bad url", "user-1", "https://example.com/a/b", &mockSource{}, model.ErrInvalidRepoURL},
		{"source failure", "user-1", "https://github.com/a/b", &mockSource{err: fetchErr}, fetchErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			svc := NewImportService(tt.source, env.users, env.stories, env.activity, nil, nil)

			_, err := svc.Import(context.Background(), tt.actor, tt.url)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, env.allStories(t))
		})
	}
}
