package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"kathaipom/internal/model"
	"kathaipom/internal/store"
)

type storyRepository struct {
	store store.Store
	mu    sync.Mutex
}

func NewStoryRepository(s store.Store) StoryRepository {
	return &storyRepository{store: s}
}

// List returns stories in storage order (most recent first, as writers prepend).
func (r *storyRepository) List(ctx context.Context) ([]model.Story, error) {
	stories, err := r.store.LoadStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stories: %w", err)
	}
	return stories, nil
}

func (r *storyRepository) GetByID(ctx context.Context, id string) (*model.Story, error) {
	stories, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	i := FindStory(stories, id)
	if i < 0 {
		return nil, model.ErrStoryNotFound
	}
	return &stories[i], nil
}

func (r *storyRepository) Mutate(ctx context.Context, fn StoryMutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stories, err := r.store.LoadStories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stories: %w", err)
	}

	updated, err := fn(stories)
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.store.SaveStories(ctx, updated); err != nil {
		return fmt.Errorf("failed to save stories: %w", err)
	}
	return nil
}

// FindStory returns the index of the story with the id, or -1.
func FindStory(stories []model.Story, id string) int {
	for i := range stories {
		if stories[i].ID == id {
			return i
		}
	}
	return -1
}
