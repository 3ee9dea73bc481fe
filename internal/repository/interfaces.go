package repository

import (
	"context"
	"errors"

	"kathaipom/internal/model"
)

// UserMutation edits a freshly loaded users collection and returns the collection to save.
type UserMutation func(users []model.User) ([]model.User, error)

// StoryMutation edits a freshly loaded stories collection and returns the collection to save.
type StoryMutation func(stories []model.Story) ([]model.Story, error)

// ErrNoChange may be returned by a mutation to skip the save. Mutate then returns nil.
var ErrNoChange = errors.New("no change")

type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Mutate runs load → fn → save under the collection lock. An error from fn abandons the
	// in-memory changes.
	Mutate(ctx context.Context, fn UserMutation) error
}

type StoryRepository interface {
	List(ctx context.Context) ([]model.Story, error)
	GetByID(ctx context.Context, id string) (*model.Story, error)
	Mutate(ctx context.Context, fn StoryMutation) error
}
