package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"kathaipom/internal/model"
	"kathaipom/internal/store"
)

// userRepository implements UserRepository with linear scans over the whole users document.
type userRepository struct {
	store store.Store
	mu    sync.Mutex
}

// NewUserRepository creates a new user repository
func NewUserRepository(s store.Store) UserRepository {
	return &userRepository{store: s}
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	users, err := r.store.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	i := FindUser(users, id)
	if i < 0 {
		return nil, model.ErrUserNotFound
	}
	return &users[i], nil
}

// GetByUsername retrieves a user by their username, ignoring case
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	i := FindUsername(users, username)
	if i < 0 {
		return nil, model.ErrUserNotFound
	}
	return &users[i], nil
}

// ExistsByUsername checks if a username is already taken
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	users, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	return FindUsername(users, username) >= 0, nil
}

func (r *userRepository) Mutate(ctx context.Context, fn UserMutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.store.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	updated, err := fn(users)
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.store.SaveUsers(ctx, updated); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	return nil
}

// FindUser returns the index of the first user with the id, or -1.
func FindUser(users []model.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

// FindUsername returns the index of the first user whose username matches ignoring case, or -1.
func FindUsername(users []model.User, username string) int {
	username = strings.TrimSpace(username)
	if username == "" {
		return -1
	}
	for i := range users {
		if users[i].HasUsername(username) {
			return i
		}
	}
	return -1
}
