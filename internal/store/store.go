// Package store persists the users and stories collections as whole documents.
//
// Every save replaces the entire collection. Callers load the full collection, mutate it in
// memory and save it back; the store itself offers no partial writes.
package store

import (
	"context"
	"errors"

	"kathaipom/internal/model"
)

// Store is the whole-collection persistence contract.
// Load on a missing document seeds it (SeedUsers for users, an empty list for stories),
// persists the seed and returns it.
type Store interface {
	LoadUsers(ctx context.Context) ([]model.User, error)
	SaveUsers(ctx context.Context, users []model.User) error
	LoadStories(ctx context.Context) ([]model.Story, error)
	SaveStories(ctx context.Context, stories []model.Story) error
}

// Document names, used as file base names and as PostgreSQL row keys.
const (
	UsersDocument   = "users"
	StoriesDocument = "posts"
)

// ErrCorruptDocument is returned when a persisted document cannot be decoded.
var ErrCorruptDocument = errors.New("corrupt store document")

// normalizeUsers replaces nil slices so the persisted JSON always carries arrays.
func normalizeUsers(users []model.User) []model.User {
	if users == nil {
		return []model.User{}
	}
	for i := range users {
		if users[i].Followers == nil {
			users[i].Followers = []string{}
		}
		if users[i].Following == nil {
			users[i].Following = []string{}
		}
	}
	return users
}

func normalizeStories(stories []model.Story) []model.Story {
	if stories == nil {
		return []model.Story{}
	}
	for i := range stories {
		if stories[i].Content == nil {
			stories[i].Content = []string{}
		}
		if stories[i].LikedBy == nil {
			stories[i].LikedBy = []string{}
		}
		if stories[i].Comments == nil {
			stories[i].Comments = []model.Comment{}
		}
	}
	return stories
}
