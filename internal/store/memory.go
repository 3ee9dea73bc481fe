package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"kathaipom/internal/model"
)

// MemoryStore keeps both documents as encoded JSON in process memory. Encoding on save and
// decoding on load gives callers the same copy semantics as the file store: mutating a
// loaded slice never changes what is stored until it is saved.
type MemoryStore struct {
	mu        sync.Mutex
	seedUsers []model.User
	docs      map[string][]byte
}

func NewMemoryStore(seedUsers []model.User) *MemoryStore {
	return &MemoryStore{
		seedUsers: seedUsers,
		docs:      make(map[string][]byte),
	}
}

func (s *MemoryStore) LoadUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.load(ctx, UsersDocument, &users, s.seedUsers); err != nil {
		return nil, err
	}
	return normalizeUsers(users), nil
}

func (s *MemoryStore) SaveUsers(ctx context.Context, users []model.User) error {
	return s.save(ctx, UsersDocument, normalizeUsers(users))
}

func (s *MemoryStore) LoadStories(ctx context.Context) ([]model.Story, error) {
	var stories []model.Story
	if err := s.load(ctx, StoriesDocument, &stories, []model.Story{}); err != nil {
		return nil, err
	}
	return normalizeStories(stories), nil
}

func (s *MemoryStore) SaveStories(ctx context.Context, stories []model.Story) error {
	return s.save(ctx, StoriesDocument, normalizeStories(stories))
}

func (s *MemoryStore) load(ctx context.Context, document string, dst any, seed any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.docs[document]
	if !ok {
		encoded, err := json.Marshal(seed)
		if err != nil {
			return fmt.Errorf("encode seed %s: %w", document, err)
		}
		s.docs[document] = encoded
		data = encoded
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptDocument, document, err)
	}
	return nil
}

func (s *MemoryStore) save(ctx context.Context, document string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", document, err)
	}

	s.mu.Lock()
	s.docs[document] = data
	s.mu.Unlock()
	return nil
}
