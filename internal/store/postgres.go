package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"kathaipom/internal/model"
)

// PostgresStore keeps each collection as one JSONB row of the documents table. It keeps the
// whole-collection contract of the file store: a save replaces the entire body.
type PostgresStore struct {
	db        *sqlx.DB
	seedUsers []model.User
}

const createDocumentsTable = `
	CREATE TABLE IF NOT EXISTS documents (
		name       TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// NewPostgresStore ensures the documents table exists.
func NewPostgresStore(ctx context.Context, db *sqlx.DB, seedUsers []model.User) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, createDocumentsTable); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return &PostgresStore{db: db, seedUsers: seedUsers}, nil
}

func (s *PostgresStore) LoadUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.load(ctx, UsersDocument, &users, s.seedUsers); err != nil {
		return nil, err
	}
	return normalizeUsers(users), nil
}

func (s *PostgresStore) SaveUsers(ctx context.Context, users []model.User) error {
	return s.save(ctx, UsersDocument, normalizeUsers(users))
}

func (s *PostgresStore) LoadStories(ctx context.Context) ([]model.Story, error) {
	var stories []model.Story
	if err := s.load(ctx, StoriesDocument, &stories, []model.Story{}); err != nil {
		return nil, err
	}
	return normalizeStories(stories), nil
}

func (s *PostgresStore) SaveStories(ctx context.Context, stories []model.Story) error {
	return s.save(ctx, StoriesDocument, normalizeStories(stories))
}

func (s *PostgresStore) load(ctx context.Context, document string, dst any, seed any) error {
	query := `SELECT body FROM documents WHERE name = $1`

	var body []byte
	err := s.db.GetContext(ctx, &body, query, document)
	if errors.Is(err, sql.ErrNoRows) {
		if err := s.insertSeed(ctx, document, seed); err != nil {
			return err
		}
		err = s.db.GetContext(ctx, &body, query, document)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", document, err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptDocument, document, err)
	}
	return nil
}

// insertSeed writes the seed unless another process created the row first.
func (s *PostgresStore) insertSeed(ctx context.Context, document string, seed any) error {
	data, err := json.Marshal(seed)
	if err != nil {
		return fmt.Errorf("encode seed %s: %w", document, err)
	}

	query := `
		INSERT INTO documents (name, body, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, document, string(data)); err != nil {
		return fmt.Errorf("failed to seed %s: %w", document, err)
	}
	return nil
}

func (s *PostgresStore) save(ctx context.Context, document string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", document, err)
	}

	query := `
		INSERT INTO documents (name, body, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, document, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", document, err)
	}
	return nil
}
