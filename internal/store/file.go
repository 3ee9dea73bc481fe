package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"kathaipom/internal/logger"
	"kathaipom/internal/model"
)

// FileStore keeps each collection in a pretty-printed JSON file under dir
// (users.json and posts.json).
type FileStore struct {
	dir       string
	seedUsers []model.User
	log       *zap.Logger
}

// NewFileStore creates the data directory if needed. Files are created lazily on first load.
func NewFileStore(dir string, seedUsers []model.User, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{
		dir:       dir,
		seedUsers: seedUsers,
		log:       logger.OrNop(log).Named("filestore"),
	}, nil
}

// Path returns the file backing a document.
func (s *FileStore) Path(document string) string {
	return filepath.Join(s.dir, document+".json")
}

func (s *FileStore) LoadUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.load(ctx, UsersDocument, &users, s.seedUsers); err != nil {
		return nil, err
	}
	return normalizeUsers(users), nil
}

func (s *FileStore) SaveUsers(ctx context.Context, users []model.User) error {
	return s.save(ctx, UsersDocument, normalizeUsers(users))
}

func (s *FileStore) LoadStories(ctx context.Context) ([]model.Story, error) {
	var stories []model.Story
	if err := s.load(ctx, StoriesDocument, &stories, []model.Story{}); err != nil {
		return nil, err
	}
	return normalizeStories(stories), nil
}

func (s *FileStore) SaveStories(ctx context.Context, stories []model.Story) error {
	return s.save(ctx, StoriesDocument, normalizeStories(stories))
}

// load decodes the document into dst, writing seed first when the file does not exist.
func (s *FileStore) load(ctx context.Context, document string, dst any, seed any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(document)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("seeding missing document", zap.String("document", document), zap.String("path", path))
		if err := s.save(ctx, document, seed); err != nil {
			return err
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", document, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptDocument, document, err)
	}
	return nil
}

// save replaces the whole document. It writes a sibling temp file and renames it over the
// original so readers never observe a half-written file.
func (s *FileStore) save(ctx context.Context, document string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", document, err)
	}

	path := s.Path(document)
	tmp, err := os.CreateTemp(s.dir, document+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", document, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", document, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", document, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", document, err)
	}
	return nil
}
