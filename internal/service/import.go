package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kathaipom/internal/importer"
	"kathaipom/internal/logger"
	"kathaipom/internal/metrics"
	"kathaipom/internal/model"
	"kathaipom/internal/queue"
	"kathaipom/internal/repository"
)

// ImportService turns the markdown files at the root of a GitHub repository into stories.
type ImportService struct {
	source   importer.Source
	users    repository.UserRepository
	stories  repository.StoryRepository
	activity *Activity
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewImportService(
	source importer.Source,
	users repository.UserRepository,
	stories repository.StoryRepository,
	activity *Activity,
	m *metrics.Metrics,
	log *zap.Logger,
) *ImportService {
	if activity == nil {
		activity = NewActivity(nil, nil, nil, log)
	}
	return &ImportService{
		source:   source,
		users:    users,
		stories:  stories,
		activity: activity,
		metrics:  m,
		log:      logger.OrNop(log).Named("import"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Import creates one single-page story per markdown file, authored by the acting admin.
// Each story is put in front of the existing ones in listing order, so the last file listed
// ends up first. Blank files are skipped. A repository with no markdown yields zero stories.
func (s *ImportService) Import(ctx context.Context, actorID, repoURL string) (*model.ImportResult, error) {
	author, err := s.requireAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}

	owner, repo, err := importer.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	files, err := s.source.MarkdownFiles(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("import %s/%s: %w", owner, repo, err)
	}

	var imported []model.Story
	for _, f := range files {
		if strings.TrimSpace(f.Content) == "" {
			s.log.Debug("skipping blank file", zap.String("path", f.Path))
			continue
		}
		imported = append(imported, model.Story{
			ID:             model.StoryIDPrefix + uuid.NewString(),
			AuthorID:       author.ID,
			AuthorName:     author.Name,
			AuthorUsername: author.Username,
			Content:        []string{f.Content},
			Images:         []string{},
			LikedBy:        []string{},
			Comments:       []model.Comment{},
			Timestamp:      s.now(),
		})
	}

	if len(imported) == 0 {
		s.log.Info("nothing to import", zap.String("repo", owner+"/"+repo))
		return &model.ImportResult{ImportedCount: 0}, nil
	}

	err = s.stories.Mutate(ctx, func(stories []model.Story) ([]model.Story, error) {
		out := make([]model.Story, 0, len(stories)+len(imported))
		for i := len(imported) - 1; i >= 0; i-- {
			out = append(out, imported[i])
		}
		return append(out, stories...), nil
	})
	if err != nil {
		return nil, fmt.Errorf("save imported stories: %w", err)
	}

	s.metrics.StoryCreated("import", len(imported))
	s.activity.Emit(ctx, queue.NewStoriesImportedEvent(author.ID, len(imported), Routes(author.Username)))
	s.log.Info("repository imported",
		zap.String("repo", owner+"/"+repo),
		zap.Int("stories", len(imported)),
		zap.Duration("duration", time.Since(startTime)))
	return &model.ImportResult{ImportedCount: len(imported)}, nil
}

func (s *ImportService) requireAdmin(ctx context.Context, actorID string) (*model.User, error) {
	if actorID == "" {
		return nil, model.ErrForbidden
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, model.ErrForbidden
	}
	if !actor.IsAdmin {
		return nil, model.ErrForbidden
	}
	return actor, nil
}
