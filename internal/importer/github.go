package importer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kathaipom/internal/logger"
	"kathaipom/internal/model"
)

// fetchConcurrency bounds parallel file downloads per import.
const fetchConcurrency = 4

// File is one markdown document pulled from a repository.
type File struct {
	Path    string
	Content string
}

// Source lists the root-level markdown files of a repository.
type Source interface {
	MarkdownFiles(ctx context.Context, owner, repo string) ([]File, error)
}

// ParseRepoURL extracts owner and repository from a GitHub URL such as
// https://github.com/owner/repo or https://github.com/owner/repo.git.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", model.ErrInvalidRepoURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("%w: scheme must be http or https", model.ErrInvalidRepoURL)
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return "", "", fmt.Errorf("%w: host %q is not github.com", model.ErrInvalidRepoURL, host)
	}

	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(parts) < 2 {
		return "", "", fmt.Errorf("%w: missing owner or repository", model.ErrInvalidRepoURL)
	}
	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("%w: missing owner or repository", model.ErrInvalidRepoURL)
	}
	return owner, repo, nil
}

// GitHubSource reads repository contents through the GitHub REST API.
type GitHubSource struct {
	client *github.Client
	log    *zap.Logger
}

// NewGitHubSource creates a source. An empty token uses anonymous (rate-limited) access.
func NewGitHubSource(token string, log *zap.Logger) *GitHubSource {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return NewGitHubSourceWithClient(client, log)
}

func NewGitHubSourceWithClient(client *github.Client, log *zap.Logger) *GitHubSource {
	return &GitHubSource{client: client, log: logger.OrNop(log).Named("github")}
}

// MarkdownFiles returns the .md files at the repository root in listing order.
// Subdirectories are not traversed. At most model.MaxImportedFiles are fetched.
func (s *GitHubSource) MarkdownFiles(ctx context.Context, owner, repo string) ([]File, error) {
	_, dir, _, err := s.client.Repositories.GetContents(ctx, owner, repo, "", nil)
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", owner, repo, err)
	}
	if dir == nil {
		return nil, fmt.Errorf("list %s/%s: root is not a directory", owner, repo)
	}

	var paths []string
	for _, entry := range dir {
		if entry.GetType() != "file" || !strings.HasSuffix(strings.ToLower(entry.GetName()), ".md") {
			continue
		}
		paths = append(paths, entry.GetPath())
		if len(paths) == model.MaxImportedFiles {
			s.log.Warn("repository has too many markdown files, truncating",
				zap.String("repo", owner+"/"+repo), zap.Int("limit", model.MaxImportedFiles))
			break
		}
	}

	files := make([]File, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(fetchConcurrency)
	for i, path := range paths {
		eg.Go(func() error {
			content, err := s.fetch(egCtx, owner, repo, path)
			if err != nil {
				return err
			}
			files[i] = File{Path: path, Content: content}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	s.log.Info("fetched markdown files", zap.String("repo", owner+"/"+repo), zap.Int("count", len(files)))
	return files, nil
}

func (s *GitHubSource) fetch(ctx context.Context, owner, repo, path string) (string, error) {
	file, _, _, err := s.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", path, err)
	}
	if file == nil {
		return "", fmt.Errorf("get %s: not a file", path)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return content, nil
}
