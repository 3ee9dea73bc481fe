package importer

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kathaipom/internal/model"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{name: "plain", raw: "https://github.com/naveen/stories", wantOwner: "naveen", wantRepo: "stories"},
		{name: "git suffix", raw: "https://github.com/naveen/stories.git", wantOwner: "naveen", wantRepo: "stories"},
		{name: "deep link", raw: "https://www.github.com/naveen/stories/tree/main", wantOwner: "naveen", wantRepo: "stories"},
		{name: "whitespace", raw: "  https://github.com/a/b  ", wantOwner: "a", wantRepo: "b"},
		{name: "missing repo", raw: "https://github.com/naveen", wantErr: true},
		{name: "other host", raw: "https://gitlab.com/naveen/stories", wantErr: true},
		{name: "no scheme", raw: "github.com/naveen/stories", wantErr: true},
		{name: "garbage", raw: "::::", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrInvalidRepoURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

// newTestSource serves a fake contents API for owner "o" and repo "r".
func newTestSource(t *testing.T, files map[string]string) *GitHubSource {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/contents/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"type":"file","name":"a.md","path":"a.md"},
			{"type":"dir","name":"docs","path":"docs"},
			{"type":"file","name":"main.go","path":"main.go"},
			{"type":"file","name":"B.MD","path":"B.MD"}
		]`)
	})
	for path, body := range files {
		encoded := base64.StdEncoding.EncodeToString([]byte(body))
		mux.HandleFunc("/repos/o/r/contents/"+path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"type":"file","name":%q,"path":%q,"encoding":"base64","content":%q}`, path, path, encoded)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return NewGitHubSourceWithClient(client, nil)
}

func TestMarkdownFiles_RootMarkdownOnly(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"a.md": "# First",
		"B.MD": "# Second",
	})

	files, err := src.MarkdownFiles(context.Background(), "o", "r")

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, File{Path: "a.md", Content: "# First"}, files[0])
	assert.Equal(t, File{Path: "B.MD", Content: "# Second"}, files[1])
}

func TestMarkdownFiles_FetchFailure(t *testing.T) {
	src := newTestSource(t, map[string]string{"a.md": "# First"})

	_, err := src.MarkdownFiles(context.Background(), "o", "r")

	assert.Error(t, err, "B.MD is listed but not served")
}
