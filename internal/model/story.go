package model

import (
	"errors"
	"strings"
	"time"
)

// Story is a multi-page post as persisted in the stories collection.
// AuthorName and AuthorUsername are a snapshot taken at write time; readers get the live
// author through EnrichedStory.
type Story struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"authorId"`
	AuthorName     string    `json:"authorName"`
	AuthorUsername string    `json:"authorUsername"`
	Content        []string  `json:"content"`
	Images         []string  `json:"images,omitempty"`
	Likes          int       `json:"likes"`
	LikedBy        []string  `json:"likedBy"`
	Comments       []Comment `json:"comments"`
	Timestamp      time.Time `json:"timestamp"`
}

// IsLikedBy reports whether the user id is in likedBy.
func (s Story) IsLikedBy(userID string) bool {
	return containsID(s.LikedBy, userID)
}

// Text joins the pages for consumers that want a single body (ranking input).
func (s Story) Text() string {
	return strings.Join(s.Content, "\n\n")
}

// EnrichedStory is a story joined with its live author, optionally annotated by the ranker.
type EnrichedStory struct {
	Story
	Author        User     `json:"author"`
	PriorityScore *float64 `json:"priorityScore,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// CreateStoryRequest is the request body for creating a story.
type CreateStoryRequest struct {
	Pages  []string `json:"content"`
	Images []string `json:"images"`
}

// FeedResponse is returned by the feed endpoint.
type FeedResponse struct {
	Stories     []EnrichedStory `json:"stories"`
	Prioritized bool            `json:"prioritized"`
}

// ImportRequest asks for a GitHub repository import.
type ImportRequest struct {
	RepoURL string `json:"repoUrl"`
}

// ImportResult reports how many stories a repository import created.
type ImportResult struct {
	ImportedCount int `json:"importedCount"`
}

// UnknownAuthorName is shown for stories whose author no longer resolves.
const UnknownAuthorName = "Unknown Author"

// UnknownAuthor returns the placeholder author for a dangling authorId.
func UnknownAuthor(authorID string) User {
	return User{
		ID:        authorID,
		Name:      UnknownAuthorName,
		Username:  "unknown",
		Followers: []string{},
		Following: []string{},
	}
}

// Story constraints
const (
	MaxStoryPages    = 50
	MaxStoryImages   = 10
	MaxPageLength    = 20000
	MaxImportedFiles = 100
	StoryIDPrefix    = "story-"
	CommentIDPrefix  = "comment-"
	UserIDPrefix     = "user-"
	UnknownCommenter = "Unknown"
)

// Story errors
var (
	ErrStoryNotFound  = errors.New("story not found")
	ErrNotStoryOwner  = errors.New("not the author of this story")
	ErrEmptyStory     = errors.New("story must have at least one non-empty page")
	ErrTooManyPages   = errors.New("too many pages")
	ErrPageTooLong    = errors.New("page too long")
	ErrTooManyImages  = errors.New("too many images")
	ErrInvalidRepoURL = errors.New("invalid GitHub repository URL")
)

// HasContent reports whether at least one page is non-blank.
func HasContent(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}
