package ranking

import (
	"context"
	"errors"

	"kathaipom/internal/model"
)

var (
	ErrNoRankings       = errors.New("ranking response matched no stories")
	ErrMalformedRanking = errors.New("ranking response is not valid JSON")
)

// Story is the compact view of a story the ranker sees.
type Story struct {
	StoryID  string `json:"storyId"`
	Content  string `json:"content"`
	AuthorID string `json:"authorId"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
}

// Input is everything the ranker may use to order a feed.
type Input struct {
	Stories   []Story             `json:"stories"`
	Interests []string            `json:"userInterests"`
	History   []model.Interaction `json:"userInteractionHistory"`
}

// Ranking is one scored story. Higher scores rank first.
type Ranking struct {
	StoryID       string  `json:"storyId"`
	PriorityScore float64 `json:"priorityScore"`
	Reason        string  `json:"reason"`
}

// Ranker scores feed stories for one reader.
// Implementations return only rankings whose ids appear in the input.
type Ranker interface {
	Rank(ctx context.Context, in Input) ([]Ranking, error)
}

// FromStories builds ranker input from joined feed stories.
func FromStories(stories []model.EnrichedStory, interests []string, history []model.Interaction) Input {
	in := Input{
		Stories:   make([]Story, 0, len(stories)),
		Interests: interests,
		History:   history,
	}
	if in.Interests == nil {
		in.Interests = []string{}
	}
	if in.History == nil {
		in.History = []model.Interaction{}
	}
	for _, s := range stories {
		in.Stories = append(in.Stories, Story{
			StoryID:  s.ID,
			Content:  truncate(s.Text(), maxContentRunes),
			AuthorID: s.AuthorID,
			Likes:    s.Likes,
			Comments: len(s.Comments),
		})
	}
	return in
}

const maxContentRunes = 1000

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
