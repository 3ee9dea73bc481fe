package service

import (
	"sort"

	"kathaipom/internal/model"
)

// joinStories attaches the live author to every story and refreshes comment author names.
// Stories whose author no longer resolves get the Unknown Author placeholder instead of
// being dropped. The result is sorted newest first.
func joinStories(stories []model.Story, users []model.User) []model.EnrichedStory {
	byID := usersByID(users)
	out := make([]model.EnrichedStory, 0, len(stories))
	for _, s := range stories {
		out = append(out, joinStory(s, byID))
	}
	sortChronological(out)
	return out
}

func joinStory(s model.Story, byID map[string]*model.User) model.EnrichedStory {
	e := model.EnrichedStory{Story: s}

	if author, ok := byID[s.AuthorID]; ok {
		e.Author = author.Sanitize()
		e.AuthorName = author.Name
		e.AuthorUsername = author.Username
	} else {
		e.Author = model.UnknownAuthor(s.AuthorID)
		e.AuthorName = model.UnknownAuthorName
	}

	if e.LikedBy == nil {
		e.LikedBy = []string{}
	}
	comments := make([]model.Comment, len(s.Comments))
	for i, c := range s.Comments {
		if commenter, ok := byID[c.AuthorID]; ok {
			c.AuthorName = commenter.Name
		} else {
			c.AuthorName = model.UnknownCommenter
		}
		comments[i] = c
	}
	e.Comments = comments
	return e
}

// sortChronological orders by timestamp, newest first. Equal timestamps keep storage order.
func sortChronological(stories []model.EnrichedStory) {
	sort.SliceStable(stories, func(i, j int) bool {
		return stories[i].Timestamp.After(stories[j].Timestamp)
	})
}

func usersByID(users []model.User) map[string]*model.User {
	byID := make(map[string]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return byID
}

// resolveUsers maps ids to sanitized users, skipping ids that no longer resolve.
func resolveUsers(ids []string, users []model.User) []model.User {
	byID := usersByID(users)
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u.Sanitize())
		}
	}
	return out
}

// touchedAuthors returns the author ids of stories the user commented on or liked.
func touchedAuthors(stories []model.Story, userID string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range stories {
		if s.AuthorID == userID || seen[s.AuthorID] {
			continue
		}
		touched := s.IsLikedBy(userID)
		for _, c := range s.Comments {
			if c.AuthorID == userID {
				touched = true
				break
			}
		}
		if touched {
			seen[s.AuthorID] = true
			out = append(out, s.AuthorID)
		}
	}
	return out
}

// usernamesOf maps user ids to current usernames, skipping dangling ids.
func usernamesOf(ids []string, users []model.User) []string {
	byID := usersByID(users)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u.Username)
		}
	}
	return out
}
