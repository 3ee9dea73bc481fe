package store

import "kathaipom/internal/model"

// SeedUsers returns the three accounts a fresh users document starts with.
// All of them share passwordHash; pass an empty hash to create accounts that cannot log in.
func SeedUsers(passwordHash string) []model.User {
	return []model.User{
		{
			ID:           "user-1",
			Name:         "NAVEEN.G",
			Username:     "nafadmin",
			PasswordHash: passwordHash,
			Avatar:       placeholder("avatar-1"),
			Bio:          "The FOUNDER & CEO of the Kathaipom platform and NAFON studios. Ensuring stories are shared and heard.",
			CoverImage:   placeholder("cover-1"),
			Followers:    []string{},
			Following:    []string{},
			IsAdmin:      true,
		},
		{
			ID:           "user-2",
			Name:         "Jane Doe",
			Username:     "janedoe",
			PasswordHash: passwordHash,
			Avatar:       placeholder("avatar-2"),
			Bio:          "Lover of fiction, coffee, and rainy days. Exploring the world one story at a time.",
			CoverImage:   placeholder("cover-2"),
			Followers:    []string{},
			Following:    []string{},
		},
		{
			ID:           "user-3",
			Name:         "John Smith",
			Username:     "johnsmith",
			PasswordHash: passwordHash,
			Avatar:       placeholder("avatar-3"),
			Bio:          "Documenting my adventures in technology, travel, and gastronomy. Based in NYC.",
			CoverImage:   placeholder("cover-3"),
			Followers:    []string{},
			Following:    []string{},
		},
	}
}

var placeholderImages = []model.Image{
	{ID: "avatar-1", Description: "Portrait of the platform founder", ImageURL: "https://picsum.photos/seed/avatar1/200/200", ImageHint: "man portrait"},
	{ID: "avatar-2", Description: "Portrait of a woman smiling", ImageURL: "https://picsum.photos/seed/avatar2/200/200", ImageHint: "woman portrait"},
	{ID: "avatar-3", Description: "Portrait of a man outdoors", ImageURL: "https://picsum.photos/seed/avatar3/200/200", ImageHint: "man outdoors"},
	{ID: "avatar-default", Description: "Default avatar", ImageURL: "https://picsum.photos/seed/avatar0/200/200", ImageHint: "abstract avatar"},
	{ID: "cover-1", Description: "Library shelves", ImageURL: "https://picsum.photos/seed/cover1/1200/400", ImageHint: "library books"},
	{ID: "cover-2", Description: "Rain on a window", ImageURL: "https://picsum.photos/seed/cover2/1200/400", ImageHint: "rainy window"},
	{ID: "cover-3", Description: "City skyline at night", ImageURL: "https://picsum.photos/seed/cover3/1200/400", ImageHint: "city skyline"},
	{ID: "cover-default", Description: "Default cover", ImageURL: "https://picsum.photos/seed/cover0/1200/400", ImageHint: "abstract landscape"},
}

func placeholder(id string) model.Image {
	for _, img := range placeholderImages {
		if img.ID == id {
			return img
		}
	}
	return model.Image{ID: id}
}

// DefaultAvatar is assigned to newly registered users.
func DefaultAvatar() model.Image {
	return placeholder("avatar-default")
}

// DefaultCoverImage is assigned to newly registered users.
func DefaultCoverImage() model.Image {
	return placeholder("cover-default")
}
