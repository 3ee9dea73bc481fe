package model

import (
	"errors"
	"strings"
)

// Image is a reference to a hosted or inline image with its display metadata.
type Image struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	ImageHint   string `json:"imageHint"`
}

// User represents a user in the system, exactly as it is persisted in the users collection.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"passwordHash,omitempty"` // cleared by Sanitize before leaving the API
	Avatar       Image    `json:"avatar"`
	Bio          string   `json:"bio"`
	CoverImage   Image    `json:"coverImage"`
	Followers    []string `json:"followers"`
	Following    []string `json:"following"`
	IsAdmin      bool     `json:"isAdmin"`
}

// Sanitize returns a copy of the user that is safe to send to clients.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	return u
}

// HasUsername reports whether the username matches, ignoring case.
func (u User) HasUsername(username string) bool {
	return strings.EqualFold(u.Username, strings.TrimSpace(username))
}

// IsFollowing reports whether u follows the given user id.
func (u User) IsFollowing(userID string) bool {
	return containsID(u.Following, userID)
}

// HasFollower reports whether the given user id follows u.
func (u User) HasFollower(userID string) bool {
	return containsID(u.Followers, userID)
}

// UserWithPostCount is the admin listing row.
type UserWithPostCount struct {
	User
	PostCount int `json:"postCount"`
}

// ProfileResponse is returned by the profile endpoint.
type ProfileResponse struct {
	User        User `json:"user"`
	PostsCount  int  `json:"postsCount"`
	IsFollowing bool `json:"isFollowing"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"-"` // only settable by an admin through the writer endpoint
}

// LoginRequest represents the data needed to log in.
// AsWriter asks for the writer (admin) console and is refused for regular users.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	AsWriter bool   `json:"isAdmin"`
}

// UpdateProfileRequest carries the editable profile fields. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name          *string `json:"name"`
	Username      *string `json:"username"`
	Bio           *string `json:"bio"`
	AvatarURL     *string `json:"avatarUrl"`
	CoverImageURL *string `json:"coverImageUrl"`
}

// Profile constraints
const (
	MaxNameLength     = 50
	MaxUsernameLength = 30
	MinUsernameLength = 2
	MaxBioLength      = 160
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotWriter is returned when a non-admin asks for a writer session
	ErrNotWriter = errors.New("this account does not have writer privileges")

	// ErrInvalidUsername is returned when a username is empty or out of bounds
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidProfile is returned when a profile field fails validation
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrForbidden is returned when the acting user lacks the required role
	ErrForbidden = errors.New("forbidden")

	// ErrCannotDeleteSelf is returned when an admin tries to delete their own account
	ErrCannotDeleteSelf = errors.New("you cannot delete your own account")

	// ErrProtectedUser is returned when deleting the super-admin account
	ErrProtectedUser = errors.New("this account cannot be deleted")
)

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
