package model

import (
	"errors"
	"time"
)

// Interaction types fed to the ranker as user history.
const (
	InteractionLike    = "like"
	InteractionComment = "comment"
	InteractionFollow  = "follow"
)

// Interaction is one entry of a user's activity history. TargetID is a story id for likes
// and comments, and a user id for follows.
type Interaction struct {
	TargetID  string    `json:"postId"`
	Type      string    `json:"interactionType"`
	Timestamp time.Time `json:"timestamp"`
}

// FollowListResponse lists the users on one side of a follow relation.
type FollowListResponse struct {
	Users []User `json:"users"`
}

var (
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
