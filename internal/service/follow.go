package service

import (
	"context"

	"go.uber.org/zap"

	"kathaipom/internal/logger"
	"kathaipom/internal/metrics"
	"kathaipom/internal/model"
	"kathaipom/internal/queue"
	"kathaipom/internal/repository"
)

// FollowService keeps the follow graph symmetric: B in A.following exactly when A in B.followers.
// Both sides are written in one save of the users collection.
type FollowService struct {
	users    repository.UserRepository
	activity *Activity
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewFollowService(users repository.UserRepository, activity *Activity, m *metrics.Metrics, log *zap.Logger) *FollowService {
	if activity == nil {
		activity = NewActivity(nil, nil, nil, log)
	}
	return &FollowService{
		users:    users,
		activity: activity,
		metrics:  m,
		log:      logger.OrNop(log).Named("follows"),
	}
}

// Follow makes followerID follow followeeID. Following twice is a no-op.
// A half-written edge (present on one side only) is completed.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return model.ErrCannotFollowSelf
	}

	var followerName, followeeName string
	changed := false
	err := s.users.Mutate(ctx, func(users []model.User) ([]model.User, error) {
		fi := repository.FindUser(users, followerID)
		ti := repository.FindUser(users, followeeID)
		if fi < 0 || ti < 0 {
			return nil, model.ErrUserNotFound
		}
		follower, followee := &users[fi], &users[ti]
		followerName, followeeName = follower.Username, followee.Username

		if !follower.IsFollowing(followeeID) {
			follower.Following = append(follower.Following, followeeID)
			changed = true
		}
		if !followee.HasFollower(followerID) {
			followee.Followers = append(followee.Followers, followerID)
			changed = true
		}
		if !changed {
			return nil, repository.ErrNoChange
		}
		return users, nil
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.metrics.Followed(true)
	s.activity.Emit(ctx, queue.NewUserEvent(queue.EventUserFollowed, followerID, followeeID, Routes(followerName, followeeName)))
	return nil
}

// Unfollow removes both sides of the edge. Missing entries, and a followee that no longer
// exists, are tolerated.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	var followerName, followeeName string
	changed := false
	err := s.users.Mutate(ctx, func(users []model.User) ([]model.User, error) {
		fi := repository.FindUser(users, followerID)
		if fi < 0 {
			return nil, model.ErrUserNotFound
		}
		follower := &users[fi]
		followerName = follower.Username

		if follower.IsFollowing(followeeID) {
			follower.Following = removeID(follower.Following, followeeID)
			changed = true
		}
		if ti := repository.FindUser(users, followeeID); ti >= 0 {
			followee := &users[ti]
			followeeName = followee.Username
			if followee.HasFollower(followerID) {
				followee.Followers = removeID(followee.Followers, followerID)
				changed = true
			}
		}
		if !changed {
			return nil, repository.ErrNoChange
		}
		return users, nil
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.metrics.Followed(false)
	s.activity.Emit(ctx, queue.NewUserEvent(queue.EventUserUnfollowed, followerID, followeeID, Routes(followerName, followeeName)))
	return nil
}

// Followers lists the users following username.
func (s *FollowService) Followers(ctx context.Context, username string) (*model.FollowListResponse, error) {
	return s.list(ctx, username, func(u *model.User) []string { return u.Followers })
}

// Following lists the users username follows.
func (s *FollowService) Following(ctx context.Context, username string) (*model.FollowListResponse, error) {
	return s.list(ctx, username, func(u *model.User) []string { return u.Following })
}

func (s *FollowService) list(ctx context.Context, username string, side func(*model.User) []string) (*model.FollowListResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	i := repository.FindUsername(users, username)
	if i < 0 {
		return nil, model.ErrUserNotFound
	}
	return &model.FollowListResponse{Users: resolveUsers(side(&users[i]), users)}, nil
}
