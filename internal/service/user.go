package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"kathaipom/internal/logger"
	"kathaipom/internal/metrics"
	"kathaipom/internal/model"
	"kathaipom/internal/queue"
	"kathaipom/internal/repository"
	"kathaipom/internal/store"
)

// DefaultBio is given to accounts created without one.
const DefaultBio = "A new writer on Kathaipom."

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// UserService handles business logic for user operations
type UserService struct {
	users      repository.UserRepository
	stories    repository.StoryRepository
	activity   *Activity
	metrics    *metrics.Metrics
	superAdmin string
	now        func() time.Time
	lastUserN  atomic.Int64
	log        *zap.Logger
}

// NewUserService creates a user service. superAdmin names the account no one may delete.
func NewUserService(
	users repository.UserRepository,
	stories repository.StoryRepository,
	activity *Activity,
	m *metrics.Metrics,
	superAdmin string,
	log *zap.Logger,
) *UserService {
	if activity == nil {
		activity = NewActivity(nil, nil, nil, log)
	}
	return &UserService{
		users:      users,
		stories:    stories,
		activity:   activity,
		metrics:    m,
		superAdmin: superAdmin,
		now:        time.Now,
		log:        logger.OrNop(log).Named("users"),
	}
}

// Register creates a new account. Usernames are unique ignoring case.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	username := strings.TrimSpace(req.Username)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if name == "" {
		name = username
	}
	if utf8.RuneCountInString(name) > model.MaxNameLength {
		return nil, fmt.Errorf("%w: name must be at most %d characters", model.ErrInvalidProfile, model.MaxNameLength)
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, fmt.Errorf("%w: password is required", model.ErrInvalidProfile)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var created model.User
	err = s.users.Mutate(ctx, func(users []model.User) ([]model.User, error) {
		if repository.FindUsername(users, username) >= 0 {
			return nil, model.ErrUsernameExists
		}
		created = model.User{
			ID:           s.issueUserID(users),
			Name:         name,
			Username:     username,
			PasswordHash: string(hashedPassword),
			Avatar:       store.DefaultAvatar(),
			Bio:          DefaultBio,
			CoverImage:   store.DefaultCoverImage(),
			Followers:    []string{},
			Following:    []string{},
			IsAdmin:      req.IsAdmin,
		}
		return append(users, created), nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.UserCreated()
	s.log.Info("user created", zap.String("user", created.ID), zap.String("username", created.Username), zap.Bool("admin", created.IsAdmin))
	u := created.Sanitize()
	return &u, nil
}

// CreateByAdmin lets an admin create an account, optionally another admin (writer).
func (s *UserService) CreateByAdmin(ctx context.Context, actorID string, req *model.RegisterRequest, asAdmin bool) (*model.User, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	req.IsAdmin = asAdmin
	return s.Register(ctx, req)
}

// Login authenticates a user with username and password.
// A writer login (AsWriter) is refused for accounts without the admin flag.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Don't reveal whether username exists or not
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		return nil, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	if req.AsWriter && !user.IsAdmin {
		return nil, model.ErrNotWriter
	}

	u := user.Sanitize()
	return &u, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u := user.Sanitize()
	return &u, nil
}

// GetByUsername retrieves a user by username, ignoring case.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	u := user.Sanitize()
	return &u, nil
}

// List returns every user without credentials.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, len(users))
	for i, u := range users {
		out[i] = u.Sanitize()
	}
	return out, nil
}

// ListWithPostCounts is the admin user listing.
func (s *UserService) ListWithPostCounts(ctx context.Context, actorID string) ([]model.UserWithPostCount, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	stories, err := s.stories.List(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(users))
	for _, st := range stories {
		counts[st.AuthorID]++
	}

	out := make([]model.UserWithPostCount, len(users))
	for i, u := range users {
		out[i] = model.UserWithPostCount{User: u.Sanitize(), PostCount: counts[u.ID]}
	}
	return out, nil
}

// GetProfile retrieves a user's profile with post count and the viewer's follow status.
// viewerID may be empty for anonymous viewers.
func (s *UserService) GetProfile(ctx context.Context, username, viewerID string) (*model.ProfileResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	stories, err := s.stories.List(ctx)
	if err != nil {
		return nil, err
	}
	count := 0
	for _, st := range stories {
		if st.AuthorID == user.ID {
			count++
		}
	}

	return &model.ProfileResponse{
		User:        user.Sanitize(),
		PostsCount:  count,
		IsFollowing: viewerID != "" && viewerID != user.ID && user.HasFollower(viewerID),
	}, nil
}

// UpdateProfile applies the non-nil fields of req. A new username must stay unique ignoring case.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.User, error) {
	if err := validateProfileUpdate(req); err != nil {
		return nil, err
	}

	var updated model.User
	var oldUsername string
	err := s.users.Mutate(ctx, func(users []model.User) ([]model.User, error) {
		i := repository.FindUser(users, userID)
		if i < 0 {
			return nil, model.ErrUserNotFound
		}
		u := &users[i]
		oldUsername = u.Username

		if req.Username != nil {
			username := strings.TrimSpace(*req.Username)
			if j := repository.FindUsername(users, username); j >= 0 && j != i {
				return nil, model.ErrUsernameExists
			}
			u.Username = username
		}
		if req.Name != nil {
			u.Name = strings.TrimSpace(*req.Name)
		}
		if req.Bio != nil {
			u.Bio = strings.TrimSpace(*req.Bio)
		}
		if req.AvatarURL != nil {
			u.Avatar = model.Image{ID: "avatar-" + u.ID, Description: u.Name + " avatar", ImageURL: *req.AvatarURL, ImageHint: "profile photo"}
		}
		if req.CoverImageURL != nil {
			u.CoverImage = model.Image{ID: "cover-" + u.ID, Description: u.Name + " cover", ImageURL: *req.CoverImageURL, ImageHint: "cover photo"}
		}
		updated = *u
		return users, nil
	})
	if err != nil {
		return nil, err
	}

	// Every profile showing this user's name or comments is stale.
	usernames := []string{oldUsername, updated.Username}
	if stories, err := s.stories.List(ctx); err == nil {
		if users, err := s.users.List(ctx); err == nil {
			usernames = append(usernames, usernamesOf(touchedAuthors(stories, userID), users)...)
		}
	}
	s.activity.Emit(ctx, queue.NewUserEvent(queue.EventUserUpdated, userID, userID, Routes(usernames...)))

	u := updated.Sanitize()
	return &u, nil
}

// DeleteUserAndPosts removes a user with everything they wrote. Only admins may call it,
// never on themselves, and never on the super-admin account.
//
// Stories are cleaned first so a failure part-way leaves the user in place and the call can
// be retried. Once the user record is gone the stories are cleaned again, catching anything
// the user wrote or liked between the two steps.
func (s *UserService) DeleteUserAndPosts(ctx context.Context, userID, actorID string) error {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if userID == actorID {
		return model.ErrCannotDeleteSelf
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if s.superAdmin != "" && target.HasUsername(s.superAdmin) {
		return model.ErrProtectedUser
	}

	affectedAuthors, removedStories, err := s.stripStories(ctx, userID)
	if err != nil {
		return fmt.Errorf("remove stories of %s: %w", userID, err)
	}

	var related []string
	err = s.users.Mutate(ctx, func(users []model.User) ([]model.User, error) {
		i := repository.FindUser(users, userID)
		if i < 0 {
			return nil, model.ErrUserNotFound
		}
		related = append(append(related, users[i].Followers...), users[i].Following...)

		kept := make([]model.User, 0, len(users)-1)
		for j, u := range users {
			if j == i {
				continue
			}
			u.Followers = removeID(u.Followers, userID)
			u.Following = removeID(u.Following, userID)
			kept = append(kept, u)
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	lateAuthors, lateStories, err := s.stripStories(ctx, userID)
	if err != nil {
		return fmt.Errorf("remove late stories of %s: %w", userID, err)
	}
	affectedAuthors = append(affectedAuthors, lateAuthors...)
	removedStories += lateStories

	usernames := []string{target.Username}
	if users, err := s.users.List(ctx); err == nil {
		usernames = append(usernames, usernamesOf(append(related, affectedAuthors...), users)...)
	}
	s.activity.Emit(ctx, queue.NewUserEvent(queue.EventUserDeleted, actorID, userID, Routes(usernames...)))
	s.metrics.UserDeleted()
	s.log.Info("user deleted",
		zap.String("user", userID),
		zap.String("by", actorID),
		zap.Int("stories_removed", removedStories))
	return nil
}

// stripStories removes userID's stories and strips their comments and likes from the rest.
// It returns the authors of the stripped stories and how many stories were removed.
func (s *UserService) stripStories(ctx context.Context, userID string) ([]string, int, error) {
	var affected []string
	removed := 0
	err := s.stories.Mutate(ctx, func(stories []model.Story) ([]model.Story, error) {
		affected = touchedAuthors(stories, userID)
		kept := stories[:0]
		for _, st := range stories {
			if st.AuthorID == userID {
				removed++
				continue
			}
			kept = append(kept, stripUser(st, userID))
		}
		if removed == 0 && len(affected) == 0 {
			return nil, repository.ErrNoChange
		}
		return kept, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return affected, removed, nil
}

// requireAdmin loads the acting user and checks the admin flag.
func (s *UserService) requireAdmin(ctx context.Context, actorID string) (*model.User, error) {
	if actorID == "" {
		return nil, model.ErrForbidden
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrForbidden
		}
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, model.ErrForbidden
	}
	return actor, nil
}

// stripUser removes the user's comments and like from a story.
func stripUser(st model.Story, userID string) model.Story {
	if st.IsLikedBy(userID) {
		st.LikedBy = removeID(st.LikedBy, userID)
		st.Likes = len(st.LikedBy)
	}
	comments := make([]model.Comment, 0, len(st.Comments))
	for _, c := range st.Comments {
		if c.AuthorID != userID {
			comments = append(comments, c)
		}
	}
	st.Comments = comments
	return st
}

// issueUserID returns user-N. N starts at the current time in Unix milliseconds and is kept
// above every id this process issued and every suffix still in use, so a deleted user's id
// is never handed out again. Callers hold the user repository lock.
func (s *UserService) issueUserID(users []model.User) string {
	n := max(s.now().UnixMilli(), s.lastUserN.Load()+1)
	for _, u := range users {
		if m, err := strconv.ParseInt(strings.TrimPrefix(u.ID, model.UserIDPrefix), 10, 64); err == nil && m >= n {
			n = m + 1
		}
	}
	s.lastUserN.Store(n)
	return model.UserIDPrefix + strconv.FormatInt(n, 10)
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < model.MinUsernameLength || n > model.MaxUsernameLength {
		return fmt.Errorf("%w: must be %d-%d characters", model.ErrInvalidUsername, model.MinUsernameLength, model.MaxUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: only letters, digits, '.', '_' and '-' are allowed", model.ErrInvalidUsername)
	}
	return nil
}

func validateProfileUpdate(req *model.UpdateProfileRequest) error {
	if req.Username != nil {
		if err := validateUsername(strings.TrimSpace(*req.Username)); err != nil {
			return err
		}
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || utf8.RuneCountInString(name) > model.MaxNameLength {
			return fmt.Errorf("%w: name must be 1-%d characters", model.ErrInvalidProfile, model.MaxNameLength)
		}
	}
	if req.Bio != nil && utf8.RuneCountInString(strings.TrimSpace(*req.Bio)) > model.MaxBioLength {
		return fmt.Errorf("%w: bio must be at most %d characters", model.ErrInvalidProfile, model.MaxBioLength)
	}
	if req.AvatarURL != nil && strings.TrimSpace(*req.AvatarURL) == "" {
		return fmt.Errorf("%w: avatar url is empty", model.ErrInvalidProfile)
	}
	if req.CoverImageURL != nil && strings.TrimSpace(*req.CoverImageURL) == "" {
		return fmt.Errorf("%w: cover image url is empty", model.ErrInvalidProfile)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
