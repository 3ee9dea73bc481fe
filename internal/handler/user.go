package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kathaipom/internal/httputil"
	"kathaipom/internal/logger"
	"kathaipom/internal/model"
	"kathaipom/internal/service"
	"kathaipom/internal/transport/http/middleware"
)

// UserHandler serves the public user and profile views.
type UserHandler struct {
	userService   *service.UserService
	storyService  *service.StoryService
	followService *service.FollowService
	log           *zap.Logger
}

func NewUserHandler(userService *service.UserService, storyService *service.StoryService, followService *service.FollowService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:   userService,
		storyService:  storyService,
		followService: followService,
		log:           logger.OrNop(log).Named("users"),
	}
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]model.User{"users": users})
}

// GetProfile handles GET /users/{username}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	profile, err := h.userService.GetProfile(r.Context(), chi.URLParam(r, "username"), viewerID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// GetStories handles GET /users/{username}/stories. Unknown users have no stories.
func (h *UserHandler) GetStories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.storyService.GetStoriesByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get stories")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]model.EnrichedStory{"stories": stories})
}

// GetLiked handles GET /users/{username}/liked
func (h *UserHandler) GetLiked(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get liked stories")
		return
	}

	stories, err := h.storyService.GetLikedStoriesByUserID(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get liked stories")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]model.EnrichedStory{"stories": stories})
}

// GetFollowers handles GET /users/{username}/followers
func (h *UserHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	list, err := h.followService.Followers(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get followers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

// GetFollowing handles GET /users/{username}/following
func (h *UserHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	list, err := h.followService.Following(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get following")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}
