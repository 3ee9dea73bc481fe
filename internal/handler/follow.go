package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kathaipom/internal/httputil"
	"kathaipom/internal/logger"
	"kathaipom/internal/service"
	"kathaipom/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService *service.FollowService
	log           *zap.Logger
}

func NewFollowHandler(followService *service.FollowService, log *zap.Logger) *FollowHandler {
	return &FollowHandler{
		followService: followService,
		log:           logger.OrNop(log).Named("follows"),
	}
}

// Follow handles POST /users/{id}/follow. Following twice succeeds.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.followService.Follow(r.Context(), followerID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err, "Failed to follow user")
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Successfully followed user")
}

// Unfollow handles DELETE /users/{id}/follow. Unfollowing someone not followed succeeds.
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.followService.Unfollow(r.Context(), followerID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err, "Failed to unfollow user")
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Successfully unfollowed user")
}
