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

type StoryHandler struct {
	storyService *service.StoryService
	log          *zap.Logger
}

func NewStoryHandler(storyService *service.StoryService, log *zap.Logger) *StoryHandler {
	return &StoryHandler{
		storyService: storyService,
		log:          logger.OrNop(log).Named("stories"),
	}
}

// Create handles POST /stories
// Publishes a story for the authenticated user.
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateStoryRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	story, err := h.storyService.AddStory(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create story")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, story)
}

// GetByID handles GET /stories/{id}
func (h *StoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	story, err := h.storyService.GetStory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get story")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, story)
}

// Delete handles DELETE /stories/{id}
// Only the author or an admin can delete.
func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.storyService.DeleteStory(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete story")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Like handles POST /stories/{id}/like
func (h *StoryHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, true)
}

// Unlike handles DELETE /stories/{id}/like
func (h *StoryHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, false)
}

func (h *StoryHandler) setLike(w http.ResponseWriter, r *http.Request, like bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	storyID := chi.URLParam(r, "id")
	var (
		story *model.Story
		err   error
	)
	if like {
		story, err = h.storyService.Like(r.Context(), storyID, userID)
	} else {
		story, err = h.storyService.Unlike(r.Context(), storyID, userID)
	}
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update like")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"liked":   story.IsLikedBy(userID),
		"likes":   story.Likes,
		"likedBy": story.LikedBy,
	})
}

// AddComment handles POST /stories/{id}/comments
func (h *StoryHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateCommentRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.storyService.AddComment(r.Context(), chi.URLParam(r, "id"), userID, req.Content)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to add comment")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}
