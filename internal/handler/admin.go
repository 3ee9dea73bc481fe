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

// AdminHandler serves the writer console: user management and repository import.
// The services enforce the admin check.
type AdminHandler struct {
	userService   *service.UserService
	importService *service.ImportService
	log           *zap.Logger
}

func NewAdminHandler(userService *service.UserService, importService *service.ImportService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		userService:   userService,
		importService: importService,
		log:           logger.OrNop(log).Named("admin"),
	}
}

type createUserRequest struct {
	model.RegisterRequest
	AsAdmin bool `json:"isAdmin"`
}

// ListUsers handles GET /admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetUserIDFromContext(r.Context())

	users, err := h.userService.ListWithPostCounts(r.Context(), actorID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]model.UserWithPostCount{"users": users})
}

// CreateUser handles POST /admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetUserIDFromContext(r.Context())

	var req createUserRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.userService.CreateByAdmin(r.Context(), actorID, &req.RegisterRequest, req.AsAdmin)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create user")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

// DeleteUser handles DELETE /admin/users/{id}
// Removes the user, their stories, comments and likes, and both sides of their follow edges.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetUserIDFromContext(r.Context())

	if err := h.userService.DeleteUserAndPosts(r.Context(), chi.URLParam(r, "id"), actorID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /admin/import
func (h *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetUserIDFromContext(r.Context())

	var req model.ImportRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if req.RepoURL == "" {
		httputil.WriteBadRequest(w, "repoUrl is required")
		return
	}

	result, err := h.importService.Import(r.Context(), actorID, req.RepoURL)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to import repository")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
