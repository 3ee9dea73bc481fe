package handler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"kathaipom/internal/config"
	"kathaipom/internal/httputil"
	"kathaipom/internal/logger"
	"kathaipom/internal/model"
	"kathaipom/internal/service"
	"kathaipom/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
	config      *config.Config
	log         *zap.Logger
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		config:      cfg,
		log:         logger.OrNop(log).Named("auth"),
	}
}

// Register handles sign-up and signs the new user in.
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	req.IsAdmin = false

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to register")
		return
	}

	h.signIn(w, r, http.StatusCreated, user)
}

// Login handles user login. With "isAdmin": true only admins may sign in (writer console).
// POST /auth/login, POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		httputil.WriteBadRequest(w, "Username is required")
		return
	}
	if req.Password == "" {
		httputil.WriteBadRequest(w, "Password is required")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to login")
		return
	}

	h.signIn(w, r, http.StatusOK, user)
}

// Logout clears the session cookie. Bearer tokens simply expire.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     model.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteMessage(w, http.StatusOK, "Logged out successfully")
}

// Me returns the currently authenticated user
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if errors.Is(err, model.ErrUserNotFound) {
		httputil.WriteUnauthorized(w, "Account no longer exists")
		return
	}
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateMe edits the authenticated user's profile.
// PATCH /me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.UpdateProfileRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// signIn issues an access token, sets it as a cookie for browsers and returns it in the body.
func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, err := h.authService.GenerateAccessToken(user.ID)
	if err != nil {
		h.log.Error("token generation failed", zap.String("user", user.ID), zap.Error(err))
		httputil.WriteInternalError(w, "Failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     model.AccessTokenCookie,
		Value:    token.Token,
		Path:     "/",
		MaxAge:   token.ExpiresIn,
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})

	h.log.Debug("signed in", zap.String("user", user.ID), zap.String("path", r.URL.Path))
	httputil.WriteJSON(w, status, model.LoginResponse{
		User:        *user,
		AccessToken: token.Token,
		ExpiresIn:   token.ExpiresIn,
	})
}

func (h *AuthHandler) secureCookies() bool {
	return h.config.AppEnv != "development"
}
