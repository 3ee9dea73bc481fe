package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kathaipom/internal/handler"
	"kathaipom/internal/httputil"
	authmw "kathaipom/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler   *handler.AuthHandler
	UserHandler   *handler.UserHandler
	FollowHandler *handler.FollowHandler
	FeedHandler   *handler.FeedHandler
	StoryHandler  *handler.StoryHandler
	MediaHandler  *handler.MediaHandler
	AdminHandler  *handler.AdminHandler
	Metrics       http.Handler // defaults to the default prometheus registry
	JWTSecret     string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	metricsHandler := cfg.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	optionalAuth := authmw.OptionalAuthMiddleware(cfg.JWTSecret)

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/logout", cfg.AuthHandler.Logout)
	})
	r.Post("/api/login", cfg.AuthHandler.Login)
	r.Get("/api/users", cfg.UserHandler.List)

	// Public reads with optional authentication
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)

		r.Get("/feed", cfg.FeedHandler.GetFeed)
		r.Get("/stories/{id}", cfg.StoryHandler.GetByID)

		r.Get("/users/{username}", cfg.UserHandler.GetProfile)
		r.Get("/users/{username}/stories", cfg.UserHandler.GetStories)
		r.Get("/users/{username}/liked", cfg.UserHandler.GetLiked)
		r.Get("/users/{username}/followers", cfg.UserHandler.GetFollowers)
		r.Get("/users/{username}/following", cfg.UserHandler.GetFollowing)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/me", cfg.AuthHandler.Me)
		r.Patch("/me", cfg.AuthHandler.UpdateMe)

		// The path segment is a user id here, a username on the read routes.
		r.Post("/users/{id}/follow", cfg.FollowHandler.Follow)
		r.Delete("/users/{id}/follow", cfg.FollowHandler.Unfollow)

		r.Post("/stories", cfg.StoryHandler.Create)
		r.Delete("/stories/{id}", cfg.StoryHandler.Delete)
		r.Post("/stories/{id}/like", cfg.StoryHandler.Like)
		r.Delete("/stories/{id}/like", cfg.StoryHandler.Unlike)
		r.Post("/stories/{id}/comments", cfg.StoryHandler.AddComment)

		r.Post("/media/images", cfg.MediaHandler.UploadImage)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", cfg.AdminHandler.ListUsers)
			r.Post("/users", cfg.AdminHandler.CreateUser)
			r.Delete("/users/{id}", cfg.AdminHandler.DeleteUser)
			r.Post("/import", cfg.AdminHandler.Import)
		})
	})

	return r
}
