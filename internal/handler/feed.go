package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"kathaipom/internal/httputil"
	"kathaipom/internal/logger"
	"kathaipom/internal/service"
	"kathaipom/internal/transport/http/middleware"
)

type FeedHandler struct {
	feedService *service.FeedService
	log         *zap.Logger
}

func NewFeedHandler(feedService *service.FeedService, log *zap.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		log:         logger.OrNop(log).Named("feed"),
	}
}

// GetFeed handles GET /feed
// Returns every story, newest first, for anonymous and signed-in readers.
//
// Query params:
//   - prioritize: optional bool, asks the ranker to reorder the feed
//   - interests: optional comma-separated interest tags passed to the ranker
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	var opts service.FeedOptions
	if p := r.URL.Query().Get("prioritize"); p != "" {
		prioritize, err := strconv.ParseBool(p)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid prioritize parameter")
			return
		}
		opts.Prioritize = prioritize
	}
	if i := r.URL.Query().Get("interests"); i != "" {
		opts.Interests = strings.Split(i, ",")
	}

	feed, err := h.feedService.GetFeed(r.Context(), viewerID, opts)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}
