package handler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"kathaipom/internal/httputil"
	"kathaipom/internal/logger"
	"kathaipom/internal/model"
	"kathaipom/internal/service"
	"kathaipom/internal/transport/http/middleware"
)

type MediaHandler struct {
	mediaService *service.MediaService
	log          *zap.Logger
}

func NewMediaHandler(mediaService *service.MediaService, log *zap.Logger) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		log:          logger.OrNop(log).Named("media"),
	}
}

// UploadImage handles POST /media/images
// Multipart form with an "image" file and an optional "purpose" (story or avatar).
// Returns the URL to put in a story's images or a profile update.
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	maxFormSize := int64(model.MaxImageSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
		case errors.As(err, &tooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
		default:
			httputil.WriteBadRequest(w, "Invalid form data")
		}
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteBadRequest(w, "An image file is required")
		return
	}
	defer file.Close()

	purpose := strings.ToLower(strings.TrimSpace(r.FormValue("purpose")))
	result, err := h.mediaService.Upload(r.Context(), purpose, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to upload image")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}
