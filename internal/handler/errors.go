package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"kathaipom/internal/httputil"
	"kathaipom/internal/model"
)

// writeServiceError maps domain sentinels to HTTP responses. Anything unrecognized is
// logged and answered with a 500 carrying fallback.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrStoryNotFound):
		httputil.WriteNotFound(w, err.Error())

	case errors.Is(err, model.ErrUsernameExists):
		httputil.WriteConflict(w, err.Error())

	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, "Invalid username or password")

	case errors.Is(err, model.ErrNotWriter),
		errors.Is(err, model.ErrForbidden),
		errors.Is(err, model.ErrNotStoryOwner),
		errors.Is(err, model.ErrCannotDeleteSelf),
		errors.Is(err, model.ErrProtectedUser):
		httputil.WriteForbidden(w, err.Error())

	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")

	case errors.Is(err, model.ErrInvalidUsername),
		errors.Is(err, model.ErrInvalidProfile),
		errors.Is(err, model.ErrCannotFollowSelf),
		errors.Is(err, model.ErrEmptyStory),
		errors.Is(err, model.ErrTooManyPages),
		errors.Is(err, model.ErrPageTooLong),
		errors.Is(err, model.ErrTooManyImages),
		errors.Is(err, model.ErrContentRequired),
		errors.Is(err, model.ErrContentTooLong),
		errors.Is(err, model.ErrInvalidImagePurpose),
		errors.Is(err, model.ErrInvalidRepoURL):
		httputil.WriteBadRequest(w, err.Error())

	default:
		log.Error(fallback, zap.Error(err))
		httputil.WriteInternalError(w, fallback)
	}
}
