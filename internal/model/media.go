package model

import "errors"

const (
	MaxImageSizeBytes  = 10 * 1024 * 1024 // 10MB per uploaded image
	AvatarWidth        = 200
	AvatarHeight       = 200
	StoryImageMaxWidth = 1080
	AvatarFolder       = "avatars"
	StoryImageFolder   = "stories"
	ImageExt           = ".jpg"
	ImageCacheControl  = "public, max-age=31536000" // 1 year
	JPEGQuality        = 85
)

// Image purposes accepted by the upload endpoint
const (
	ImagePurposeStory  = "story"
	ImagePurposeAvatar = "avatar"
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)

// Domain errors for media operations
var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrInvalidImageType    = errors.New("invalid image type")
	ErrInvalidImagePurpose = errors.New("invalid image purpose")
)

// UploadResult represents a stored image.
// URL is either the public bucket URL or an inline data URI; Key is empty for inline images.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key,omitempty"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
