package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"kathaipom/internal/config"
	"kathaipom/internal/logger"
	"kathaipom/internal/model"
)

// ObjectPutter is the subset of the S3 API used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// MediaService normalizes uploaded images and stores them in Cloudflare R2.
// Without a bucket the image is returned inline as a data URI.
type MediaService struct {
	objects   ObjectPutter
	bucket    string
	publicURL string
	log       *zap.Logger
}

// NewMediaService builds an R2-backed service when the bucket is configured, and an inline one otherwise.
func NewMediaService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*MediaService, error) {
	if !cfg.MediaBucketConfigured() {
		logger.OrNop(log).Info("media bucket not configured, images are stored inline")
		return NewInlineMediaService(log), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return NewBucketMediaService(client, cfg.R2BucketName, cfg.R2PublicURL, log), nil
}

// NewBucketMediaService stores uploads through objects under publicURL.
func NewBucketMediaService(objects ObjectPutter, bucket, publicURL string, log *zap.Logger) *MediaService {
	return &MediaService{
		objects:   objects,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		log:       logger.OrNop(log).Named("media"),
	}
}

// NewInlineMediaService returns uploads as data URIs.
func NewInlineMediaService(log *zap.Logger) *MediaService {
	return &MediaService{log: logger.OrNop(log).Named("media")}
}

// Upload validates and normalizes one image. Story images are fitted within 1080x1080,
// avatars are cropped to 200x200. Both are re-encoded as JPEG.
func (s *MediaService) Upload(ctx context.Context, purpose string, r io.Reader, size int64, contentType string) (*model.UploadResult, error) {
	data, err := readAndValidateImage(r, size, contentType, model.MaxImageSizeBytes)
	if err != nil {
		return nil, err
	}

	var (
		jpegBytes []byte
		folder    string
	)
	switch purpose {
	case model.ImagePurposeAvatar:
		jpegBytes, err = encodeJPEG(data, func(img image.Image) image.Image {
			return imaging.Fill(img, model.AvatarWidth, model.AvatarHeight, imaging.Center, imaging.Lanczos)
		})
		folder = model.AvatarFolder
	case model.ImagePurposeStory, "":
		jpegBytes, err = encodeJPEG(data, func(img image.Image) image.Image {
			return imaging.Fit(img, model.StoryImageMaxWidth, model.StoryImageMaxWidth, imaging.Lanczos)
		})
		folder = model.StoryImageFolder
	default:
		return nil, model.ErrInvalidImagePurpose
	}
	if err != nil {
		return nil, err
	}

	if s.objects == nil {
		return &model.UploadResult{URL: "data:" + model.ContentTypeJPEG + ";base64," + base64.StdEncoding.EncodeToString(jpegBytes)}, nil
	}

	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), model.ImageExt)
	if err := s.putObject(ctx, key, jpegBytes); err != nil {
		return nil, err
	}
	s.log.Debug("image uploaded", zap.String("key", key), zap.Int("bytes", len(jpegBytes)))
	return &model.UploadResult{URL: fmt.Sprintf("%s/%s", s.publicURL, key), Key: key}, nil
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(r io.Reader, size int64, contentType string, maxSize int64) ([]byte, error) {
	if size > maxSize {
		return nil, model.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, model.ErrFileTooLarge
	}

	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !model.IsAllowedImageType(contentType) {
		return nil, model.ErrInvalidImageType
	}
	return data, nil
}

func encodeJPEG(data []byte, transform func(image.Image) image.Image) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidImageType, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, transform(img), imaging.JPEG, imaging.JPEGQuality(model.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *MediaService) putObject(ctx context.Context, key string, body []byte) error {
	_, err := s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(model.ContentTypeJPEG),
		CacheControl: aws.String(model.ImageCacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}
