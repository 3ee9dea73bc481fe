package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kathaipom/internal/model"
)

// =============================================================================
// MOCK OBJECT STORE
// =============================================================================

type mockPutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (m *mockPutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, _ := io.ReadAll(in.Body)
	m.inputs = append(m.inputs, in)
	m.bodies = append(m.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodedBounds(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds()
}

func TestMediaService_Upload_Avatar(t *testing.T) {
	putter := &mockPutter{}
	svc := NewBucketMediaService(putter, "kathaipom", "https://cdn.example.com/", nil)
	data := pngBytes(t, 400, 300)

	result, err := svc.Upload(context.Background(), model.ImagePurposeAvatar, bytes.NewReader(data), int64(len(data)), "image/png")

	require.NoError(t, err)
	require.Len(t, putter.inputs, 1)
	in := putter.inputs[0]
	assert.Equal(t, "kathaipom", aws.ToString(in.Bucket))
	assert.True(t, strings.HasPrefix(aws.ToString(in.Key), model.AvatarFolder+"/"))
	assert.True(t, strings.HasSuffix(aws.ToString(in.Key), model.ImageExt))
	assert.Equal(t, model.ContentTypeJPEG, aws.ToString(in.ContentType))
	assert.Equal(t, "https://cdn.example.com/"+aws.ToString(in.Key), result.URL)
	assert.Equal(t, aws.ToString(in.Key), result.Key)

	bounds := decodedBounds(t, putter.bodies[0])
	assert.Equal(t, model.AvatarWidth, bounds.Dx())
	assert.Equal(t, model.AvatarHeight, bounds.Dy())
}

func TestMediaService_Upload_StoryImageFitsWithinBounds(t *testing.T) {
	putter := &mockPutter{}
	svc := NewBucketMediaService(putter, "kathaipom", "https://cdn.example.com", nil)
	data := pngBytes(t, 1600, 800)

	_, err := svc.Upload(context.Background(), model.ImagePurposeStory, bytes.NewReader(data), int64(len(data)), "")

	require.NoError(t, err)
	require.Len(t, putter.inputs, 1)
	assert.True(t, strings.HasPrefix(aws.ToString(putter.inputs[0].Key), model.StoryImageFolder+"/"))
	bounds := decodedBounds(t, putter.bodies[0])
	assert.Equal(t, 1080, bounds.Dx())
	assert.Equal(t, 540, bounds.Dy())
}

func TestMediaService_Upload_InlineDataURI(t *testing.T) {
	svc := NewInlineMediaService(nil)
	data := pngBytes(t, 10, 10)

	result, err := svc.Upload(context.Background(), model.ImagePurposeStory, bytes.NewReader(data), int64(len(data)), "image/png")

	require.NoError(t, err)
	prefix := "data:image/jpeg;base64,"
	require.True(t, strings.HasPrefix(result.URL, prefix))
	assert.Empty(t, result.Key)
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(result.URL, prefix))
	require.NoError(t, err)
	assert.Equal(t, 10, decodedBounds(t, decoded).Dx())
}

func TestMediaService_Upload_Rejected(t *testing.T) {
	valid := pngBytes(t, 10, 10)
	tests := []struct {
		name        string
		purpose     string
		data        []byte
		size        int64
		contentType string
		wantErr     error
	}{
		{"declared too large", model.ImagePurposeStory, valid, model.MaxImageSizeBytes + 1, "image/png", model.ErrFileTooLarge},
		{"unsupported type", model.ImagePurposeStory, valid, int64(len(valid)), "application/pdf", model.ErrInvalidImageType},
		{"not an image", model.ImagePurposeStory, []byte("hello there"), 11, "", model.ErrInvalidImageType},
		{"corrupt image", model.ImagePurposeStory, []byte("not really a png"), 16, "image/png", model.ErrInvalidImageType},
		{"unknown purpose", "banner", valid, int64(len(valid)), "image/png", model.ErrInvalidImagePurpose},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			putter := &mockPutter{}
			svc := NewBucketMediaService(putter, "b", "https://cdn", nil)

			_, err := svc.Upload(context.Background(), tt.purpose, bytes.NewReader(tt.data), tt.size, tt.contentType)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, putter.inputs)
		})
	}
}

func TestMediaService_Upload_PutFailure(t *testing.T) {
	putErr := errors.New("bucket unavailable")
	svc := NewBucketMediaService(&mockPutter{err: putErr}, "b", "https://cdn", nil)
	data := pngBytes(t, 10, 10)

	_, err := svc.Upload(context.Background(), model.ImagePurposeAvatar, bytes.NewReader(data), int64(len(data)), "image/png")

	assert.ErrorIs(t, err, putErr)
}
