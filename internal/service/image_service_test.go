package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"foodshare/internal/models"
	"foodshare/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageService_UploadAndOpen(t *testing.T) {
	t.Parallel()
	svc := NewImageService(storage.NewMemoryStore(), 1, "/api/uploads/images/")
	content := testPNG(t, 4, 3)

	img, err := svc.Upload(context.Background(), UploadImageInput{UserID: 1, Filename: "soup.png", ContentType: "image/png", Content: content})
	require.NoError(t, err)
	assert.True(t, IsValidImageKey(img.Key))
	assert.True(t, strings.HasSuffix(img.Key, ".png"))
	assert.Equal(t, "/api/uploads/images/"+img.Key, img.URL)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)

	again, err := svc.Upload(context.Background(), UploadImageInput{UserID: 2, Content: content})
	require.NoError(t, err)
	assert.Equal(t, img.Key, again.Key, "identical bytes share a key")

	obj, err := svc.Open(context.Background(), img.Key)
	require.NoError(t, err)
	defer func() { _ = obj.Body.Close() }()
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, content, body)
	assert.Equal(t, "image/png", obj.ContentType)
}

func TestImageService_UploadRejects(t *testing.T) {
	t.Parallel()
	svc := NewImageService(storage.NewMemoryStore(), 1, "/img")
	content := testPNG(t, 2, 2)

	tests := []struct {
		name string
		in   UploadImageInput
	}{
		{"no user", UploadImageInput{Content: content}},
		{"empty", UploadImageInput{UserID: 1}},
		{"not an image", UploadImageInput{UserID: 1, Content: []byte("hello, world")}},
		{"type mismatch", UploadImageInput{UserID: 1, ContentType: "image/gif", Content: content}},
		{"too large", UploadImageInput{UserID: 1, Content: append(append([]byte{}, content...), make([]byte, 1024*1024)...)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.in)
			assertCode(t, err, models.CodeValidation)
		})
	}
}

func TestImageService_Open(t *testing.T) {
	t.Parallel()
	svc := NewImageService(storage.NewMemoryStore(), 0, "/img")
	assert.Equal(t, int64(DefaultImageMaxUploadSizeMB)*1024*1024, svc.MaxUploadSizeBytes())

	_, err := svc.Open(context.Background(), "../etc/passwd")
	assertCode(t, err, models.CodeValidation)

	_, err = svc.Open(context.Background(), strings.Repeat("a", 64)+".png")
	assertCode(t, err, models.CodeNotFound)
}
