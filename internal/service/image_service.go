package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"strings"

	"foodshare/internal/models"
	"foodshare/internal/storage"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 5
	// MaxImageDimension bounds either side of an uploaded image, in pixels.
	MaxImageDimension = 8192
)

type UploadImageInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// StoredImage describes an uploaded image. Key is content addressed, so the
// same bytes always land on the same key.
type StoredImage struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

type ImageService struct {
	store              storage.ObjectStore
	maxUploadSizeBytes int64
	urlPrefix          string
}

// NewImageService stores images in store and builds URLs below urlPrefix.
func NewImageService(store storage.ObjectStore, maxUploadSizeMB int, urlPrefix string) *ImageService {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultImageMaxUploadSizeMB
	}
	return &ImageService{
		store:              store,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		urlPrefix:          strings.TrimRight(urlPrefix, "/"),
	}
}

// MaxUploadSizeBytes reports the largest accepted upload.
func (s *ImageService) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*StoredImage, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detected := normalizeContentType(http.DetectContentType(in.Content))
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detected) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension {
		return nil, models.NewValidationError(fmt.Sprintf("Image dimensions must be between 1 and %d pixels", MaxImageDimension))
	}

	sum := sha256.Sum256(in.Content)
	key := hex.EncodeToString(sum[:]) + extensionFor(detected)
	if err := s.store.Put(ctx, key, bytes.NewReader(in.Content), int64(len(in.Content)), detected); err != nil {
		return nil, models.NewInternalError(err)
	}

	return &StoredImage{
		Key:         key,
		URL:         s.URL(key),
		ContentType: detected,
		Size:        len(in.Content),
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// Open returns a stored image for serving.
func (s *ImageService) Open(ctx context.Context, key string) (*storage.Object, error) {
	if !IsValidImageKey(key) {
		return nil, models.NewValidationError("Invalid image key")
	}
	obj, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, models.NewNotFoundError("Image", key)
	}
	return obj, wrapInternal(err)
}

// URL builds the public URL for key.
func (s *ImageService) URL(key string) string {
	return s.urlPrefix + "/" + key
}

// IsValidImageKey accepts "<lowercase sha-256 hex>.<ext>" keys only, keeping
// crafted paths out of the object store.
func IsValidImageKey(key string) bool {
	hash, ext, ok := strings.Cut(key, ".")
	if !ok || len(hash) != sha256.Size*2 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	switch ext {
	case "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}
