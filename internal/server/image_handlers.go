package server

import (
	"io"
	"strings"

	"foodshare/internal/models"
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/uploads/images. The multipart field is "image";
// the returned URL goes into a listing's imageUrls.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("No file uploaded"))
	}
	if file.Size > s.images.MaxUploadSizeBytes() {
		return models.RespondWithError(c, models.NewValidationError("File too large"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Unable to read uploaded file"))
	}

	stored, err := s.images.Upload(c.UserContext(), service.UploadImageInput{
		UserID:      callerID(c),
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	return respond(c, fiber.StatusCreated, stored, err)
}

// ServeImage handles GET /api/uploads/images/:key
func (s *Server) ServeImage(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Params("key"))
	obj, err := s.images.Open(c.UserContext(), key)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	c.Set(fiber.HeaderContentType, obj.ContentType)
	// keys are content addressed, so a key never changes its bytes
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.SendStream(obj.Body, int(obj.Size))
}
