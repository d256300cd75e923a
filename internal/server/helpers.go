package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"foodshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "userId" -> "Invalid user ID", "listingId" -> "Invalid listing ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "listingId" -> "listing ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// parseBody decodes a create payload. Unknown fields are ignored.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// parseStrictBody decodes a patch payload and rejects fields outside dst.
// denied names fields that get a dedicated message.
func parseStrictBody(c *fiber.Ctx, dst any, denied map[string]string) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil {
		// trailing data after the object is malformed input
		if _, extra := dec.Token(); extra != io.EOF {
			err = errors.New("trailing data")
		}
	}
	if err == nil {
		return nil
	}

	msg := "Invalid request body"
	if field, ok := unknownField(err); ok {
		msg = fmt.Sprintf("Unknown field %q", field)
		if custom, found := denied[field]; found {
			msg = custom
		}
	}
	_ = models.RespondWithError(c, models.NewValidationError(msg))
	return errResponseWritten
}

func unknownField(err error) (string, bool) {
	const prefix = `json: unknown field "`
	text := err.Error()
	if !strings.HasPrefix(text, prefix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(text, prefix), `"`), true
}

// callerID returns the authenticated user set by AuthRequired.
func callerID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// respond writes v with status, or the mapped error.
func respond(c *fiber.Ctx, status int, v any, err error) error {
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(status).JSON(v)
}
