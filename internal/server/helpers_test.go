package server

import (
	"net/http"
	"testing"

	"foodshare/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

// --- humanizeParam (pure function, no HTTP) ---

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"listingId", "listing ID"},
		{"foodListingId", "food listing ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

// --- parseID ---

func TestParseID(t *testing.T) {
	app := fiber.New()
	app.Get("/items/:itemId", func(c *fiber.Ctx) error {
		id, err := parseID(c, "itemId")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{"/items/42", http.StatusOK},
		{"/items/0", http.StatusBadRequest},
		{"/items/-3", http.StatusBadRequest},
		{"/items/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.expectedStatus, resp.Status)
			if tt.expectedStatus == http.StatusBadRequest {
				assert.Equal(t, "Invalid item ID", resp.errorMessage(t))
			}
		})
	}
}

// --- parseStrictBody ---

func TestParseStrictBody(t *testing.T) {
	app := fiber.New()
	app.Put("/patch", func(c *fiber.Ctx) error {
		var patch models.TransactionPatch
		if err := parseStrictBody(c, &patch, map[string]string{"sellerId": "no"}); err != nil {
			return nil
		}
		return c.JSON(patch)
	})

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{name: "Known Fields", body: `{"status":"completed","isPaid":true}`, expectedStatus: http.StatusOK},
		{name: "Empty Object", body: `{}`, expectedStatus: http.StatusOK},
		{name: "Unknown Field", body: `{"note":"x"}`, expectedStatus: http.StatusBadRequest, expectedError: `Unknown field "note"`},
		{name: "Denied Field", body: `{"sellerId":2}`, expectedStatus: http.StatusBadRequest, expectedError: "no"},
		{name: "Malformed", body: `{"status":`, expectedStatus: http.StatusBadRequest, expectedError: "Invalid request body"},
		{name: "Trailing Data", body: `{} {}`, expectedStatus: http.StatusBadRequest, expectedError: "Invalid request body"},
		{name: "Wrong Type", body: `{"isPaid":"yes"}`, expectedStatus: http.StatusBadRequest, expectedError: "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodPut, "/patch", "", tt.body)
			assert.Equal(t, tt.expectedStatus, resp.Status, "body: %s", resp.Body)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, resp.errorMessage(t))
			}
		})
	}
}
