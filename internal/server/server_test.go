package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"foodshare/internal/auth"
	"foodshare/internal/bootstrap"
	"foodshare/internal/config"
	"foodshare/internal/featureflags"
	"foodshare/internal/models"
	"foodshare/internal/notifications"
	"foodshare/internal/repository/memstore"
	"foodshare/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "server-test-secret-0123456789abcdef"

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func testRuntime(t *testing.T, flags string) *bootstrap.Runtime {
	t.Helper()
	store := memstore.New()
	t.Cleanup(func() { _ = store.Close() })

	return &bootstrap.Runtime{
		Config: &config.Config{
			Env:            "test",
			JWTSecret:      testSecret,
			AllowedOrigins: "http://localhost:5173",
			UploadMaxMB:    1,
		},
		Store:    store,
		Tokens:   auth.NewTokenManager(testSecret, time.Hour, auth.NewMemoryRevocations()),
		Objects:  storage.NewMemoryStore(),
		Flags:    featureflags.NewManager(flags),
		Notifier: notifications.NewNotifier(nil),
		Hub:      notifications.NewHub(),
	}
}

func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	s := NewServer(testRuntime(t, "uploads=on,realtime=on"))
	return s, s.App()
}

type apiResponse struct {
	Status int
	Body   []byte
	Header http.Header
}

func (r apiResponse) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, dst), "body: %s", r.Body)
}

func (r apiResponse) errorMessage(t *testing.T) string {
	t.Helper()
	var body models.ErrorResponse
	r.decode(t, &body)
	return body.Error
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body any) apiResponse {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = bytes.NewBufferString(v)
		default:
			raw, err := json.Marshal(v)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return apiResponse{Status: resp.StatusCode, Body: raw, Header: resp.Header}
}

type session struct {
	Token string
	User  models.User
}

func registerUser(t *testing.T, app *fiber.App, username, email string) session {
	t.Helper()
	resp := doRequest(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": username,
		"email":    email,
		"password": "password123",
		"location": "Springfield",
	})
	require.Equal(t, http.StatusCreated, resp.Status, "body: %s", resp.Body)

	var out session
	resp.decode(t, &out)
	require.NotEmpty(t, out.Token)
	return out
}

func listingBody(title string, extra fiber.Map) fiber.Map {
	body := fiber.Map{
		"title":       title,
		"description": "Fresh from the garden",
		"category":    "produce",
		"quantity":    2,
		"price":       4.5,
		"expiresAt":   time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"location":    "Springfield",
		"latitude":    40.7128,
		"longitude":   -74.0060,
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func createListing(t *testing.T, app *fiber.App, token, title string, extra fiber.Map) models.FoodListing {
	t.Helper()
	resp := doRequest(t, app, http.MethodPost, "/api/food-listings", token, listingBody(title, extra))
	require.Equal(t, http.StatusCreated, resp.Status, "body: %s", resp.Body)

	var listing models.FoodListing
	resp.decode(t, &listing)
	return listing
}

func TestHealthChecks(t *testing.T) {
	_, app := newTestServer(t)

	resp := doRequest(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = doRequest(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	resp.decode(t, &ready)
	assert.Equal(t, "healthy", ready.Status)
	assert.Equal(t, "unavailable", ready.Checks["redis"])
}

func TestReadinessCheck_StoreDown(t *testing.T) {
	s, app := newTestServer(t)
	require.NoError(t, s.store.Close())

	resp := doRequest(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	_, app := newTestServer(t)

	resp := doRequest(t, app, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	// unmatched /api paths are not behind the session check
	for _, path := range []string{"/api/does-not-exist", "/api/food-listings/1/nothing"} {
		resp := doRequest(t, app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.Status, path)
	}
	assert.Equal(t, http.StatusUnauthorized,
		doRequest(t, app, http.MethodPost, "/api/food-listings", "", fiber.Map{}).Status)
}

func TestSecurityHeaders(t *testing.T) {
	_, app := newTestServer(t)

	resp := doRequest(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestCORSPreflight(t *testing.T) {
	_, app := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/food-listings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestMetricsEndpoint(t *testing.T) {
	_, app := newTestServer(t)

	doRequest(t, app, http.MethodGet, "/health/live", "", nil)
	resp := doRequest(t, app, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), "foodshare")
}
