package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_AuthRequired(t *testing.T) {
	s := NewServer(testRuntime(t, ""))
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": callerID(c)})
	})
	app.Get("/api/ws", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	valid, _, err := s.tokens.Issue(123, "sam")
	require.NoError(t, err)

	revoked, revokedClaims, err := s.tokens.Issue(124, "max")
	require.NoError(t, err)
	require.NoError(t, s.tokens.Revoke(context.Background(), revokedClaims))

	forge := func(issuer, audience string, exp time.Duration) string {
		claims := jwt.MapClaims{
			"sub": strconv.FormatUint(123, 10),
			"iss": issuer,
			"aud": audience,
			"exp": time.Now().Add(exp).Unix(),
			"jti": "test-jti-valid-length",
		}
		str, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		return str
	}

	tests := []struct {
		name           string
		path           string
		authHeader     string
		cookie         string
		expectedStatus int
	}{
		{name: "Valid Bearer Token", path: "/protected", authHeader: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "Valid Session Cookie", path: "/protected", cookie: valid, expectedStatus: http.StatusOK},
		{name: "Missing Token", path: "/protected", expectedStatus: http.StatusUnauthorized},
		{name: "Malformed Header", path: "/protected", authHeader: "Token " + valid, expectedStatus: http.StatusUnauthorized},
		{name: "Revoked Token", path: "/protected", authHeader: "Bearer " + revoked, expectedStatus: http.StatusUnauthorized},
		{name: "Wrong Issuer", path: "/protected", authHeader: "Bearer " + forge("other-api", "foodshare-client", time.Hour), expectedStatus: http.StatusUnauthorized},
		{name: "Wrong Audience", path: "/protected", authHeader: "Bearer " + forge("foodshare-api", "other-client", time.Hour), expectedStatus: http.StatusUnauthorized},
		{name: "Expired Token", path: "/protected", authHeader: "Bearer " + forge("foodshare-api", "foodshare-client", -time.Hour), expectedStatus: http.StatusUnauthorized},
		{name: "Query Token Ignored Outside WebSocket", path: "/protected?token=" + valid, expectedStatus: http.StatusUnauthorized},
		{name: "Query Token Accepted For WebSocket", path: "/api/ws?token=" + valid, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestServer_OptionalAuth(t *testing.T) {
	s := NewServer(testRuntime(t, ""))
	app := fiber.New()
	app.Get("/whoami", s.OptionalAuth(), func(c *fiber.Ctx) error {
		return c.SendString(strconv.Itoa(int(callerID(c))))
	})

	token, _, err := s.tokens.Issue(9, "kim")
	require.NoError(t, err)

	resp := doRequest(t, app, http.MethodGet, "/whoami", token, nil)
	assert.Equal(t, "9", string(resp.Body))

	resp = doRequest(t, app, http.MethodGet, "/whoami", "garbage", nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "0", string(resp.Body))
}

func TestServer_FeatureRequired(t *testing.T) {
	s := NewServer(testRuntime(t, "uploads=off"))
	app := fiber.New()
	app.Get("/gated", s.FeatureRequired("uploads"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/unknown", s.FeatureRequired("never-configured"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	assert.Equal(t, http.StatusNotFound, doRequest(t, app, http.MethodGet, "/gated", "", nil).Status)
	assert.Equal(t, http.StatusNotFound, doRequest(t, app, http.MethodGet, "/unknown", "", nil).Status)
}

func TestFeatureFlagsEndpoint(t *testing.T) {
	s := NewServer(testRuntime(t, "uploads=on,realtime=off"))
	app := s.App()

	resp := doRequest(t, app, http.MethodGet, "/api/feature-flags", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)

	var body FeatureFlagsResponse
	resp.decode(t, &body)
	assert.Equal(t, "on", body.Raw["uploads"])
	assert.True(t, body.Evaluated["uploads"])
	assert.False(t, body.Evaluated["realtime"])
}
