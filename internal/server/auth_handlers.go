package server

import (
	"time"

	"foodshare/internal/auth"
	"foodshare/internal/models"
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type loginRequest struct {
	// Identifier is a username or an email address.
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (r loginRequest) identifier() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Username != "":
		return r.Username
	default:
		return r.Email
	}
}

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	user, err := s.users.Register(c.UserContext(), in)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return s.startSession(c, fiber.StatusCreated, user)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.users.Authenticate(c.UserContext(), req.identifier(), req.Password)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return s.startSession(c, fiber.StatusOK, user)
}

// Logout handles POST /api/auth/logout. The token stays revoked until it
// would have expired.
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals("claims").(*auth.Claims)
	if claims != nil {
		if err := s.tokens.Revoke(c.UserContext(), claims); err != nil {
			return models.RespondWithError(c, models.NewInternalError(err))
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.users.GetProfile(c.UserContext(), callerID(c))
	return respond(c, fiber.StatusOK, user, err)
}

func (s *Server) startSession(c *fiber.Ctx, status int, user *models.User) error {
	token, claims, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Status(status).JSON(SessionResponse{Token: token, User: user})
}
