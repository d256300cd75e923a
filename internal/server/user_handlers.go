package server

import (
	"foodshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUser handles GET /api/users/:id. The password hash is never serialized.
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.users.GetProfile(c.UserContext(), id)
	return respond(c, fiber.StatusOK, user, err)
}

// UpdateProfile handles PUT /api/users/profile. Users change their own
// profile only; the password and username are not editable here.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var patch models.UserPatch
	if err := parseStrictBody(c, &patch, profileDeniedFields); err != nil {
		return nil
	}
	user, err := s.users.UpdateProfile(c.UserContext(), callerID(c), patch)
	return respond(c, fiber.StatusOK, user, err)
}

var profileDeniedFields = map[string]string{
	"password": "Password cannot be changed through the profile",
	"username": "Username cannot be changed",
	"id":       "User ID cannot be changed",
}
