package server

import (
	"foodshare/internal/models"
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMessages handles GET /api/messages: everything the caller sent or received.
func (s *Server) GetMessages(c *fiber.Ctx) error {
	messages, err := s.messages.ListForUser(c.UserContext(), callerID(c))
	return respond(c, fiber.StatusOK, messages, err)
}

// GetConversation handles GET /api/messages/:userId, oldest first.
func (s *Server) GetConversation(c *fiber.Ctx) error {
	otherID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	messages, err := s.messages.Conversation(c.UserContext(), callerID(c), otherID)
	return respond(c, fiber.StatusOK, messages, err)
}

// SendMessage handles POST /api/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var in service.SendMessageInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	msg, err := s.messages.Send(c.UserContext(), callerID(c), in)
	return respond(c, fiber.StatusCreated, msg, err)
}

// MarkMessageRead handles PUT /api/messages/:id/read (receiver only)
func (s *Server) MarkMessageRead(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.messages.MarkRead(c.UserContext(), callerID(c), id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
