package server

import (
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserReviews handles GET /api/users/:userId/reviews: reviews the user received.
func (s *Server) GetUserReviews(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	reviews, err := s.reviews.ListByUser(c.UserContext(), userID)
	return respond(c, fiber.StatusOK, reviews, err)
}

// GetListingReviews handles GET /api/food-listings/:listingId/reviews
func (s *Server) GetListingReviews(c *fiber.Ctx) error {
	listingID, err := parseID(c, "listingId")
	if err != nil {
		return nil
	}
	reviews, err := s.reviews.ListByListing(c.UserContext(), listingID)
	return respond(c, fiber.StatusOK, reviews, err)
}

// CreateReview handles POST /api/reviews
func (s *Server) CreateReview(c *fiber.Ctx) error {
	var in service.CreateReviewInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	review, err := s.reviews.Create(c.UserContext(), callerID(c), in)
	return respond(c, fiber.StatusCreated, review, err)
}
