package server

import (
	"strconv"
	"strings"

	"foodshare/internal/models"
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListFoodListings handles GET /api/food-listings. With lat and lng it
// returns available listings within radius km (default 10), nearest first;
// category, available and q narrow either form.
func (s *Server) ListFoodListings(c *fiber.Ctx) error {
	filter, err := listingFilter(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	latRaw, lngRaw := c.Query("lat"), c.Query("lng")
	if latRaw == "" && lngRaw == "" {
		listings, err := s.listings.List(c.UserContext(), filter)
		return respond(c, fiber.StatusOK, listings, err)
	}

	lat, errLat := strconv.ParseFloat(latRaw, 64)
	lng, errLng := strconv.ParseFloat(lngRaw, 64)
	if errLat != nil || errLng != nil {
		return models.RespondWithError(c, models.NewValidationError("lat and lng must both be numbers"))
	}
	radius := service.DefaultRadiusKm
	if raw := c.Query("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.RespondWithError(c, models.NewValidationError("radius must be a number"))
		}
	}

	listings, err := s.listings.Nearby(c.UserContext(), lat, lng, radius)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if !filter.IsZero() {
		kept := make([]models.FoodListing, 0, len(listings))
		for i := range listings {
			if filter.Matches(&listings[i]) {
				kept = append(kept, listings[i])
			}
		}
		listings = kept
	}
	return c.JSON(listings)
}

func listingFilter(c *fiber.Ctx) (models.ListingFilter, error) {
	filter := models.ListingFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Query:    c.Query("q"),
	}
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, models.NewValidationError("available must be true or false")
		}
		filter.Available = &available
	}
	return filter, nil
}

// GetFoodListing handles GET /api/food-listings/:id
func (s *Server) GetFoodListing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	listing, err := s.listings.Get(c.UserContext(), id)
	return respond(c, fiber.StatusOK, listing, err)
}

// GetUserFoodListings handles GET /api/users/:userId/food-listings
func (s *Server) GetUserFoodListings(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	listings, err := s.listings.ListByOwner(c.UserContext(), userID)
	return respond(c, fiber.StatusOK, listings, err)
}

// CreateFoodListing handles POST /api/food-listings
func (s *Server) CreateFoodListing(c *fiber.Ctx) error {
	var in service.CreateListingInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	listing, err := s.listings.Create(c.UserContext(), callerID(c), in)
	return respond(c, fiber.StatusCreated, listing, err)
}

// UpdateFoodListing handles PUT /api/food-listings/:id (owner only)
func (s *Server) UpdateFoodListing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var patch models.ListingPatch
	if err := parseStrictBody(c, &patch, listingDeniedFields); err != nil {
		return nil
	}
	listing, err := s.listings.Update(c.UserContext(), callerID(c), id, patch)
	return respond(c, fiber.StatusOK, listing, err)
}

var listingDeniedFields = map[string]string{
	"userId": "The owner of a listing cannot be changed",
}

// DeleteFoodListing handles DELETE /api/food-listings/:id (owner only)
func (s *Server) DeleteFoodListing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.listings.Delete(c.UserContext(), callerID(c), id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
