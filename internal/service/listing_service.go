package service

import (
	"context"
	"strings"
	"time"

	"foodshare/internal/geo"
	"foodshare/internal/models"
	"foodshare/internal/observability"
	"foodshare/internal/repository"
)

// DefaultRadiusKm is the search radius used when a proximity query omits one.
const DefaultRadiusKm = 10.0

type ListingService struct {
	listings repository.ListingRepository
	now      func() time.Time
}

type CreateListingInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"required,max=5000"`
	ImageURLs   []string   `json:"imageUrls" validate:"max=10,dive,max=2048"`
	Price       *float64   `json:"price" validate:"omitempty,gte=0"`
	IsFree      bool       `json:"isFree"`
	Quantity    int        `json:"quantity" validate:"gte=1"`
	PortionSize *string    `json:"portionSize" validate:"omitempty,max=100"`
	Category    string     `json:"category" validate:"required,max=50"`
	Ingredients *string    `json:"ingredients" validate:"omitempty,max=2000"`
	Allergens   *string    `json:"allergens" validate:"omitempty,max=1000"`
	ExpiresAt   *time.Time `json:"expiresAt" validate:"required"`
	Location    string     `json:"location" validate:"required,max=255"`
	Latitude    *float64   `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64   `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

func NewListingService(listings repository.ListingRepository) *ListingService {
	return &ListingService{listings: listings, now: time.Now}
}

// Create stores a new available listing owned by ownerID. A missing quantity
// means one portion; free listings are stored with price 0.
func (s *ListingService) Create(ctx context.Context, ownerID uint, in CreateListingInput) (*models.FoodListing, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if err := validate(in); err != nil {
		return nil, err
	}

	listing := &models.FoodListing{
		Title:       in.Title,
		Description: in.Description,
		ImageURLs:   in.ImageURLs,
		Price:       in.Price,
		IsFree:      in.IsFree,
		Quantity:    in.Quantity,
		PortionSize: in.PortionSize,
		Category:    in.Category,
		Ingredients: in.Ingredients,
		Allergens:   in.Allergens,
		ExpiresAt:   in.ExpiresAt.UTC(),
		Location:    in.Location,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		UserID:      ownerID,
		IsAvailable: true,
	}
	listing.NormalizePrice()

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}
	observability.ListingsCreated.WithLabelValues(listing.Category).Inc()
	s.decorate(listing)
	return listing, nil
}

func (s *ListingService) Get(ctx context.Context, id uint) (*models.FoodListing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(listing)
	return listing, nil
}

func (s *ListingService) List(ctx context.Context, filter models.ListingFilter) ([]models.FoodListing, error) {
	listings, err := s.listings.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.decorateAll(listings), nil
}

func (s *ListingService) ListByOwner(ctx context.Context, ownerID uint) ([]models.FoodListing, error) {
	listings, err := s.listings.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.decorateAll(listings), nil
}

// Nearby returns available listings within radiusKm of the point, nearest first.
func (s *ListingService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.FoodListing, error) {
	if !geo.ValidPoint(geo.Point{Lat: lat, Lng: lng}) {
		return nil, models.NewValidationError("lat must be within [-90, 90] and lng within [-180, 180]")
	}
	if radiusKm <= 0 {
		return nil, models.NewValidationError("radius must be greater than 0")
	}
	listings, err := s.listings.FindNearby(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	return s.decorateAll(listings), nil
}

// Update applies patch for the listing's owner. Other callers get FORBIDDEN
// and the listing is left unchanged.
func (s *ListingService) Update(ctx context.Context, callerID, id uint, patch models.ListingPatch) (*models.FoodListing, error) {
	if err := validate(patch); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return nil, err
	}
	listing, err := s.listings.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.decorate(listing)
	return listing, nil
}

// Delete removes the caller's listing. A listing that does not exist, or
// vanished before the delete ran, is NOT_FOUND.
func (s *ListingService) Delete(ctx context.Context, callerID, id uint) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	deleted, err := s.listings.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Listing", id)
	}
	return nil
}

func (s *ListingService) owned(ctx context.Context, callerID, id uint) (*models.FoodListing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.UserID != callerID {
		return nil, models.NewForbiddenError("Only the owner can modify this listing")
	}
	return listing, nil
}

func (s *ListingService) decorate(l *models.FoodListing) {
	l.IsExpired = l.Expired(s.now())
}

func (s *ListingService) decorateAll(listings []models.FoodListing) []models.FoodListing {
	if listings == nil {
		listings = []models.FoodListing{}
	}
	for i := range listings {
		s.decorate(&listings[i])
	}
	return listings
}
