package service

import (
	"context"
	"strconv"

	"foodshare/internal/models"
	"foodshare/internal/observability"
	"foodshare/internal/repository"
)

type ReviewService struct {
	reviews  repository.ReviewRepository
	users    repository.UserRepository
	listings repository.ListingRepository
}

type CreateReviewInput struct {
	ReceiverID uint    `json:"receiverId" validate:"required"`
	ListingID  uint    `json:"listingId" validate:"required"`
	Rating     int     `json:"rating" validate:"required,gte=1,lte=5"`
	Comment    *string `json:"comment" validate:"omitempty,max=2000"`
}

func NewReviewService(
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	listings repository.ListingRepository,
) *ReviewService {
	return &ReviewService{reviews: reviews, users: users, listings: listings}
}

// Create stores a review written by reviewerID. The receiver and the listing
// must exist.
func (s *ReviewService) Create(ctx context.Context, reviewerID uint, in CreateReviewInput) (*models.Review, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if in.ReceiverID == reviewerID {
		return nil, models.NewValidationError("You cannot review yourself")
	}
	if _, err := s.users.GetByID(ctx, in.ReceiverID); err != nil {
		return nil, err
	}
	if _, err := s.listings.GetByID(ctx, in.ListingID); err != nil {
		return nil, err
	}

	review := &models.Review{
		ReviewerID: reviewerID,
		ReceiverID: in.ReceiverID,
		ListingID:  in.ListingID,
		Rating:     in.Rating,
		Comment:    in.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	observability.ReviewsCreated.WithLabelValues(strconv.Itoa(review.Rating)).Inc()
	return review, nil
}

func (s *ReviewService) ListByUser(ctx context.Context, userID uint) ([]models.Review, error) {
	reviews, err := s.reviews.ListByReceiver(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(reviews), nil
}

func (s *ReviewService) ListByListing(ctx context.Context, listingID uint) ([]models.Review, error) {
	reviews, err := s.reviews.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return nonNil(reviews), nil
}
