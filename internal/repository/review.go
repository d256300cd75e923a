package repository

import (
	"context"

	"foodshare/internal/models"

	"gorm.io/gorm"
)

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository returns a gorm-backed ReviewRepository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, lookupError(err, "Review", id)
	}
	return &review, nil
}

func (r *reviewRepository) ListByReceiver(ctx context.Context, userID uint) ([]models.Review, error) {
	return r.list(ctx, "receiver_id = ?", userID)
}

func (r *reviewRepository) ListByListing(ctx context.Context, listingID uint) ([]models.Review, error) {
	return r.list(ctx, "listing_id = ?", listingID)
}

func (r *reviewRepository) list(ctx context.Context, query string, arg any) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.WithContext(ctx).Where(query, arg).Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}
