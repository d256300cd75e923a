package repository

import (
	"context"
	"sort"
	"strings"

	"foodshare/internal/cache"
	"foodshare/internal/geo"
	"foodshare/internal/models"
	"foodshare/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type listingRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewListingRepository returns a gorm-backed ListingRepository. c may be nil.
func NewListingRepository(db *gorm.DB, c *cache.Cache) ListingRepository {
	return &listingRepository{db: db, cache: c}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.FoodListing) error {
	listing.NormalizePrice()
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (listing *models.FoodListing, err error) {
	ctx, span := observability.StartStoreSpan(ctx, "food_listings", "get",
		attribute.Int64("listing.id", int64(id)))
	defer func() { observability.EndSpan(span, err) }()

	var l models.FoodListing
	err = r.cache.Aside(ctx, cache.ListingKey(id), &l, cache.ListingTTL, func() error {
		if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
			return lookupError(err, "Listing", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepository) List(ctx context.Context, filter models.ListingFilter) ([]models.FoodListing, error) {
	q := r.db.WithContext(ctx).Model(&models.FoodListing{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Available != nil {
		q = q.Where("is_available = ?", *filter.Available)
	}
	if term := strings.TrimSpace(filter.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var listings []models.FoodListing
	if err := q.Order("created_at DESC, id DESC").Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) ListByOwner(ctx context.Context, userID uint) ([]models.FoodListing, error) {
	var listings []models.FoodListing
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) Update(ctx context.Context, id uint, patch models.ListingPatch) (*models.FoodListing, error) {
	var listing models.FoodListing
	if err := r.db.WithContext(ctx).First(&listing, id).Error; err != nil {
		return nil, lookupError(err, "Listing", id)
	}

	if cols := patch.Columns(listing.IsFree); len(cols) > 0 {
		if err := r.db.WithContext(ctx).Model(&models.FoodListing{ID: id}).Updates(cols).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		r.cache.InvalidateListing(ctx, id)
	}

	var updated models.FoodListing
	if err := r.db.WithContext(ctx).First(&updated, id).Error; err != nil {
		return nil, lookupError(err, "Listing", id)
	}
	return &updated, nil
}

func (r *listingRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.FoodListing{}, id)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	r.cache.InvalidateListing(ctx, id)
	return res.RowsAffected > 0, nil
}

// FindNearby narrows candidates in SQL and measures great-circle distance in Go.
func (r *listingRepository) FindNearby(ctx context.Context, lat, lng, radiusKm float64) (nearby []models.FoodListing, err error) {
	ctx, span := observability.StartStoreSpan(ctx, "food_listings", "find_nearby",
		attribute.Float64("geo.radius_km", radiusKm))
	defer func() { observability.EndSpan(span, err) }()

	var candidates []models.FoodListing
	if err := r.db.WithContext(ctx).
		Where("is_available = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Find(&candidates).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return FilterNearby(candidates, lat, lng, radiusKm), nil
}

// FilterNearby keeps available listings with coordinates inside the radius,
// sorted by distance (ties broken by id).
func FilterNearby(candidates []models.FoodListing, lat, lng, radiusKm float64) []models.FoodListing {
	origin := geo.Point{Lat: lat, Lng: lng}

	type hit struct {
		listing models.FoodListing
		dist    float64
	}
	hits := make([]hit, 0, len(candidates))
	for _, l := range candidates {
		if !l.IsAvailable || !l.HasCoordinates() {
			continue
		}
		d := geo.Distance(origin, geo.Point{Lat: *l.Latitude, Lng: *l.Longitude})
		if d <= radiusKm {
			hits = append(hits, hit{listing: l, dist: d})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist == hits[j].dist {
			return hits[i].listing.ID < hits[j].listing.ID
		}
		return hits[i].dist < hits[j].dist
	})

	out := make([]models.FoodListing, len(hits))
	for i, h := range hits {
		out[i] = h.listing
	}
	return out
}
