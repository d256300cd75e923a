// Package seed creates demo data for development databases.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodshare/internal/auth"
	"foodshare/internal/models"
	"foodshare/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "password123"

var categories = []string{"produce", "bakery", "dairy", "prepared", "pantry", "frozen"}

// Factory builds domain entities and persists them through a Store.
type Factory struct {
	store  *repository.Store
	faker  *gofakeit.Faker
	center Point
	spread float64
	now    func() time.Time

	passwordHash string
	sequence     int
}

// Point is a seed-local coordinate pair.
type Point struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(store *repository.Store, seed int64) *Factory {
	return &Factory{
		store:  store,
		faker:  gofakeit.New(seed),
		center: Point{Lat: 40.7128, Lng: -74.0060},
		spread: 0.05,
		now:    time.Now,
	}
}

// Around places generated listings within spreadDeg degrees of center.
func (f *Factory) Around(center Point, spreadDeg float64) *Factory {
	f.center = center
	if spreadDeg > 0 {
		f.spread = spreadDeg
	}
	return f
}

func (f *Factory) hash(password string) (string, error) {
	if password != DefaultPassword {
		return auth.HashPassword(password)
	}
	if f.passwordHash == "" {
		h, err := auth.HashPassword(DefaultPassword)
		if err != nil {
			return "", err
		}
		f.passwordHash = h
	}
	return f.passwordHash, nil
}

// BuildUser returns an unsaved user with a plaintext DefaultPassword.
func (f *Factory) BuildUser() *models.User {
	f.sequence++
	first := f.faker.FirstName()
	last := f.faker.LastName()
	username := strings.ToLower(fmt.Sprintf("%s%s%d", first[:1], last, f.sequence))
	username = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, username)

	bio := f.faker.Sentence(10)
	avatar := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID())
	lat, lng := f.jitter()
	return &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    DefaultPassword,
		DisplayName: first + " " + last,
		Location:    f.faker.City(),
		Latitude:    &lat,
		Longitude:   &lng,
		Bio:         &bio,
		Avatar:      &avatar,
	}
}

// CreateUser persists a generated user. Overrides run before the password
// is hashed, so they may set a plaintext password.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser()
	for _, override := range overrides {
		override(user)
	}
	hash, err := f.hash(user.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hash
	if err := f.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildListing returns an unsaved listing owned by ownerID.
func (f *Factory) BuildListing(ownerID uint) *models.FoodListing {
	title := f.foodName()
	lat, lng := f.jitter()
	isFree := f.faker.Number(1, 100) <= 40

	listing := &models.FoodListing{
		Title:       title,
		Description: f.faker.Sentence(12),
		ImageURLs:   []string{fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID())},
		IsFree:      isFree,
		Quantity:    f.faker.Number(1, 8),
		Category:    f.faker.RandomString(categories),
		ExpiresAt:   f.now().Add(time.Duration(f.faker.Number(6, 96)) * time.Hour).UTC(),
		Location:    f.faker.Street(),
		Latitude:    &lat,
		Longitude:   &lng,
		UserID:      ownerID,
		IsAvailable: true,
	}
	if !isFree {
		price := float64(f.faker.Number(50, 1500)) / 100
		listing.Price = &price
	}
	if f.faker.Bool() {
		allergens := f.faker.RandomString([]string{"gluten", "nuts", "dairy", "eggs", "soy"})
		listing.Allergens = &allergens
	}
	listing.NormalizePrice()
	return listing
}

// CreateListing persists a generated listing.
func (f *Factory) CreateListing(ctx context.Context, ownerID uint, overrides ...func(*models.FoodListing)) (*models.FoodListing, error) {
	listing := f.BuildListing(ownerID)
	for _, override := range overrides {
		override(listing)
	}
	listing.NormalizePrice()
	if err := f.store.Listings.Create(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// CreateMessage persists a short message from sender to receiver.
func (f *Factory) CreateMessage(ctx context.Context, senderID, receiverID uint) (*models.Message, error) {
	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    f.faker.Question(),
	}
	if err := f.store.Messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// CreateTransaction persists a pending transaction for listing.
func (f *Factory) CreateTransaction(ctx context.Context, buyerID uint, listing *models.FoodListing) (*models.Transaction, error) {
	tx := &models.Transaction{
		BuyerID:   buyerID,
		SellerID:  listing.UserID,
		ListingID: listing.ID,
		Status:    models.TransactionStatusPending,
	}
	if listing.Price != nil {
		tx.Amount = *listing.Price
	}
	if err := f.store.Transactions.Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// CreateReview persists a review of listing's owner.
func (f *Factory) CreateReview(ctx context.Context, reviewerID uint, listing *models.FoodListing) (*models.Review, error) {
	comment := f.faker.Sentence(8)
	review := &models.Review{
		ReviewerID: reviewerID,
		ReceiverID: listing.UserID,
		ListingID:  listing.ID,
		Rating:     f.faker.Number(3, 5),
		Comment:    &comment,
	}
	if err := f.store.Reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (f *Factory) foodName() string {
	switch f.faker.Number(0, 3) {
	case 0:
		return "Fresh " + strings.ToLower(f.faker.Fruit())
	case 1:
		return "Garden " + strings.ToLower(f.faker.Vegetable())
	case 2:
		return f.faker.Dinner()
	default:
		return f.faker.Dessert()
	}
}

func (f *Factory) jitter() (float64, float64) {
	return f.center.Lat + f.faker.Float64Range(-f.spread, f.spread),
		f.center.Lng + f.faker.Float64Range(-f.spread, f.spread)
}
