// Package repository defines the storage interface for FoodShare entities and
// its gorm-backed implementation.
//
// Lookups that miss return a NOT_FOUND *models.AppError, except the
// by-username and by-email finders, which return (nil, nil). Deletes report
// presence with a bool. Nothing cascades across entities.
package repository

import (
	"context"
	"errors"

	"foodshare/internal/models"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uint, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context) ([]models.User, error)
}

// ListingRepository defines persistence operations for food listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.FoodListing) error
	GetByID(ctx context.Context, id uint) (*models.FoodListing, error)
	List(ctx context.Context, filter models.ListingFilter) ([]models.FoodListing, error)
	ListByOwner(ctx context.Context, userID uint) ([]models.FoodListing, error)
	Update(ctx context.Context, id uint, patch models.ListingPatch) (*models.FoodListing, error)
	Delete(ctx context.Context, id uint) (bool, error)
	// FindNearby returns available listings with coordinates within radiusKm
	// of (lat, lng), nearest first.
	FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.FoodListing, error)
}

// MessageRepository defines persistence operations for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	// ListForUser returns every message the user sent or received, newest first.
	ListForUser(ctx context.Context, userID uint) ([]models.Message, error)
	// Conversation returns the messages exchanged by a and b ordered by
	// creation time, then id.
	Conversation(ctx context.Context, a, b uint) ([]models.Message, error)
	MarkRead(ctx context.Context, id uint) (*models.Message, error)
}

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	// ListForUser returns transactions where the user is buyer or seller, newest first.
	ListForUser(ctx context.Context, userID uint) ([]models.Transaction, error)
	Update(ctx context.Context, id uint, patch models.TransactionPatch) (*models.Transaction, error)
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	ListByReceiver(ctx context.Context, userID uint) ([]models.Review, error)
	ListByListing(ctx context.Context, listingID uint) ([]models.Review, error)
}

// Backend is the lifecycle of whatever sits behind a Store.
type Backend interface {
	Ping(ctx context.Context) error
	Close() error
}

// Store bundles the per-entity repositories of one backend.
type Store struct {
	Users        UserRepository
	Listings     ListingRepository
	Messages     MessageRepository
	Transactions TransactionRepository
	Reviews      ReviewRepository

	backend Backend
}

// NewStore assembles a Store. backend may be nil for stores with nothing to
// ping or release.
func NewStore(
	users UserRepository,
	listings ListingRepository,
	messages MessageRepository,
	transactions TransactionRepository,
	reviews ReviewRepository,
	backend Backend,
) *Store {
	return &Store{
		Users:        users,
		Listings:     listings,
		Messages:     messages,
		Transactions: transactions,
		Reviews:      reviews,
		backend:      backend,
	}
}

// Ping checks that the backing store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Ping(ctx)
}

// Close releases the backing store.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// ErrStoreClosed is returned by backends used after Close.
var ErrStoreClosed = errors.New("store closed")
