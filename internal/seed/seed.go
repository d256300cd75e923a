package seed

import (
	"context"
	"fmt"

	"foodshare/internal/middleware"
	"foodshare/internal/models"
	"foodshare/internal/repository"
)

// Options sizes a generated data set.
type Options struct {
	Users    int
	Listings int
	Seed     int64
}

// Summary counts what a seeding run created.
type Summary struct {
	Users        int `json:"users"`
	Listings     int `json:"listings"`
	Messages     int `json:"messages"`
	Transactions int `json:"transactions"`
	Reviews      int `json:"reviews"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d listings, %d messages, %d transactions, %d reviews",
		s.Users, s.Listings, s.Messages, s.Transactions, s.Reviews)
}

// Run generates opts.Users users and opts.Listings listings spread over them,
// then links pairs of users with a message, a transaction and a review.
func Run(ctx context.Context, store *repository.Store, opts Options) (*Summary, error) {
	return NewFactory(store, opts.Seed).Generate(ctx, opts.Users, opts.Listings, nil)
}

// Generate creates the random part of a data set. existing users also own
// and buy listings.
func (f *Factory) Generate(ctx context.Context, numUsers, numListings int, existing []*models.User) (*Summary, error) {
	summary := &Summary{}
	users := append([]*models.User(nil), existing...)

	for i := 0; i < numUsers; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return summary, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
		summary.Users++
	}
	if len(users) == 0 {
		if numListings > 0 {
			return summary, fmt.Errorf("cannot create %d listings without users", numListings)
		}
		return summary, nil
	}

	listings := make([]*models.FoodListing, 0, numListings)
	for i := 0; i < numListings; i++ {
		owner := users[i%len(users)]
		l, err := f.CreateListing(ctx, owner.ID)
		if err != nil {
			return summary, fmt.Errorf("create listing: %w", err)
		}
		listings = append(listings, l)
		summary.Listings++
	}

	if len(users) < 2 {
		return summary, nil
	}
	for i, l := range listings {
		buyer := users[(i+1)%len(users)]
		if buyer.ID == l.UserID {
			continue
		}
		if _, err := f.CreateMessage(ctx, buyer.ID, l.UserID); err != nil {
			return summary, fmt.Errorf("create message: %w", err)
		}
		summary.Messages++

		if i%2 != 0 {
			continue
		}
		if _, err := f.CreateTransaction(ctx, buyer.ID, l); err != nil {
			return summary, fmt.Errorf("create transaction: %w", err)
		}
		summary.Transactions++
		if _, err := f.CreateReview(ctx, buyer.ID, l); err != nil {
			return summary, fmt.Errorf("create review: %w", err)
		}
		summary.Reviews++
	}

	middleware.Logger.InfoContext(ctx, "seed data generated", "summary", summary.String())
	return summary, nil
}
