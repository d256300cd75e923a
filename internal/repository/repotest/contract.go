// Package repotest holds the behavioral contract every repository.Store
// implementation must satisfy. Implementations call Run from their own tests.
package repotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"foodshare/internal/models"
	"foodshare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty Store for one subtest.
type Factory func(t *testing.T) *repository.Store

// Run executes the full contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Listings", func(t *testing.T) { testListings(t, newStore(t)) })
	t.Run("FindNearby", func(t *testing.T) { testFindNearby(t, newStore(t)) })
	t.Run("Messages", func(t *testing.T) { testMessages(t, newStore(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("Reviews", func(t *testing.T) { testReviews(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

func ptr[T any](v T) *T { return &v }

// MustCreateUser inserts a user with a predictable username and email.
func MustCreateUser(t *testing.T, store *repository.Store, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "hashed-" + username,
		DisplayName: username,
		Location:    "Springfield",
	}
	require.NoError(t, store.Users.Create(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

// MustCreateListing inserts a listing owned by ownerID. Coordinates are
// optional; pass nil for a listing without them.
func MustCreateListing(t *testing.T, store *repository.Store, ownerID uint, title string, lat, lng *float64) *models.FoodListing {
	t.Helper()
	l := &models.FoodListing{
		Title:       title,
		Description: title + " description",
		Price:       ptr(3.5),
		Quantity:    2,
		Category:    "produce",
		ExpiresAt:   time.Now().Add(48 * time.Hour).UTC(),
		Location:    "Springfield",
		Latitude:    lat,
		Longitude:   lng,
		UserID:      ownerID,
	}
	require.NoError(t, store.Listings.Create(context.Background(), l))
	require.NotZero(t, l.ID)
	return l
}

func testUsers(t *testing.T, store *repository.Store) {
	ctx := context.Background()
	alice := MustCreateUser(t, store, "alice")
	assert.False(t, alice.CreatedAt.IsZero())

	got, err := store.Users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	byName, err := store.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, alice.ID, byName.ID)
	assert.Equal(t, "hashed-alice", byName.Password)

	byEmail, err := store.Users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, alice.ID, byEmail.ID)

	missing, err := store.Users.GetByUsername(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = store.Users.GetByID(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	dup := &models.User{Username: "alice", Email: "other@example.com", Password: "x", DisplayName: "A"}
	err = store.Users.Create(ctx, dup)
	assert.True(t, models.IsCode(err, models.CodeValidation), "duplicate username must be a validation error, got %v", err)

	dup = &models.User{Username: "alice2", Email: "alice@example.com", Password: "x", DisplayName: "A"}
	err = store.Users.Create(ctx, dup)
	assert.True(t, models.IsCode(err, models.CodeValidation), "duplicate email must be a validation error, got %v", err)

	updated, err := store.Users.Update(ctx, alice.ID, models.UserPatch{
		DisplayName: ptr("Alice A."),
		Bio:         ptr("I bake bread"),
		Latitude:    ptr(51.5),
		Longitude:   ptr(-0.12),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", updated.DisplayName)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "I bake bread", *updated.Bio)
	assert.Equal(t, "alice", updated.Username)

	reloaded, err := store.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hashed-alice", reloaded.Password, "profile update must not touch the password")
	assert.Equal(t, "Alice A.", reloaded.DisplayName)

	_, err = store.Users.Update(ctx, 9999, models.UserPatch{DisplayName: ptr("x")})
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	bob := MustCreateUser(t, store, "bob")
	_, err = store.Users.Update(ctx, bob.ID, models.UserPatch{Email: ptr("alice@example.com")})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	all, err := store.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	deleted, err := store.Users.Delete(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Users.Delete(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testListings(t *testing.T, store *repository.Store) {
	ctx := context.Background()
	owner := MustCreateUser(t, store, "owner")
	other := MustCreateUser(t, store, "other")

	bread := MustCreateListing(t, store, owner.ID, "Sourdough bread", nil, nil)
	assert.True(t, bread.IsAvailable, "new listings are available")
	assert.False(t, bread.CreatedAt.IsZero())

	free := &models.FoodListing{
		Title:       "Free apples",
		Description: "A crate of apples",
		ImageURLs:   []string{"https://img.example.com/a.jpg"},
		Price:       ptr(4.0),
		IsFree:      true,
		Quantity:    10,
		Category:    "fruit",
		ExpiresAt:   time.Now().Add(24 * time.Hour).UTC(),
		Location:    "Market St",
		UserID:      other.ID,
	}
	require.NoError(t, store.Listings.Create(ctx, free))

	got, err := store.Listings.GetByID(ctx, free.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Price)
	assert.Equal(t, 0.0, *got.Price, "free listings are stored with price 0")
	assert.Equal(t, []string{"https://img.example.com/a.jpg"}, got.ImageURLs)
	assert.True(t, got.IsAvailable)

	_, err = store.Listings.GetByID(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	all, err := store.Listings.List(ctx, models.ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	fruit, err := store.Listings.List(ctx, models.ListingFilter{Category: "fruit"})
	require.NoError(t, err)
	require.Len(t, fruit, 1)
	assert.Equal(t, free.ID, fruit[0].ID)

	search, err := store.Listings.List(ctx, models.ListingFilter{Query: "SOURDOUGH"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, bread.ID, search[0].ID)

	mine, err := store.Listings.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, bread.ID, mine[0].ID)

	updated, err := store.Listings.Update(ctx, bread.ID, models.ListingPatch{
		IsAvailable: ptr(false),
		Quantity:    ptr(1),
	})
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)
	assert.Equal(t, 1, updated.Quantity)
	assert.Equal(t, "Sourdough bread", updated.Title)

	reread, err := store.Listings.GetByID(ctx, bread.ID)
	require.NoError(t, err)
	assert.False(t, reread.IsAvailable, "update must be visible to later reads")

	unavailable, err := store.Listings.List(ctx, models.ListingFilter{Available: ptr(false)})
	require.NoError(t, err)
	require.Len(t, unavailable, 1)
	assert.Equal(t, bread.ID, unavailable[0].ID)

	madeFree, err := store.Listings.Update(ctx, bread.ID, models.ListingPatch{IsFree: ptr(true)})
	require.NoError(t, err)
	require.NotNil(t, madeFree.Price)
	assert.Equal(t, 0.0, *madeFree.Price)

	_, err = store.Listings.Update(ctx, 9999, models.ListingPatch{Title: ptr("x")})
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	deleted, err := store.Listings.Delete(ctx, bread.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Listings.Delete(ctx, bread.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "deleting a missing listing reports absence, not an error")

	_, err = store.Listings.GetByID(ctx, bread.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func testFindNearby(t *testing.T, store *repository.Store) {
	ctx := context.Background()
	owner := MustCreateUser(t, store, "grocer")

	// Origin: central London.
	const lat, lng = 51.5074, -0.1278

	near := MustCreateListing(t, store, owner.ID, "near", ptr(51.5080), ptr(-0.1280))
	mid := MustCreateListing(t, store, owner.ID, "mid", ptr(51.5500), ptr(-0.1278))
	MustCreateListing(t, store, owner.ID, "paris", ptr(48.8566), ptr(2.3522))
	MustCreateListing(t, store, owner.ID, "no coordinates", nil, nil)
	hidden := MustCreateListing(t, store, owner.ID, "hidden", ptr(51.5075), ptr(-0.1279))
	_, err := store.Listings.Update(ctx, hidden.ID, models.ListingPatch{IsAvailable: ptr(false)})
	require.NoError(t, err)

	got, err := store.Listings.FindNearby(ctx, lat, lng, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, near.ID, got[0].ID, "nearest first")
	assert.Equal(t, mid.ID, got[1].ID)

	wide, err := store.Listings.FindNearby(ctx, lat, lng, 500)
	require.NoError(t, err)
	assert.Len(t, wide, 3)

	none, err := store.Listings.FindNearby(ctx, 0, 0, 1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testMessages(t *testing.T, store *repository.Store) {
	ctx := context.Background()
	a := MustCreateUser(t, store, "ann")
	b := MustCreateUser(t, store, "ben")
	c := MustCreateUser(t, store, "cat")

	send := func(from, to uint, content string) *models.Message {
		m := &models.Message{SenderID: from, ReceiverID: to, Content: content}
		require.NoError(t, store.Messages.Create(ctx, m))
		require.NotZero(t, m.ID)
		assert.False(t, m.IsRead)
		return m
	}

	m1 := send(a.ID, b.ID, "hi")
	m2 := send(b.ID, a.ID, "hello")
	send(c.ID, a.ID, "unrelated")
	m4 := send(a.ID, b.ID, "still there?")

	conv, err := store.Messages.Conversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, conv, 3)
	assert.Equal(t, []uint{m1.ID, m2.ID, m4.ID}, []uint{conv[0].ID, conv[1].ID, conv[2].ID})
	for i := 1; i < len(conv); i++ {
		assert.False(t, conv[i].CreatedAt.Before(conv[i-1].CreatedAt), "conversation must be non-decreasing by creation time")
	}

	reversed, err := store.Messages.Conversation(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Len(t, reversed, 3, "conversation is keyed by the unordered pair")

	forA, err := store.Messages.ListForUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, forA, 4)

	forC, err := store.Messages.ListForUser(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, forC, 1)

	read, err := store.Messages.MarkRead(ctx, m1.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.Equal(t, "hi", read.Content)

	again, err := store.Messages.MarkRead(ctx, m1.ID)
	require.NoError(t, err)
	assert.True(t, again.IsRead, "marking read is idempotent")

	got, err := store.Messages.GetByID(ctx, m1.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	_, err = store.Messages.MarkRead(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	_, err = store.Messages.GetByID(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func testTransactions(t *testing.T, store *repository.Store) {
	ctx := context.Background()
	seller := MustCreateUser(t, store, "seller")
	buyer := MustCreateUser(t, store, "buyer")
	outsider := MustCreateUser(t, store, "outsider")
	listing := MustCreateListing(t, store, seller.ID, "Soup", nil, nil)

	tx := &models.Transaction{BuyerID: buyer.ID, SellerID: seller.ID, ListingID: listing.ID, Amount: 3.5}
	require.NoError(t, store.Transactions.Create(ctx, tx))
	require.NotZero(t, tx.ID)
	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.False(t, tx.IsPaid)

	got, err := store.Transactions.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, got.Status)
	assert.Equal(t, 3.5, got.Amount)

	for _, uid := range []uint{buyer.ID, seller.ID} {
		list, err := store.Transactions.ListForUser(ctx, uid)
		require.NoError(t, err)
		require.Len(t, list, 1, fmt.Sprintf("user %d", uid))
		assert.Equal(t, tx.ID, list[0].ID)
	}
	none, err := store.Transactions.ListForUser(ctx, outsider.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	updated, err := store.Transactions.Update(ctx, tx.ID, models.TransactionPatch{
		Status: ptr("anything goes"),
		IsPaid: ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "anything goes", updated.Status)
	assert.True(t, updated.IsPaid)
	assert.Equal(t, 3.5, updated.Amount)

	reread, err := store.Transactions.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "anything goes", reread.Status)

	l, err := store.Listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, l.IsAvailable, "transactions never change listing availability")

	_, err = store.Transactions.Update(ctx, 9999, models.TransactionPatch{Status: ptr("x")})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func testReviews(t *testing.T, store *repository.Store) {
	ctx := context.Background()
	reviewer := MustCreateUser(t, store, "reviewer")
	receiver := MustCreateUser(t, store, "receiver")
	listing := MustCreateListing(t, store, receiver.ID, "Pie", nil, nil)
	otherListing := MustCreateListing(t, store, receiver.ID, "Cake", nil, nil)

	r1 := &models.Review{ReviewerID: reviewer.ID, ReceiverID: receiver.ID, ListingID: listing.ID, Rating: 5, Comment: ptr("Delicious")}
	require.NoError(t, store.Reviews.Create(ctx, r1))
	r2 := &models.Review{ReviewerID: reviewer.ID, ReceiverID: receiver.ID, ListingID: otherListing.ID, Rating: 3}
	require.NoError(t, store.Reviews.Create(ctx, r2))

	got, err := store.Reviews.GetByID(ctx, r1.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Comment)
	assert.Equal(t, "Delicious", *got.Comment)

	byReceiver, err := store.Reviews.ListByReceiver(ctx, receiver.ID)
	require.NoError(t, err)
	assert.Len(t, byReceiver, 2)

	byListing, err := store.Reviews.ListByListing(ctx, listing.ID)
	require.NoError(t, err)
	require.Len(t, byListing, 1)
	assert.Equal(t, r1.ID, byListing[0].ID)

	none, err := store.Reviews.ListByReceiver(ctx, reviewer.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = store.Reviews.GetByID(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
