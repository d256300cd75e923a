package service

import (
	"context"
	"testing"
	"time"

	"foodshare/internal/models"
	"foodshare/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soupInput() CreateListingInput {
	return CreateListingInput{
		Title:       "Leftover soup",
		Description: "Two litres of lentil soup",
		Price:       ptr(4.0),
		Category:    "prepared",
		ExpiresAt:   ptr(time.Now().Add(24 * time.Hour)),
		Location:    "Elm Street",
		Latitude:    ptr(40.0),
		Longitude:   ptr(-75.0),
	}
}

func TestListingService_Create(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	owner := repotest.MustCreateUser(t, store, "alice")
	svc := NewListingService(store.Listings)

	listing, err := svc.Create(context.Background(), owner.ID, soupInput())
	require.NoError(t, err)
	assert.Equal(t, owner.ID, listing.UserID)
	assert.True(t, listing.IsAvailable)
	assert.Equal(t, 1, listing.Quantity, "quantity defaults to one")
	assert.False(t, listing.IsExpired)

	in := soupInput()
	in.IsFree = true
	free, err := svc.Create(context.Background(), owner.ID, in)
	require.NoError(t, err)
	require.NotNil(t, free.Price)
	assert.Zero(t, *free.Price, "free listings are stored with price 0")
}

func TestListingService_Create_Validation(t *testing.T) {
	t.Parallel()
	svc := NewListingService(newStore(t).Listings)

	tests := []struct {
		name   string
		mutate func(*CreateListingInput)
		msg    string
	}{
		{"missing title", func(in *CreateListingInput) { in.Title = "  " }, "title is required"},
		{"missing expiry", func(in *CreateListingInput) { in.ExpiresAt = nil }, "expiresAt is required"},
		{"negative price", func(in *CreateListingInput) { in.Price = ptr(-1.0) }, "price must be greater than or equal to 0"},
		{"negative quantity", func(in *CreateListingInput) { in.Quantity = -2 }, "quantity must be greater than or equal to 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := soupInput()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), 1, in)
			assertCode(t, err, models.CodeValidation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestListingService_ExpiredIsComputed(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	svc := NewListingService(store.Listings)
	listing, err := svc.Create(context.Background(), 1, soupInput())
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	got, err := svc.Get(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.True(t, got.IsExpired)

	all, err := svc.List(context.Background(), models.ListingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsExpired)
}

func TestListingService_UpdateOwnerOnly(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	svc := NewListingService(store.Listings)
	listing, err := svc.Create(context.Background(), 1, soupInput())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 2, listing.ID, models.ListingPatch{Title: ptr("Stolen")})
	assertCode(t, err, models.CodeForbidden)

	unchanged, err := svc.Get(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leftover soup", unchanged.Title)

	updated, err := svc.Update(context.Background(), 1, listing.ID, models.ListingPatch{
		IsFree:      ptr(true),
		IsAvailable: ptr(false),
	})
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)
	assert.Zero(t, *updated.Price)

	_, err = svc.Update(context.Background(), 1, listing.ID, models.ListingPatch{Quantity: ptr(0)})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.Update(context.Background(), 1, 404, models.ListingPatch{Title: ptr("x")})
	assertCode(t, err, models.CodeNotFound)
}

func TestListingService_Delete(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	svc := NewListingService(store.Listings)
	listing, err := svc.Create(context.Background(), 1, soupInput())
	require.NoError(t, err)

	assertCode(t, svc.Delete(context.Background(), 2, listing.ID), models.CodeForbidden)
	_, err = svc.Get(context.Background(), listing.ID)
	require.NoError(t, err, "a rejected delete leaves the listing in place")

	require.NoError(t, svc.Delete(context.Background(), 1, listing.ID))
	assertCode(t, svc.Delete(context.Background(), 1, listing.ID), models.CodeNotFound)
}

func TestListingService_Nearby(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	svc := NewListingService(store.Listings)

	near, err := svc.Create(context.Background(), 1, soupInput())
	require.NoError(t, err)

	noCoords := soupInput()
	noCoords.Latitude, noCoords.Longitude = nil, nil
	_, err = svc.Create(context.Background(), 1, noCoords)
	require.NoError(t, err)

	hidden, err := svc.Create(context.Background(), 1, soupInput())
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), 1, hidden.ID, models.ListingPatch{IsAvailable: ptr(false)})
	require.NoError(t, err)

	got, err := svc.Nearby(context.Background(), 40.01, -75.0, DefaultRadiusKm)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)

	_, err = svc.Nearby(context.Background(), 40, -75, 0)
	assertCode(t, err, models.CodeValidation)
	_, err = svc.Nearby(context.Background(), 95, -75, 5)
	assertCode(t, err, models.CodeValidation)

	none, err := svc.ListByOwner(context.Background(), 77)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
