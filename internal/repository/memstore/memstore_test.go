package memstore

import (
	"context"
	"testing"
	"time"

	"foodshare/internal/models"
	"foodshare/internal/repository"
	"foodshare/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) *repository.Store { return New() })
}

func TestMemStore_InstancesAreIsolated(t *testing.T) {
	a, b := New(), New()
	ua := repotest.MustCreateUser(t, a, "alice")
	ub := repotest.MustCreateUser(t, b, "alice")

	assert.Equal(t, uint(1), ua.ID)
	assert.Equal(t, uint(1), ub.ID)
}

func TestMemStore_ReturnsCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	owner := repotest.MustCreateUser(t, store, "owner")
	listing := repotest.MustCreateListing(t, store, owner.ID, "Plums", nil, nil)

	got, err := store.Listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	*got.Price = 99
	got.Title = "mutated"

	again, err := store.Listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plums", again.Title)
	assert.Equal(t, 3.5, *again.Price)
}

func TestMemStore_ConversationTiesBreakByID(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := New(WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		m := &models.Message{SenderID: 1, ReceiverID: 2, Content: "x"}
		require.NoError(t, store.Messages.Create(ctx, m))
		ids = append(ids, m.ID)
	}

	conv, err := store.Messages.Conversation(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, conv, 3)
	for i := range ids {
		assert.Equal(t, ids[i], conv[i].ID)
		assert.Equal(t, fixed, conv[i].CreatedAt)
	}
}

func TestMemStore_ClosedAndCancelled(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Users.List(ctx)
	assert.True(t, models.IsCode(err, models.CodeInternal))

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Ping(context.Background()), repository.ErrStoreClosed)
	_, err = store.Listings.List(context.Background(), models.ListingFilter{})
	assert.True(t, models.IsCode(err, models.CodeInternal))
}
