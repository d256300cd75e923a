package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"foodshare/internal/auth"
	"foodshare/internal/models"
	"foodshare/internal/repository"
	"foodshare/internal/repository/memstore"
	"foodshare/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	store := memstore.New()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBuildUser_ProducesValidAccounts(t *testing.T) {
	f := NewFactory(nil, 42)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		u := f.BuildUser()
		require.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		assert.False(t, seen[u.Username], "usernames are unique within a factory")
		seen[u.Username] = true
		require.NotNil(t, u.Latitude)
		require.NotNil(t, u.Longitude)
	}
}

func TestBuildListing_FreeListingsHaveZeroPrice(t *testing.T) {
	f := NewFactory(nil, 7)
	for i := 0; i < 100; i++ {
		l := f.BuildListing(1)
		assert.True(t, l.IsAvailable)
		assert.GreaterOrEqual(t, l.Quantity, 1)
		assert.Contains(t, categories, l.Category)
		if l.IsFree {
			require.NotNil(t, l.Price)
			assert.Zero(t, *l.Price)
		}
		assert.InDelta(t, 40.7128, *l.Latitude, 0.05)
	}
}

func TestRun(t *testing.T) {
	store := newStore(t)
	summary, err := Run(context.Background(), store, Options{Users: 4, Listings: 6, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Users)
	assert.Equal(t, 6, summary.Listings)
	assert.Equal(t, 6, summary.Messages)
	assert.Equal(t, 3, summary.Transactions)
	assert.Equal(t, 3, summary.Reviews)

	users, err := store.Users.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 4)

	stored, err := store.Users.GetByUsername(context.Background(), users[0].Username)
	require.NoError(t, err)
	ok, err := auth.CheckPassword(stored.Password, DefaultPassword)
	require.NoError(t, err)
	assert.True(t, ok)

	listings, err := store.Listings.List(context.Background(), models.ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, listings, 6)
}

func TestRun_ListingsNeedUsers(t *testing.T) {
	_, err := Run(context.Background(), newStore(t), Options{Listings: 2})
	assert.Error(t, err)
}

const samplePreset = `
seed: 3
center: {lat: 51.5074, lng: -0.1278}
spreadKm: 2
users:
  - username: alice
    email: a@x.com
    password: secret123
    displayName: Alice
  - username: bob
listings:
  - owner: alice
    title: Sourdough loaf
    category: bakery
    isFree: true
    price: 4
    expiresInHours: 12
    lat: 51.5
    lng: -0.12
random:
  users: 1
  listings: 2
`

func TestPreset_Apply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePreset), 0o600))

	preset, err := LoadPreset(path)
	require.NoError(t, err)
	require.Len(t, preset.Users, 2)

	store := newStore(t)
	summary, err := preset.Apply(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Users)
	assert.Equal(t, 3, summary.Listings)

	alice, err := store.Users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, "a@x.com", alice.Email)
	ok, err := auth.CheckPassword(alice.Password, "secret123")
	require.NoError(t, err)
	assert.True(t, ok)

	bob, err := store.Users.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, bob)

	owned, err := store.Listings.ListByOwner(context.Background(), alice.ID)
	require.NoError(t, err)
	var loaf *models.FoodListing
	for i := range owned {
		if owned[i].Title == "Sourdough loaf" {
			loaf = &owned[i]
		}
	}
	require.NotNil(t, loaf)
	assert.Zero(t, *loaf.Price, "free preset listings are normalized")
	assert.Equal(t, 51.5, *loaf.Latitude)
}

func TestParsePreset_Rejects(t *testing.T) {
	_, err := ParsePreset([]byte("users: [{username: ''}]"))
	assert.Error(t, err)

	_, err = ParsePreset([]byte("users: [{username: a}]\nlistings: [{owner: b, title: x}]"))
	assert.Error(t, err)

	_, err = ParsePreset([]byte("users: {"))
	assert.Error(t, err)
}
