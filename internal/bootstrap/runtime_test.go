package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"foodshare/internal/auth"
	"foodshare/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.BcryptCost = bcrypt.MinCost
}

func testConfig(redisAddr string) *config.Config {
	return &config.Config{
		Env:             "test",
		JWTSecret:       "bootstrap-test-secret-with-enough-length",
		SessionTTLHours: 1,
		DBDriver:        config.DriverMemory,
		RedisURL:        redisAddr,
		FeatureFlags:    "uploads=on,realtime=off",
		ObjectStore:     "memory",
	}
}

func TestInitRuntime_MemoryDriver(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rt, err := InitRuntime(ctx, testConfig(mr.Addr()), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.Nil(t, rt.DB)
	assert.NotNil(t, rt.Redis)
	require.NotNil(t, rt.Store)
	assert.NoError(t, rt.Store.Ping(ctx))
	assert.True(t, rt.Flags.Enabled("uploads", 0))
	assert.False(t, rt.Flags.Enabled("realtime", 1))

	token, claims, err := rt.Tokens.Issue(7, "sam")
	require.NoError(t, err)
	require.NoError(t, rt.Tokens.Revoke(ctx, claims))
	_, err = rt.Tokens.Parse(ctx, token)
	assert.ErrorIs(t, err, auth.ErrRevokedToken)
}

func TestInitRuntime_SeedDemoOnlyWhenEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	cfg := testConfig(mr.Addr())
	cfg.DBDriver = config.DriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "foodshare.db")

	rt, err := InitRuntime(ctx, cfg, Options{SeedDemo: true})
	require.NoError(t, err)
	require.NotNil(t, rt.DB)

	users, err := rt.Store.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 8)
	require.NoError(t, rt.Close())

	// a second start against the same file keeps the existing data
	rt, err = InitRuntime(ctx, cfg, Options{SeedDemo: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	users, err = rt.Store.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 8)
}

func TestInitRuntime_RejectsUnknownObjectStore(t *testing.T) {
	cfg := testConfig("")
	cfg.RedisURL = "redis://%invalid"
	cfg.ObjectStore = "s3"

	_, err := InitRuntime(context.Background(), cfg, Options{})
	assert.ErrorContains(t, err, "object store")
}
