// Package bootstrap wires the process-wide dependencies selected by configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"foodshare/internal/auth"
	"foodshare/internal/cache"
	"foodshare/internal/config"
	"foodshare/internal/database"
	"foodshare/internal/featureflags"
	"foodshare/internal/middleware"
	"foodshare/internal/notifications"
	"foodshare/internal/repository"
	"foodshare/internal/repository/memstore"
	"foodshare/internal/seed"
	"foodshare/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty store with generated demo data.
	SeedDemo bool
}

// Runtime holds the long-lived dependencies shared by the API process and
// the admin tooling.
type Runtime struct {
	Config   *config.Config
	DB       *gorm.DB      // nil with DB_DRIVER=memory
	Redis    *redis.Client // nil when redis is unreachable
	Store    *repository.Store
	Tokens   *auth.TokenManager
	Objects  storage.ObjectStore
	Flags    *featureflags.Manager
	Notifier *notifications.Notifier
	Hub      *notifications.Hub
}

// InitRuntime connects the configured backends. Redis is optional; without it
// caching is disabled, revocations and notifications stay in-process.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{
		Config: cfg,
		Redis:  cache.Connect(cfg.RedisURL),
		Flags:  featureflags.NewManager(cfg.FeatureFlags),
		Hub:    notifications.NewHub(),
	}

	store, db, err := OpenStore(ctx, cfg, rt.Redis)
	if err != nil {
		rt.closeRedis()
		return nil, err
	}
	rt.Store, rt.DB = store, db

	rt.Objects, err = storage.New(ctx, cfg)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("object store: %w", err)
	}

	revocations := auth.NewMemoryRevocations()
	if rt.Redis != nil {
		revocations = auth.NewRedisRevocations(rt.Redis)
	}
	rt.Tokens = auth.NewTokenManager(cfg.JWTSecret, sessionTTL(cfg), revocations)
	rt.Notifier = notifications.NewNotifier(rt.Redis)

	if opts.SeedDemo {
		if err := seedIfEmpty(ctx, rt.Store); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return rt, nil
}

// OpenStore builds the repository implementation selected by DB_DRIVER. The
// returned *gorm.DB is nil for the in-memory store.
func OpenStore(ctx context.Context, cfg *config.Config, rdb *redis.Client) (*repository.Store, *gorm.DB, error) {
	if cfg.DBDriver == config.DriverMemory {
		middleware.Logger.Warn("using in-memory storage; data is lost on restart")
		return memstore.New(), nil, nil
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	return repository.NewGormStore(db, cache.New(rdb)), db, nil
}

func sessionTTL(cfg *config.Config) time.Duration {
	if cfg.SessionTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(cfg.SessionTTLHours) * time.Hour
}

func seedIfEmpty(ctx context.Context, store *repository.Store) error {
	users, err := store.Users.List(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}
	summary, err := seed.Run(ctx, store, seed.Options{Users: 8, Listings: 20, Seed: 1})
	if err != nil {
		return err
	}
	middleware.Logger.Info("demo data seeded", slog.String("summary", summary.String()))
	return nil
}

// Close releases the store and the redis client.
func (r *Runtime) Close() error {
	var errs []error
	if r.Store != nil {
		if err := r.Store.Close(); err != nil && !errors.Is(err, repository.ErrStoreClosed) {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if err := r.closeRedis(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}
	return errors.Join(errs...)
}

func (r *Runtime) closeRedis() error {
	if r.Redis == nil {
		return nil
	}
	err := r.Redis.Close()
	r.Redis = nil
	return err
}
