package repository

import (
	"context"
	"fmt"

	"foodshare/internal/cache"

	"gorm.io/gorm"
)

type gormBackend struct {
	db *gorm.DB
}

func (b gormBackend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (b gormBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewGormStore builds the relational Store over db. User and listing reads go
// through c when it is non-nil.
func NewGormStore(db *gorm.DB, c *cache.Cache) *Store {
	return NewStore(
		NewUserRepository(db, c),
		NewListingRepository(db, c),
		NewMessageRepository(db),
		NewTransactionRepository(db),
		NewReviewRepository(db),
		gormBackend{db: db},
	)
}
