package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%d"
	ListingKeyPrefix = "listing:%d"
)

const (
	UserTTL    = 5 * time.Minute
	ListingTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ListingKey(listingID uint) string {
	return fmt.Sprintf(ListingKeyPrefix, listingID)
}

func (c *Cache) InvalidateUser(ctx context.Context, userID uint) {
	c.Invalidate(ctx, UserKey(userID))
}

func (c *Cache) InvalidateListing(ctx context.Context, listingID uint) {
	c.Invalidate(ctx, ListingKey(listingID))
}
