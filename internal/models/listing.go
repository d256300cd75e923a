package models

import (
	"encoding/json"
	"strings"
	"time"
)

// FoodListing is a food item offered by its owner.
type FoodListing struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	ImageURLs   []string  `gorm:"serializer:json;type:text" json:"imageUrls"`
	Price       *float64  `json:"price"`
	IsFree      bool      `gorm:"not null;default:false" json:"isFree"`
	Quantity    int       `gorm:"not null;default:1" json:"quantity"`
	PortionSize *string   `json:"portionSize"`
	Category    string    `gorm:"not null;index" json:"category"`
	Ingredients *string   `gorm:"type:text" json:"ingredients"`
	Allergens   *string   `gorm:"type:text" json:"allergens"`
	ExpiresAt   time.Time `gorm:"not null" json:"expiresAt"`
	Location    string    `gorm:"not null" json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	IsAvailable bool      `gorm:"not null;default:true" json:"isAvailable"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	// IsExpired is computed when the listing is served; it is never stored.
	IsExpired bool `gorm:"-" json:"isExpired"`
}

// TableName specifies the table name for GORM
func (FoodListing) TableName() string {
	return "food_listings"
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l *FoodListing) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Expired compares ExpiresAt against now.
func (l *FoodListing) Expired(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}

// NormalizePrice zeroes the price of free listings.
func (l *FoodListing) NormalizePrice() {
	if l.IsFree {
		zero := 0.0
		l.Price = &zero
	}
}

// ListingFilter narrows List results. Zero values disable a filter.
type ListingFilter struct {
	Category  string
	Available *bool
	Query     string
}

// IsZero reports whether the filter keeps every listing.
func (f ListingFilter) IsZero() bool {
	return f.Category == "" && f.Available == nil && strings.TrimSpace(f.Query) == ""
}

// Matches reports whether l passes every set filter. Query matches a
// case-insensitive substring of the title or description.
func (f ListingFilter) Matches(l *FoodListing) bool {
	if f.Category != "" && l.Category != f.Category {
		return false
	}
	if f.Available != nil && l.IsAvailable != *f.Available {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Query))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Title), term) ||
		strings.Contains(strings.ToLower(l.Description), term)
}

// ListingPatch lists the listing fields an owner may change.
type ListingPatch struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	ImageURLs   *[]string  `json:"imageUrls,omitempty" validate:"omitempty,max=10,dive,max=2048"`
	Price       *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	IsFree      *bool      `json:"isFree,omitempty"`
	Quantity    *int       `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	PortionSize *string    `json:"portionSize,omitempty" validate:"omitempty,max=100"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,min=1,max=50"`
	Ingredients *string    `json:"ingredients,omitempty" validate:"omitempty,max=2000"`
	Allergens   *string    `json:"allergens,omitempty" validate:"omitempty,max=1000"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,max=255"`
	Latitude    *float64   `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64   `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	IsAvailable *bool      `json:"isAvailable,omitempty"`
}

// Apply merges the patch into l and re-applies price normalization.
func (p ListingPatch) Apply(l *FoodListing) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.ImageURLs != nil {
		l.ImageURLs = append([]string(nil), (*p.ImageURLs)...)
	}
	if p.Price != nil {
		price := *p.Price
		l.Price = &price
	}
	if p.IsFree != nil {
		l.IsFree = *p.IsFree
	}
	if p.Quantity != nil {
		l.Quantity = *p.Quantity
	}
	if p.PortionSize != nil {
		l.PortionSize = p.PortionSize
	}
	if p.Category != nil {
		l.Category = *p.Category
	}
	if p.Ingredients != nil {
		l.Ingredients = p.Ingredients
	}
	if p.Allergens != nil {
		l.Allergens = p.Allergens
	}
	if p.ExpiresAt != nil {
		l.ExpiresAt = *p.ExpiresAt
	}
	if p.Location != nil {
		l.Location = *p.Location
	}
	if p.Latitude != nil {
		l.Latitude = p.Latitude
	}
	if p.Longitude != nil {
		l.Longitude = p.Longitude
	}
	if p.IsAvailable != nil {
		l.IsAvailable = *p.IsAvailable
	}
	l.NormalizePrice()
}

// Columns returns the column/value map gorm uses for a partial update.
// currentlyFree is the stored isFree; when the effective value is true the
// price column is written as 0 whenever the patch touches price or isFree.
func (p ListingPatch) Columns(currentlyFree bool) map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.ImageURLs != nil {
		// map updates skip the field serializer, so encode like it would
		raw, _ := json.Marshal(*p.ImageURLs)
		cols["image_urls"] = string(raw)
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.IsFree != nil {
		cols["is_free"] = *p.IsFree
	}
	if p.Quantity != nil {
		cols["quantity"] = *p.Quantity
	}
	if p.PortionSize != nil {
		cols["portion_size"] = *p.PortionSize
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.Ingredients != nil {
		cols["ingredients"] = *p.Ingredients
	}
	if p.Allergens != nil {
		cols["allergens"] = *p.Allergens
	}
	if p.ExpiresAt != nil {
		cols["expires_at"] = *p.ExpiresAt
	}
	if p.Location != nil {
		cols["location"] = *p.Location
	}
	if p.Latitude != nil {
		cols["latitude"] = *p.Latitude
	}
	if p.Longitude != nil {
		cols["longitude"] = *p.Longitude
	}
	if p.IsAvailable != nil {
		cols["is_available"] = *p.IsAvailable
	}

	free := currentlyFree
	if p.IsFree != nil {
		free = *p.IsFree
	}
	if free && (p.IsFree != nil || p.Price != nil) {
		cols["price"] = 0.0
	}
	return cols
}
