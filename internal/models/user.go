// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a FoodShare account. Password holds the bcrypt hash and is
// never serialized.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	DisplayName string    `gorm:"not null" json:"displayName"`
	Location    string    `gorm:"not null;default:''" json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Bio         *string   `gorm:"type:text" json:"bio"`
	Avatar      *string   `json:"avatar"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// UserPatch lists the profile fields a user may change. The password is not
// part of the set.
type UserPatch struct {
	Email       *string  `json:"email,omitempty" validate:"omitempty,email,max=255"`
	DisplayName *string  `json:"displayName,omitempty" validate:"omitempty,min=1,max=100"`
	Location    *string  `json:"location,omitempty" validate:"omitempty,max=255"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Bio         *string  `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Avatar      *string  `json:"avatar,omitempty" validate:"omitempty,max=2048"`
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	if p.Latitude != nil {
		u.Latitude = p.Latitude
	}
	if p.Longitude != nil {
		u.Longitude = p.Longitude
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.Avatar != nil {
		u.Avatar = p.Avatar
	}
}

// Columns returns the column/value map gorm uses for a partial update.
func (p UserPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.DisplayName != nil {
		cols["display_name"] = *p.DisplayName
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
	if p.Bio != nil {
		cols["bio"] = *p.Bio
	}
	if p.Avatar != nil {
		cols["avatar"] = *p.Avatar
	}
	return cols
}
