package models

import (
	"time"
)

// Review is a rating one user leaves for another about a listing.
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReviewerID uint      `gorm:"not null;index" json:"reviewerId"`
	ReceiverID uint      `gorm:"not null;index" json:"receiverId"`
	ListingID  uint      `gorm:"not null;index" json:"listingId"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    *string   `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Review) TableName() string {
	return "reviews"
}
