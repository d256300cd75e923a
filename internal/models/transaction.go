package models

import (
	"time"
)

// Conventional transaction statuses. Status is free text; these are the
// values the client sends, not an enforced state machine.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusCancelled = "cancelled"
)

// Transaction links a buyer, a seller and a listing.
type Transaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BuyerID   uint      `gorm:"not null;index" json:"buyerId"`
	SellerID  uint      `gorm:"not null;index" json:"sellerId"`
	ListingID uint      `gorm:"not null;index" json:"listingId"`
	Status    string    `gorm:"type:varchar(32);not null;default:'pending'" json:"status"`
	Amount    float64   `gorm:"not null;default:0" json:"amount"`
	IsPaid    bool      `gorm:"not null;default:false" json:"isPaid"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}

// IsParticipant reports whether userID is the buyer or the seller.
func (t *Transaction) IsParticipant(userID uint) bool {
	return t.BuyerID == userID || t.SellerID == userID
}

// TransactionPatch lists the transaction fields a participant may change.
type TransactionPatch struct {
	Status *string  `json:"status,omitempty" validate:"omitempty,min=1,max=32"`
	Amount *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	IsPaid *bool    `json:"isPaid,omitempty"`
}

// Apply merges the patch into t.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.IsPaid != nil {
		t.IsPaid = *p.IsPaid
	}
}

// Columns returns the column/value map gorm uses for a partial update.
func (p TransactionPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.Amount != nil {
		cols["amount"] = *p.Amount
	}
	if p.IsPaid != nil {
		cols["is_paid"] = *p.IsPaid
	}
	return cols
}
