package models

import (
	"time"
)

// Message is a direct message from one user to another. Only IsRead changes
// after creation, and only from false to true.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index" json:"senderId"`
	ReceiverID uint      `gorm:"not null;index" json:"receiverId"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// Involves reports whether userID sent or received the message.
func (m *Message) Involves(userID uint) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Between reports whether the message was exchanged by a and b, in either direction.
func (m *Message) Between(a, b uint) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}
