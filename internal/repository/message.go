package repository

import (
	"context"

	"foodshare/internal/models"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a gorm-backed MessageRepository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	msg.IsRead = false
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, lookupError(err, "Message", id)
	}
	return &msg, nil
}

func (r *messageRepository) ListForUser(ctx context.Context, userID uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

func (r *messageRepository) Conversation(ctx context.Context, a, b uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// MarkRead only ever sets is_read to true, so repeating it is harmless.
func (r *messageRepository) MarkRead(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, lookupError(err, "Message", id)
	}
	if msg.IsRead {
		return &msg, nil
	}

	if err := r.db.WithContext(ctx).Model(&msg).Update("is_read", true).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	msg.IsRead = true
	return &msg, nil
}
