package service

import (
	"context"
	"strings"

	"foodshare/internal/models"
	"foodshare/internal/notifications"
	"foodshare/internal/observability"
	"foodshare/internal/repository"
)

type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	notifier Notifier
}

type SendMessageInput struct {
	ReceiverID uint   `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required,max=2000"`
}

func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, notifier Notifier) *MessageService {
	return &MessageService{messages: messages, users: users, notifier: orNoop(notifier)}
}

// Send stores a message from senderID. The receiver must exist.
func (s *MessageService) Send(ctx context.Context, senderID uint, in SendMessageInput) (*models.Message, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validate(in); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, in.ReceiverID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		Content:    in.Content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	observability.MessagesSent.Inc()
	notify(ctx, s.notifier, msg.ReceiverID, notifications.EventMessageCreated, msg)
	return msg, nil
}

// ListForUser returns every message userID sent or received, newest first.
func (s *MessageService) ListForUser(ctx context.Context, userID uint) ([]models.Message, error) {
	msgs, err := s.messages.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(msgs), nil
}

// Conversation returns the messages between userID and otherID, oldest first.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID uint) ([]models.Message, error) {
	msgs, err := s.messages.Conversation(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	return nonNil(msgs), nil
}

// MarkRead flags a message read for its receiver. Repeating the call is a
// no-op; anyone but the receiver gets FORBIDDEN.
func (s *MessageService) MarkRead(ctx context.Context, callerID, id uint) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.ReceiverID != callerID {
		return nil, models.NewForbiddenError("Only the receiver can mark a message as read")
	}
	if msg.IsRead {
		return msg, nil
	}
	msg, err = s.messages.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, msg.SenderID, notifications.EventMessageRead, msg)
	return msg, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
