// Package service implements FoodShare's business operations on top of the
// storage interface: registration and login, listings, messages,
// transactions and reviews.
//
// Services return *models.AppError values; the HTTP layer maps their codes to
// statuses.
package service

import (
	"context"
	"errors"

	"foodshare/internal/middleware"
	"foodshare/internal/models"
	"foodshare/internal/notifications"
	"foodshare/internal/validation"
)

// Notifier receives the realtime events services emit. Delivery is best effort.
type Notifier interface {
	PublishUser(ctx context.Context, userID uint, event notifications.Event) error
}

type noopNotifier struct{}

func (noopNotifier) PublishUser(context.Context, uint, notifications.Event) error { return nil }

func orNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func notify(ctx context.Context, n Notifier, userID uint, eventType string, payload any) {
	if err := n.PublishUser(ctx, userID, notifications.NewEvent(eventType, payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			"event_type", eventType, "recipient_id", userID, "error", err)
	}
}

// validate runs struct validation and wraps the first violation.
func validate(in any) error {
	if err := validation.Struct(in); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// wrapInternal passes AppErrors through and classifies anything else as internal.
func wrapInternal(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
