package service

import (
	"context"
	"strings"

	"foodshare/internal/models"
	"foodshare/internal/notifications"
	"foodshare/internal/observability"
	"foodshare/internal/repository"
)

type TransactionService struct {
	transactions repository.TransactionRepository
	listings     repository.ListingRepository
	notifier     Notifier
}

type CreateTransactionInput struct {
	ListingID uint     `json:"listingId" validate:"required"`
	Status    *string  `json:"status" validate:"omitempty,min=1,max=32"`
	Amount    *float64 `json:"amount" validate:"omitempty,gte=0"`
	IsPaid    bool     `json:"isPaid"`
}

func NewTransactionService(
	transactions repository.TransactionRepository,
	listings repository.ListingRepository,
	notifier Notifier,
) *TransactionService {
	return &TransactionService{transactions: transactions, listings: listings, notifier: orNoop(notifier)}
}

// Create opens a transaction with buyerID as buyer and the listing's owner as
// seller. Status defaults to pending and amount to the listing price. The
// listing's availability is not changed, and nothing stops several
// transactions on one listing.
func (s *TransactionService) Create(ctx context.Context, buyerID uint, in CreateTransactionInput) (*models.Transaction, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.UserID == buyerID {
		return nil, models.NewValidationError("You cannot start a transaction on your own listing")
	}

	tx := &models.Transaction{
		BuyerID:   buyerID,
		SellerID:  listing.UserID,
		ListingID: listing.ID,
		Status:    models.TransactionStatusPending,
		IsPaid:    in.IsPaid,
	}
	if in.Status != nil {
		tx.Status = strings.TrimSpace(*in.Status)
	}
	switch {
	case in.Amount != nil:
		tx.Amount = *in.Amount
	case listing.Price != nil:
		tx.Amount = *listing.Price
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, err
	}
	observability.TransactionsCreated.Inc()
	notify(ctx, s.notifier, tx.SellerID, notifications.EventTransactionCreated, tx)
	return tx, nil
}

// Get returns a transaction to one of its participants.
func (s *TransactionService) Get(ctx context.Context, callerID, id uint) (*models.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tx.IsParticipant(callerID) {
		return nil, models.NewForbiddenError("Only the buyer or seller can access this transaction")
	}
	return tx, nil
}

func (s *TransactionService) ListForUser(ctx context.Context, userID uint) ([]models.Transaction, error) {
	txs, err := s.transactions.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(txs), nil
}

// Update applies patch for a participant. Status is free text, so any
// participant may move it to any value.
func (s *TransactionService) Update(ctx context.Context, callerID, id uint, patch models.TransactionPatch) (*models.Transaction, error) {
	if patch.Status != nil {
		status := strings.TrimSpace(*patch.Status)
		patch.Status = &status
	}
	if err := validate(patch); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, callerID, id); err != nil {
		return nil, err
	}
	tx, err := s.transactions.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	counterpart := tx.SellerID
	if callerID == tx.SellerID {
		counterpart = tx.BuyerID
	}
	notify(ctx, s.notifier, counterpart, notifications.EventTransactionUpdated, tx)
	return tx, nil
}
