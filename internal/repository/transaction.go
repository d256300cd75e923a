package repository

import (
	"context"

	"foodshare/internal/models"

	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository returns a gorm-backed TransactionRepository.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.Status == "" {
		tx.Status = models.TransactionStatusPending
	}
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).First(&tx, id).Error; err != nil {
		return nil, lookupError(err, "Transaction", id)
	}
	return &tx, nil
}

func (r *transactionRepository) ListForUser(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&txs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return txs, nil
}

func (r *transactionRepository) Update(ctx context.Context, id uint, patch models.TransactionPatch) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).First(&tx, id).Error; err != nil {
		return nil, lookupError(err, "Transaction", id)
	}

	if cols := patch.Columns(); len(cols) > 0 {
		if err := r.db.WithContext(ctx).Model(&tx).Updates(cols).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	patch.Apply(&tx)
	return &tx, nil
}
