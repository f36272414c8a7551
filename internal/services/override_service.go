package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/billing"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// OverrideService maintains the per-month amount ledger of recurring
// transactions.
type OverrideService struct {
	db *gorm.DB
}

// NewOverrideService creates a new OverrideService.
func NewOverrideService(db *gorm.DB) *OverrideService {
	return &OverrideService{db: db}
}

func (s *OverrideService) findRecurring(userID, transactionID uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !tx.IsRecurring {
		return nil, apperrors.ErrOverrideNotRecurring
	}
	return &tx, nil
}

// UpsertOverride records that the recurring transaction charges the given
// amount from the given month onward. One override exists per transaction
// and month: writing the same month again replaces the amount instead of
// adding a second row.
func (s *OverrideService) UpsertOverride(userID, transactionID uint, month billing.Month, amount decimal.Decimal) (*models.RecurringOverride, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be positive")
	}

	tx, err := s.findRecurring(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if month.Before(tx.OriginMonth()) {
		return nil, apperrors.ErrInvalidOverrideDate
	}

	var override models.RecurringOverride
	err = s.db.Where("transaction_id = ? AND year = ? AND month = ?",
		tx.ID, month.Year, int(month.Month)).First(&override).Error
	switch {
	case err == nil:
		override.Amount = amount
		if err := s.db.Save(&override).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		override = models.RecurringOverride{
			TransactionID: tx.ID,
			Year:          month.Year,
			Month:         int(month.Month),
			Amount:        amount,
		}
		if err := s.db.Create(&override).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &override, nil
}

// GetOverrides lists the transaction's overrides in chronological order.
func (s *OverrideService) GetOverrides(userID, transactionID uint) ([]models.RecurringOverride, error) {
	tx, err := s.findRecurring(userID, transactionID)
	if err != nil {
		return nil, err
	}

	var overrides []models.RecurringOverride
	err = s.db.Where("transaction_id = ?", tx.ID).
		Order("year ASC, month ASC").
		Find(&overrides).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return overrides, nil
}

// EffectiveAmount resolves what the recurring transaction charges in the
// month containing asOf: an override for exactly that month wins, otherwise
// the latest earlier override, otherwise the base amount.
func (s *OverrideService) EffectiveAmount(userID, transactionID uint, asOf time.Time) (decimal.Decimal, error) {
	tx, err := s.findRecurring(userID, transactionID)
	if err != nil {
		return decimal.Zero, err
	}

	var overrides []models.RecurringOverride
	if err := s.db.Where("transaction_id = ?", tx.ID).Find(&overrides).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return resolveEffectiveAmount(tx.Amount, overrides, billing.MonthOf(asOf)), nil
}
