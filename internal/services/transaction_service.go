package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"moneta/internal/billing"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/money"
	"moneta/internal/pagination"
)

// TransactionService handles transaction-related business logic.
type TransactionService struct {
	db  *gorm.DB
	now Clock
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{db: db, now: time.Now}
}

// CreateTransaction validates and persists a new transaction. Card expenses
// pass through the credit gate: the charge is admitted only if the card's
// balance for the charge's billing month, plus the full surcharge-inclusive
// amount, stays within the credit limit. The check and the insert run in one
// database transaction with the card row locked.
func (s *TransactionService) CreateTransaction(userID uint, in TransactionInput) (*models.Transaction, error) {
	if err := s.validateInput(userID, in); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		UserID:       userID,
		CategoryID:   in.CategoryID,
		Type:         in.Type,
		Description:  in.Description,
		Amount:       in.Amount,
		Date:         in.Date,
		IsRecurring:  in.IsRecurring,
		CardID:       in.CardID,
		Installments: in.Installments,
		Surcharge:    in.Surcharge,
	}
	if tx.Installments < 1 {
		tx.Installments = 1
	}
	if tx.Installments > 1 {
		end := billing.AddMonths(tx.Date, tx.Installments-1)
		tx.EndDate = &end
	}

	if tx.CardID == nil {
		if err := s.db.Create(tx).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return tx, nil
	}

	err := s.db.Transaction(func(dbtx *gorm.DB) error {
		card, err := lockUserCard(dbtx, userID, *tx.CardID)
		if err != nil {
			return err
		}
		if card.Expired(tx.Date) {
			return apperrors.ErrCardExpired
		}
		if err := checkCreditGate(dbtx, card, tx, 0); err != nil {
			return err
		}
		return dbtx.Create(tx).Error
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return tx, nil
}

func (s *TransactionService) validateInput(userID uint, in TransactionInput) error {
	if !in.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be positive")
	}
	if in.Date.After(s.now()) {
		return apperrors.ErrFutureDateNotAllowed
	}
	if in.IsRecurring && in.Installments > 1 {
		return apperrors.ErrRecurringInstallmentConflict
	}
	if in.CardID == nil {
		if in.Installments > 1 || in.Surcharge.IsPositive() {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Installments and surcharge require a credit card")
		}
	} else if in.Type != models.TransactionTypeExpense {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Only expenses can be paid with a credit card")
	}
	if in.Surcharge.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Surcharge cannot be negative")
	}
	if in.CategoryID != nil {
		if err := s.checkCategoryKind(userID, *in.CategoryID, in.Type); err != nil {
			return err
		}
	}
	return nil
}

// checkCategoryKind verifies the category belongs to the user and its kind
// matches the transaction type.
func (s *TransactionService) checkCategoryKind(userID, categoryID uint, txType models.TransactionType) error {
	var category models.Category
	err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if string(category.Kind) != string(txType) {
		return apperrors.ErrCategoryKindMismatch
	}
	return nil
}

// lockUserCard loads the card row under FOR UPDATE so concurrent charges
// against the same card serialize on the credit gate. SQLite serializes
// writers on its own and has no row-lock syntax, so the clause is only
// added on Postgres.
func lockUserCard(dbtx *gorm.DB, userID, cardID uint) (*models.CreditCard, error) {
	query := dbtx.Where("id = ? AND user_id = ?", cardID, userID)
	if dbtx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var card models.CreditCard
	err := query.First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCardNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &card, nil
}

// checkCreditGate rejects the charge if the card's balance for the charge's
// billing month plus the surcharge-inclusive total would exceed the limit.
func checkCreditGate(dbtx *gorm.DB, card *models.CreditCard, tx *models.Transaction, excludeID uint) error {
	month := billing.EffectiveBillingMonth(tx.Date, card.CloseDay)
	balance, err := cardBalance(dbtx, card, month, excludeID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := money.TotalWithSurcharge(tx.Amount, tx.Surcharge)
	prospective := balance.Add(total)
	if prospective.GreaterThan(card.CreditLimit) {
		return apperrors.CreditLimitExceeded(balance, prospective, card.CreditLimit)
	}
	return nil
}

// asAppError passes AppErrors through and wraps anything else as internal.
func asAppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// GetUserTransactions returns a filtered, paginated list of the user's
// transactions, newest first.
func (s *TransactionService) GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	query := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.CardID != nil {
		query = query.Where("card_id = ?", *filter.CardID)
	}
	if filter.Recurring != nil {
		query = query.Where("is_recurring = ?", *filter.Recurring)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	err := query.Preload("Category").Preload("Card").
		Scopes(pagination.Paginate(page)).
		Order("date DESC, id DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(transactions, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetTransactionByID returns a transaction owned by the user, with its
// category, card, and overrides loaded.
func (s *TransactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.Preload("Category").Preload("Card").Preload("Overrides").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}

// UpdateTransaction applies partial updates. Card financing fields are
// immutable; changing the amount or date of a card expense re-runs the
// credit gate against the balance without the old version of the charge.
func (s *TransactionService) UpdateTransaction(userID, transactionID uint, fields TransactionUpdate) (*models.Transaction, error) {
	tx, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	if fields.Amount != nil {
		if !fields.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be positive")
		}
		tx.Amount = *fields.Amount
	}
	if fields.Date != nil {
		if fields.Date.After(s.now()) {
			return nil, apperrors.ErrFutureDateNotAllowed
		}
		tx.Date = *fields.Date
	}
	if fields.Description != nil {
		tx.Description = *fields.Description
	}
	if fields.IsRecurring != nil {
		tx.IsRecurring = *fields.IsRecurring
	}
	if tx.IsRecurring && tx.Installments > 1 {
		return nil, apperrors.ErrRecurringInstallmentConflict
	}
	if fields.CategoryID != nil {
		if *fields.CategoryID == nil {
			tx.CategoryID = nil
		} else {
			if err := s.checkCategoryKind(userID, **fields.CategoryID, tx.Type); err != nil {
				return nil, err
			}
			tx.CategoryID = *fields.CategoryID
		}
	}
	if tx.Installments > 1 {
		end := billing.AddMonths(tx.Date, tx.Installments-1)
		tx.EndDate = &end
	}

	repriced := fields.Amount != nil || fields.Date != nil
	if tx.CardID != nil && repriced {
		err = s.db.Transaction(func(dbtx *gorm.DB) error {
			card, err := lockUserCard(dbtx, userID, *tx.CardID)
			if err != nil {
				return err
			}
			if err := checkCreditGate(dbtx, card, tx, tx.ID); err != nil {
				return err
			}
			return dbtx.Omit(clause.Associations).Save(tx).Error
		})
		if err != nil {
			return nil, asAppError(err)
		}
		return tx, nil
	}

	if err := s.db.Omit(clause.Associations).Save(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tx, nil
}

// DeleteTransaction soft-deletes a transaction and its override ledger.
func (s *TransactionService) DeleteTransaction(userID, transactionID uint) error {
	tx, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Where("transaction_id = ?", tx.ID).Delete(&models.RecurringOverride{}).Error; err != nil {
			return err
		}
		return dbtx.Delete(tx).Error
	})
	if err != nil {
		return asAppError(err)
	}
	return nil
}
