package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"moneta/internal/billing"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/money"
	"moneta/internal/pagination"
)

// CardService handles credit-card business logic and the billing-month
// balance engine.
type CardService struct {
	db  *gorm.DB
	now Clock
}

// NewCardService creates a new CardService.
func NewCardService(db *gorm.DB) *CardService {
	return &CardService{db: db, now: time.Now}
}

func validateCardInput(in CardInput, now time.Time) error {
	if in.PaymentDay <= in.CloseDay {
		return apperrors.ErrInvalidCardDays
	}
	if !in.CreditLimit.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Credit limit must be positive")
	}
	card := models.CreditCard{ExpireDate: in.ExpireDate}
	if card.Expired(now) {
		return apperrors.ErrCardExpired
	}
	return nil
}

// CreateCard registers a new credit card for the user. The payment day must
// fall after the statement closing day and the card must not already be
// expired.
func (s *CardService) CreateCard(userID uint, in CardInput) (*models.CreditCard, error) {
	if err := validateCardInput(in, s.now()); err != nil {
		return nil, err
	}

	card := &models.CreditCard{
		UserID:      userID,
		LastFour:    in.LastFour,
		Brand:       in.Brand,
		ExpireDate:  in.ExpireDate,
		CreditLimit: in.CreditLimit,
		PaymentDay:  in.PaymentDay,
		CloseDay:    in.CloseDay,
	}
	if err := s.db.Create(card).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return card, nil
}

// GetUserCards returns a paginated list of the user's credit cards.
func (s *CardService) GetUserCards(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error) {
	page.Defaults()

	var total int64
	base := s.db.Model(&models.CreditCard{}).Where("user_id = ?", userID)
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var cards []models.CreditCard
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at DESC").Find(&cards).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(cards, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetCardByID returns a card owned by the user.
func (s *CardService) GetCardByID(userID, cardID uint) (*models.CreditCard, error) {
	return findUserCard(s.db, userID, cardID)
}

func findUserCard(db *gorm.DB, userID, cardID uint) (*models.CreditCard, error) {
	var card models.CreditCard
	err := db.Where("id = ? AND user_id = ?", cardID, userID).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCardNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &card, nil
}

// UpdateCard replaces the card's details. The closing/payment day rule is
// re-checked against the new values.
func (s *CardService) UpdateCard(userID, cardID uint, in CardInput) (*models.CreditCard, error) {
	card, err := findUserCard(s.db, userID, cardID)
	if err != nil {
		return nil, err
	}
	if err := validateCardInput(in, s.now()); err != nil {
		return nil, err
	}

	card.LastFour = in.LastFour
	card.Brand = in.Brand
	card.ExpireDate = in.ExpireDate
	card.CreditLimit = in.CreditLimit
	card.PaymentDay = in.PaymentDay
	card.CloseDay = in.CloseDay

	if err := s.db.Save(card).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return card, nil
}

// DeleteCard soft-deletes a card. Its expenses survive as historical records
// but the card no longer accepts new charges.
func (s *CardService) DeleteCard(userID, cardID uint) error {
	card, err := findUserCard(s.db, userID, cardID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(card).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBalance computes the card's statement balance for the given billing
// month and the credit remaining against the limit.
func (s *CardService) GetBalance(userID, cardID uint, month billing.Month) (*CardBalance, error) {
	card, err := findUserCard(s.db, userID, cardID)
	if err != nil {
		return nil, err
	}

	balance, err := cardBalance(s.db, card, month, 0)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &CardBalance{
		CardID:          card.ID,
		Month:           month,
		Balance:         balance,
		AvailableCredit: money.Round(card.CreditLimit.Sub(balance)),
		CreditLimit:     card.CreditLimit,
	}, nil
}

// GetCardExpenses lists the card's expenses purchased within the given
// calendar month, newest first.
func (s *CardService) GetCardExpenses(userID, cardID uint, month billing.Month, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	card, err := findUserCard(s.db, userID, cardID)
	if err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).
		Where("card_id = ? AND type = ?", card.ID, models.TransactionTypeExpense).
		Where("date >= ? AND date <= ?", month.FirstDay(), month.LastDay())

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Transaction
	err = base.Preload("Category").Preload("Overrides").
		Scopes(pagination.Paginate(page)).
		Order("date DESC, id DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(expenses, page.Page, page.PageSize, total)
	return &resp, nil
}
