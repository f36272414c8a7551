package models

import (
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/billing"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents an income or expense entry. Expenses may be
// financed with a credit card, in which case Installments and Surcharge
// describe how the charge is amortized across billing months. Recurring
// transactions repeat monthly from Date until EndDate (or indefinitely);
// their per-month amounts can be adjusted through RecurringOverride rows
// without touching the stored Amount.
type Transaction struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	CategoryID  *uint           `json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	IsRecurring bool            `gorm:"default:false" json:"is_recurring"`
	EndDate     *time.Time      `json:"end_date,omitempty"`

	// Credit card financing (expenses only)
	CardID       *uint           `gorm:"index" json:"card_id,omitempty"`
	Installments int             `gorm:"default:1" json:"installments"`
	Surcharge    decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"surcharge"`

	Category  *Category           `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Card      *CreditCard         `gorm:"foreignKey:CardID" json:"card,omitempty"`
	Overrides []RecurringOverride `gorm:"foreignKey:TransactionID" json:"overrides,omitempty"`
}

// PaidWithCard reports whether the transaction is a credit card expense.
func (t *Transaction) PaidWithCard() bool {
	return t.CardID != nil
}

// OriginMonth returns the calendar month the transaction starts in.
func (t *Transaction) OriginMonth() billing.Month {
	return billing.MonthOf(t.Date)
}
