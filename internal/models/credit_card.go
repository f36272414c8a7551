package models

import (
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/billing"
)

// CreditCard represents a user's credit card. CloseDay is the day of the
// month the statement closes; PaymentDay is the day the bill is due and
// must fall after the closing day.
type CreditCard struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	LastFour    string          `gorm:"size:4;not null" json:"last_four"`
	Brand       string          `gorm:"not null" json:"brand"`
	ExpireDate  time.Time       `gorm:"not null" json:"expire_date"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"credit_limit"`
	PaymentDay  int             `gorm:"not null" json:"payment_day"`
	CloseDay    int             `gorm:"not null" json:"close_day"`

	Expenses []Transaction `gorm:"foreignKey:CardID" json:"expenses,omitempty"`
}

// Expired reports whether the card's expiration month has fully passed
// as of the given date. A card expiring 08/26 is usable through Aug 31 2026.
func (c *CreditCard) Expired(asOf time.Time) bool {
	lastValid := billing.MonthOf(c.ExpireDate).LastDay()
	return lastValid.Before(asOf.Truncate(24 * time.Hour))
}
