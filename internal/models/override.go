package models

import (
	"github.com/shopspring/decimal"

	"moneta/internal/billing"
)

// RecurringOverride records a change to a recurring transaction's amount
// from a given month onward. At most one override exists per transaction
// and calendar month; writing the same month again replaces the amount.
type RecurringOverride struct {
	Base
	TransactionID uint            `gorm:"not null;uniqueIndex:idx_overrides_tx_month" json:"transaction_id"`
	Year          int             `gorm:"not null;uniqueIndex:idx_overrides_tx_month" json:"year"`
	Month         int             `gorm:"not null;uniqueIndex:idx_overrides_tx_month" json:"month"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`

	Transaction Transaction `gorm:"foreignKey:TransactionID" json:"-"`
}

// EffectiveMonth returns the month the override takes effect.
func (o *RecurringOverride) EffectiveMonth() billing.Month {
	return billing.NewMonth(o.Year, o.Month)
}
