package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/billing"
	"moneta/internal/models"
	"moneta/internal/money"
)

// recurringHorizonMonths bounds how far an open-ended recurring charge is
// projected when computing a card balance. Billing months are monotone in
// the occurrence date, so the loop also stops as soon as occurrences land
// past the requested month.
const recurringHorizonMonths = 60

// resolveEffectiveAmount returns the amount a recurring transaction charges
// in the given month. An override for exactly that month wins; otherwise the
// latest override from a strictly earlier month applies; with no applicable
// override the base amount stands.
func resolveEffectiveAmount(base decimal.Decimal, overrides []models.RecurringOverride, asOf billing.Month) decimal.Decimal {
	var latest *models.RecurringOverride
	for i := range overrides {
		m := overrides[i].EffectiveMonth()
		if m == asOf {
			return overrides[i].Amount
		}
		if m.Before(asOf) && (latest == nil || m.After(latest.EffectiveMonth())) {
			latest = &overrides[i]
		}
	}
	if latest != nil {
		return latest.Amount
	}
	return base
}

// chargeForBillingMonth returns what a single card expense contributes to the
// statement of the given billing month. Overrides must be preloaded on the
// expense for recurring amounts to resolve.
func chargeForBillingMonth(e *models.Transaction, closeDay int, month billing.Month) decimal.Decimal {
	switch {
	case e.Installments > 1:
		shares := billing.Distribute(e.Amount, e.Surcharge, e.Installments, e.Date, closeDay)
		return shares[month]

	case e.IsRecurring:
		total := decimal.Zero
		for k := 0; k < recurringHorizonMonths; k++ {
			occurrence := billing.AddMonths(e.Date, k)
			if e.EndDate != nil && occurrence.After(*e.EndDate) {
				break
			}
			bm := billing.EffectiveBillingMonth(occurrence, closeDay)
			if bm.After(month) {
				break
			}
			if bm == month {
				amount := resolveEffectiveAmount(e.Amount, e.Overrides, billing.MonthOf(occurrence))
				total = total.Add(money.TotalWithSurcharge(amount, e.Surcharge))
			}
		}
		return total

	default:
		if billing.EffectiveBillingMonth(e.Date, closeDay) == month {
			return money.TotalWithSurcharge(e.Amount, e.Surcharge)
		}
		return decimal.Zero
	}
}

// cardBalance sums every charge the card owes in the given billing month.
// excludeID, when non-zero, leaves one expense out of the sum; the credit
// gate uses this to price an update against the balance without the old
// version of the transaction.
func cardBalance(db *gorm.DB, card *models.CreditCard, month billing.Month, excludeID uint) (decimal.Decimal, error) {
	query := db.Preload("Overrides").
		Where("card_id = ? AND type = ?", card.ID, models.TransactionTypeExpense)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var expenses []models.Transaction
	if err := query.Find(&expenses).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i := range expenses {
		total = total.Add(chargeForBillingMonth(&expenses[i], card.CloseDay, month))
	}
	return money.Round(total), nil
}
