package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/money"
)

// Distribute splits a card purchase across its installment billing months.
// The surcharge-inclusive total is divided into equal cent-rounded shares,
// one per installment; the i-th installment falls due i calendar months
// after the purchase date and lands in the billing month the cycle resolver
// assigns to that due date. Two consecutive installments can land in the
// same billing month when the due day drifts across the closing day, so
// shares accumulate per month.
//
// The cent residue left by rounding is added to the latest billing month,
// so the shares always sum exactly to the surcharge-inclusive total.
func Distribute(amount, surchargePercent decimal.Decimal, installments int, purchaseDate time.Time, closeDay int) map[Month]decimal.Decimal {
	if installments < 1 {
		installments = 1
	}

	total := money.TotalWithSurcharge(amount, surchargePercent)
	per, residue := money.SplitEven(total, installments)

	shares := make(map[Month]decimal.Decimal, installments)
	var last Month
	for i := 0; i < installments; i++ {
		dueDate := AddMonths(purchaseDate, i)
		bm := EffectiveBillingMonth(dueDate, closeDay)
		shares[bm] = shares[bm].Add(per)
		if bm.After(last) {
			last = bm
		}
	}

	if !residue.IsZero() {
		shares[last] = shares[last].Add(residue)
	}
	return shares
}
