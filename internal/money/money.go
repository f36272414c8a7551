// Package money provides fixed-point helpers for monetary amounts.
// All amounts are shopspring decimals; anything that leaves this package
// is rounded to cents with round-half-up semantics.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round rounds an amount to 2 decimal places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// TotalWithSurcharge returns amount plus the given percentage surcharge,
// rounded to cents. A zero surcharge returns the amount unchanged apart
// from rounding.
func TotalWithSurcharge(amount, surchargePercent decimal.Decimal) decimal.Decimal {
	return Round(amount.Add(amount.Mul(surchargePercent.Div(hundred))))
}

// SplitEven divides a total into n equal cent-rounded parts and the residue
// left over after rounding. total == part*n + residue holds exactly.
func SplitEven(total decimal.Decimal, n int) (part, residue decimal.Decimal) {
	count := decimal.NewFromInt(int64(n))
	part = Round(total.Div(count))
	residue = total.Sub(part.Mul(count))
	return part, residue
}
