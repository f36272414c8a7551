package billing

import "time"

// EffectiveBillingMonth returns the billing month a card charge lands in.
// A charge made after the card's closing day misses the statement that is
// about to be issued and rolls to the cycle after next; otherwise it appears
// on the next statement. Closing days past the end of a short month are
// capped at the month's last day, so a close day of 31 behaves as 28 in
// February.
func EffectiveBillingMonth(chargeDate time.Time, closeDay int) Month {
	m := MonthOf(chargeDate)
	if max := m.Days(); closeDay > max {
		closeDay = max
	}
	if chargeDate.Day() > closeDay {
		return m.Add(2)
	}
	return m.Add(1)
}
