// Package billing implements the statement-cycle arithmetic for credit card
// charges: which billing month a charge lands in, and how a multi-installment
// purchase is distributed across billing months.
package billing

import (
	"fmt"
	"time"
)

// Month identifies a calendar month.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// NewMonth builds a Month from numeric year and month values.
func NewMonth(year, month int) Month {
	return Month{Year: year, Month: time.Month(month)}
}

// Add returns the month n calendar months after m. n may be negative.
func (m Month) Add(n int) Month {
	idx := m.Year*12 + int(m.Month) - 1 + n
	return Month{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Compare returns -1, 0, or 1 as m is before, equal to, or after o.
func (m Month) Compare(o Month) int {
	a := m.Year*12 + int(m.Month)
	b := o.Year*12 + int(o.Month)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool { return m.Compare(o) < 0 }

// After reports whether m is strictly later than o.
func (m Month) After(o Month) bool { return m.Compare(o) > 0 }

// FirstDay returns midnight UTC on the first day of the month.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns midnight UTC on the last day of the month.
func (m Month) LastDay() time.Time {
	return m.FirstDay().AddDate(0, 1, -1)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.LastDay().Day()
}

// Contains reports whether t falls within the month.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// AddMonths shifts a date by n calendar months, clamping the day to the length
// of the target month (Jan 31 + 1 month is Feb 28/29, not Mar 2). This differs
// from time.Time.AddDate, which normalizes overflow into the following month.
func AddMonths(t time.Time, n int) time.Time {
	target := MonthOf(t).Add(n)
	day := t.Day()
	if max := target.Days(); day > max {
		day = max
	}
	return time.Date(target.Year, target.Month, day, 0, 0, 0, 0, t.Location())
}
