package core

import "time"

// MonthlySummary is the pure fold of a user's transactions for one month:
// total income, total expenses, and per-category expense sums.
type MonthlySummary struct {
	Year             int
	Month            time.Month
	IncomeCents      int64
	ExpenseCents     int64
	ByCategory       map[string]int64
	TransactionCount int
}

// Summarize buckets transactions into a MonthlySummary. Expense transactions
// add to ExpenseCents and to their category bucket; everything else adds to
// IncomeCents. It has no side effects.
func Summarize(year int, month time.Month, txs []Transaction) MonthlySummary {
	s := MonthlySummary{
		Year:       year,
		Month:      month,
		ByCategory: make(map[string]int64),
	}
	for _, t := range txs {
		s.TransactionCount++
		if t.Type == Expense {
			s.ExpenseCents += t.Amount.Cents
			s.ByCategory[t.Category] += t.Amount.Cents
			continue
		}
		s.IncomeCents += t.Amount.Cents
	}
	return s
}

// NetCents is income minus expenses for the month.
func (s MonthlySummary) NetCents() int64 {
	return s.IncomeCents - s.ExpenseCents
}

// MonthRange returns the first instant of the month and the first instant of
// the next month, for use as a half-open query range [start, end).
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
