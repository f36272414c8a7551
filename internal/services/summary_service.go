package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/billing"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/money"
)

// uncategorizedBucket collects transactions with no category, including
// those whose category was later deleted.
const uncategorizedBucket = "uncategorized"

// SummaryService aggregates a user's transactions into monthly views.
type SummaryService struct {
	db *gorm.DB
}

// NewSummaryService creates a new SummaryService.
func NewSummaryService(db *gorm.DB) *SummaryService {
	return &SummaryService{db: db}
}

// MonthlyView assembles the user's month: one-off transactions dated in the
// month plus every recurring transaction active during it, with recurring
// amounts resolved through the override ledger. Cash and card expenses are
// totalled separately and Net subtracts only the cash side, since card
// spending is settled through statement balances, not the month it was
// spent in.
func (s *SummaryService) MonthlyView(userID uint, month billing.Month) (*MonthlySummary, error) {
	first, last := month.FirstDay(), month.LastDay()

	var oneOff []models.Transaction
	err := s.db.Preload("Category").
		Where("user_id = ? AND is_recurring = ? AND date >= ? AND date <= ?", userID, false, first, last).
		Order("date ASC, id ASC").
		Find(&oneOff).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var recurring []models.Transaction
	err = s.db.Preload("Category").Preload("Overrides").
		Where("user_id = ? AND is_recurring = ? AND date <= ?", userID, true, last).
		Where("end_date IS NULL OR end_date >= ?", first).
		Order("date ASC, id ASC").
		Find(&recurring).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &MonthlySummary{
		Month:             month,
		Incomes:           []MonthlyEntry{},
		Expenses:          []MonthlyEntry{},
		IncomeByCategory:  map[string]decimal.Decimal{},
		ExpenseByCategory: map[string]decimal.Decimal{},
		TotalIncome:       decimal.Zero,
		TotalCashExpenses: decimal.Zero,
		TotalCardExpenses: decimal.Zero,
		Net:               decimal.Zero,
	}

	for i := range oneOff {
		summary.add(&oneOff[i], oneOff[i].Amount)
	}
	for i := range recurring {
		amount := resolveEffectiveAmount(recurring[i].Amount, recurring[i].Overrides, month)
		summary.add(&recurring[i], amount)
	}

	summary.Net = money.Round(summary.TotalIncome.Sub(summary.TotalCashExpenses))
	return summary, nil
}

func (m *MonthlySummary) add(tx *models.Transaction, amount decimal.Decimal) {
	bucket := uncategorizedBucket
	if tx.Category != nil {
		bucket = tx.Category.Name
	}

	entry := MonthlyEntry{
		TransactionID: tx.ID,
		Description:   tx.Description,
		Category:      bucket,
		Amount:        amount,
		Date:          tx.Date,
		IsRecurring:   tx.IsRecurring,
		CardID:        tx.CardID,
	}

	if tx.Type == models.TransactionTypeIncome {
		m.Incomes = append(m.Incomes, entry)
		m.IncomeByCategory[bucket] = m.IncomeByCategory[bucket].Add(amount)
		m.TotalIncome = m.TotalIncome.Add(amount)
		return
	}

	m.Expenses = append(m.Expenses, entry)
	m.ExpenseByCategory[bucket] = m.ExpenseByCategory[bucket].Add(amount)
	if tx.PaidWithCard() {
		m.TotalCardExpenses = m.TotalCardExpenses.Add(amount)
	} else {
		m.TotalCashExpenses = m.TotalCashExpenses.Add(amount)
	}
}
