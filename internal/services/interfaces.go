package services

import (
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/billing"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// Clock supplies the current time. Injected so that "today" is controllable
// in tests of future-date validation and balance projection.
type Clock func() time.Time

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID uint, name string, kind models.CategoryKind) (*models.Category, error)
	GetUserCategories(userID uint, kind *models.CategoryKind, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name string) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
}

// CardInput holds the fields for creating or replacing a credit card.
type CardInput struct {
	LastFour    string
	Brand       string
	ExpireDate  time.Time
	CreditLimit decimal.Decimal
	PaymentDay  int
	CloseDay    int
}

// CardBalance reports a card's standing for one billing month.
type CardBalance struct {
	CardID          uint            `json:"card_id"`
	Month           billing.Month   `json:"month"`
	Balance         decimal.Decimal `json:"balance"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
}

// CardServicer defines the contract for credit-card business logic, including
// the billing-month balance engine.
type CardServicer interface {
	CreateCard(userID uint, in CardInput) (*models.CreditCard, error)
	GetUserCards(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error)
	GetCardByID(userID, cardID uint) (*models.CreditCard, error)
	UpdateCard(userID, cardID uint, in CardInput) (*models.CreditCard, error)
	DeleteCard(userID, cardID uint) error
	GetBalance(userID, cardID uint, month billing.Month) (*CardBalance, error)
	GetCardExpenses(userID, cardID uint, month billing.Month, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
}

// TransactionInput holds the fields for creating a transaction.
type TransactionInput struct {
	CategoryID   *uint
	Type         models.TransactionType
	Description  string
	Amount       decimal.Decimal
	Date         time.Time
	IsRecurring  bool
	CardID       *uint
	Installments int
	Surcharge    decimal.Decimal
}

// TransactionUpdate holds optional fields for updating a transaction.
// CategoryID uses a double pointer: nil means "don't change", a pointer to
// nil clears the category, a pointer to a value sets it. Card financing
// fields are immutable after creation.
type TransactionUpdate struct {
	CategoryID  **uint
	Description *string
	Amount      *decimal.Decimal
	Date        *time.Time
	IsRecurring *bool
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
	CardID     *uint
	Recurring  *bool
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID uint, in TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID uint, fields TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
}

// OverrideServicer defines the contract for the recurring-amount override ledger.
type OverrideServicer interface {
	UpsertOverride(userID, transactionID uint, month billing.Month, amount decimal.Decimal) (*models.RecurringOverride, error)
	GetOverrides(userID, transactionID uint) ([]models.RecurringOverride, error)
	EffectiveAmount(userID, transactionID uint, asOf time.Time) (decimal.Decimal, error)
}

// MonthlyEntry is one transaction as it appears in a monthly view. Amount is
// the effective amount for the month, which for recurring transactions may
// differ from the stored base amount.
type MonthlyEntry struct {
	TransactionID uint            `json:"transaction_id"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	IsRecurring   bool            `json:"is_recurring"`
	CardID        *uint           `json:"card_id,omitempty"`
}

// MonthlySummary aggregates a user's month. Cash and card expense totals are
// reported as separate figures; Net is income minus cash expenses, and card
// balances are queried per card rather than subtracted here a second time.
type MonthlySummary struct {
	Month             billing.Month              `json:"month"`
	Incomes           []MonthlyEntry             `json:"incomes"`
	Expenses          []MonthlyEntry             `json:"expenses"`
	IncomeByCategory  map[string]decimal.Decimal `json:"income_by_category"`
	ExpenseByCategory map[string]decimal.Decimal `json:"expense_by_category"`
	TotalIncome       decimal.Decimal            `json:"total_income"`
	TotalCashExpenses decimal.Decimal            `json:"total_cash_expenses"`
	TotalCardExpenses decimal.Decimal            `json:"total_card_expenses"`
	Net               decimal.Decimal            `json:"net"`
}

// SummaryServicer defines the contract for monthly aggregation.
type SummaryServicer interface {
	MonthlyView(userID uint, month billing.Month) (*MonthlySummary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
