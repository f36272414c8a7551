package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"moneta/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given kind.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint, kind models.CategoryKind) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Kind:   kind,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestCreditCard creates a card with a $5000 limit closing on the 21st.
func CreateTestCreditCard(t *testing.T, db *gorm.DB, userID uint) *models.CreditCard {
	t.Helper()
	return CreateTestCreditCardWith(t, db, userID, decimal.NewFromInt(5000), 21, 28)
}

// CreateTestCreditCardWith creates a card with the given limit and cycle days.
func CreateTestCreditCardWith(t *testing.T, db *gorm.DB, userID uint, limit decimal.Decimal, closeDay, paymentDay int) *models.CreditCard {
	t.Helper()

	card := &models.CreditCard{
		UserID:      userID,
		LastFour:    fmt.Sprintf("%04d", nextID()%10000),
		Brand:       "visa",
		ExpireDate:  time.Now().AddDate(3, 0, 0),
		CreditLimit: limit,
		PaymentDay:  paymentDay,
		CloseDay:    closeDay,
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("failed to create test credit card: %v", err)
	}
	return card
}

// CreateTestIncome creates a one-off income transaction.
func CreateTestIncome(t *testing.T, db *gorm.DB, userID uint, amount decimal.Decimal, date time.Time) *models.Transaction {
	t.Helper()
	return createTestTransaction(t, db, &models.Transaction{
		UserID: userID,
		Type:   models.TransactionTypeIncome,
		Amount: amount,
		Date:   date,
	})
}

// CreateTestExpense creates a one-off cash expense.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID uint, amount decimal.Decimal, date time.Time) *models.Transaction {
	t.Helper()
	return createTestTransaction(t, db, &models.Transaction{
		UserID: userID,
		Type:   models.TransactionTypeExpense,
		Amount: amount,
		Date:   date,
	})
}

// CreateTestRecurringExpense creates a recurring expense starting at date
// with no end date.
func CreateTestRecurringExpense(t *testing.T, db *gorm.DB, userID uint, amount decimal.Decimal, date time.Time) *models.Transaction {
	t.Helper()
	return createTestTransaction(t, db, &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeExpense,
		Amount:      amount,
		Date:        date,
		IsRecurring: true,
	})
}

// CreateTestCardExpense creates a card expense with the given financing terms.
func CreateTestCardExpense(t *testing.T, db *gorm.DB, userID, cardID uint, amount decimal.Decimal, date time.Time, installments int, surcharge decimal.Decimal) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:       userID,
		Type:         models.TransactionTypeExpense,
		Amount:       amount,
		Date:         date,
		CardID:       &cardID,
		Installments: installments,
		Surcharge:    surcharge,
	}
	if installments > 1 {
		end := date.AddDate(0, installments-1, 0)
		tx.EndDate = &end
	}
	return createTestTransaction(t, db, tx)
}

// CreateTestOverride records an override amount for a month of a recurring
// transaction.
func CreateTestOverride(t *testing.T, db *gorm.DB, transactionID uint, year, month int, amount decimal.Decimal) *models.RecurringOverride {
	t.Helper()

	override := &models.RecurringOverride{
		TransactionID: transactionID,
		Year:          year,
		Month:         month,
		Amount:        amount,
	}
	if err := db.Create(override).Error; err != nil {
		t.Fatalf("failed to create test override: %v", err)
	}
	return override
}

func createTestTransaction(t *testing.T, db *gorm.DB, tx *models.Transaction) *models.Transaction {
	t.Helper()

	if tx.Installments == 0 {
		tx.Installments = 1
	}
	if tx.Description == "" {
		tx.Description = fmt.Sprintf("Test Transaction %d", nextID())
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
