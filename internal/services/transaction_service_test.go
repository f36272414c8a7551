package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/testutil"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixedClock pins "today" so date validation is deterministic.
func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestCreateTransaction(t *testing.T) {
	today := date(2024, time.September, 1)

	t.Run("cash_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryKindExpense)

		tx, err := svc.CreateTransaction(user.ID, TransactionInput{
			CategoryID:  &cat.ID,
			Type:        models.TransactionTypeExpense,
			Description: "Groceries",
			Amount:      dec("52.30"),
			Date:        date(2024, time.August, 15),
		})
		testutil.AssertNoError(t, err)

		if tx.ID == 0 {
			t.Fatal("expected non-zero transaction ID")
		}
		if tx.Installments != 1 {
			t.Errorf("expected installments to default to 1, got %d", tx.Installments)
		}
		if tx.EndDate != nil {
			t.Error("expected no end date for a one-off expense")
		}
	})

	t.Run("future_date_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:   models.TransactionTypeExpense,
			Amount: dec("10.00"),
			Date:   date(2024, time.September, 2),
		})
		testutil.AssertAppError(t, err, "FUTURE_DATE_NOT_ALLOWED")
	})

	t.Run("non_positive_amount_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:   models.TransactionTypeExpense,
			Amount: decimal.Zero,
			Date:   date(2024, time.August, 15),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("recurring_with_installments_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:         models.TransactionTypeExpense,
			Amount:       dec("100.00"),
			Date:         date(2024, time.August, 15),
			IsRecurring:  true,
			CardID:       &card.ID,
			Installments: 3,
		})
		testutil.AssertAppError(t, err, "RECURRING_INSTALLMENT_CONFLICT")
	})

	t.Run("installments_without_card_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:         models.TransactionTypeExpense,
			Amount:       dec("100.00"),
			Date:         date(2024, time.August, 15),
			Installments: 3,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("income_with_card_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:   models.TransactionTypeIncome,
			Amount: dec("100.00"),
			Date:   date(2024, time.August, 15),
			CardID: &card.ID,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("category_kind_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryKindIncome)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			CategoryID: &cat.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     dec("100.00"),
			Date:       date(2024, time.August, 15),
		})
		testutil.AssertAppError(t, err, "CATEGORY_KIND_MISMATCH")
	})

	t.Run("installment_purchase_derives_end_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID)

		tx, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:         models.TransactionTypeExpense,
			Amount:       dec("300.00"),
			Date:         date(2024, time.January, 10),
			CardID:       &card.ID,
			Installments: 3,
		})
		testutil.AssertNoError(t, err)

		if tx.EndDate == nil {
			t.Fatal("expected end date to be derived")
		}
		want := date(2024, time.March, 10)
		if !tx.EndDate.Equal(want) {
			t.Errorf("expected end date %s, got %s", want, tx.EndDate)
		}
	})

	t.Run("expired_card_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID)
		db.Model(card).Update("expire_date", date(2024, time.January, 1))

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:   models.TransactionTypeExpense,
			Amount: dec("100.00"),
			Date:   date(2024, time.March, 10),
			CardID: &card.ID,
		})
		testutil.AssertAppError(t, err, "CARD_EXPIRED")
	})
}

func TestCreditGate(t *testing.T) {
	today := date(2024, time.September, 1)

	setup := func(t *testing.T) (*TransactionService, *models.User, *models.CreditCard, func()) {
		db := testutil.SetupTestDB(t)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCardWith(t, db, user.ID, dec("500.00"), 21, 28)
		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, dec("300.00"), date(2024, time.August, 10), 1, decimal.Zero)
		return svc, user, card, func() { testutil.TeardownTestDB(t, db) }
	}

	t.Run("rejects_charge_over_limit", func(t *testing.T) {
		svc, user, card, teardown := setup(t)
		defer teardown()

		// Existing 300 + 210 = 510 in the 2024-09 statement, limit 500.
		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:   models.TransactionTypeExpense,
			Amount: dec("210.00"),
			Date:   date(2024, time.August, 12),
			CardID: &card.ID,
		})
		testutil.AssertAppError(t, err, "CREDIT_LIMIT_EXCEEDED")
	})

	t.Run("accepts_charge_within_limit", func(t *testing.T) {
		svc, user, card, teardown := setup(t)
		defer teardown()

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:   models.TransactionTypeExpense,
			Amount: dec("199.99"),
			Date:   date(2024, time.August, 12),
			CardID: &card.ID,
		})
		testutil.AssertNoError(t, err)
	})

	t.Run("gate_prices_surcharge", func(t *testing.T) {
		svc, user, card, teardown := setup(t)
		defer teardown()

		// 195 + 5% = 204.75, pushing the statement to 504.75.
		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:      models.TransactionTypeExpense,
			Amount:    dec("195.00"),
			Date:      date(2024, time.August, 12),
			CardID:    &card.ID,
			Surcharge: dec("5"),
		})
		testutil.AssertAppError(t, err, "CREDIT_LIMIT_EXCEEDED")
	})

	t.Run("charge_in_other_cycle_ignores_existing", func(t *testing.T) {
		svc, user, card, teardown := setup(t)
		defer teardown()

		// Dated past the closing day, this lands in the 2024-10 statement
		// where the existing 300 does not count.
		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:   models.TransactionTypeExpense,
			Amount: dec("450.00"),
			Date:   date(2024, time.August, 25),
			CardID: &card.ID,
		})
		testutil.AssertNoError(t, err)
	})
}

func TestUpdateTransaction(t *testing.T) {
	today := date(2024, time.September, 1)

	t.Run("updates_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestExpense(t, db, user.ID, dec("100.00"), date(2024, time.August, 15))

		amount := dec("120.00")
		desc := "Updated"
		updated, err := svc.UpdateTransaction(user.ID, tx.ID, TransactionUpdate{
			Amount:      &amount,
			Description: &desc,
		})
		testutil.AssertNoError(t, err)

		if !updated.Amount.Equal(amount) {
			t.Errorf("expected amount 120.00, got %s", updated.Amount)
		}
		if updated.Description != "Updated" {
			t.Errorf("expected description Updated, got %s", updated.Description)
		}
	})

	t.Run("clears_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryKindExpense)
		tx := testutil.CreateTestExpense(t, db, user.ID, dec("100.00"), date(2024, time.August, 15))
		db.Model(tx).Update("category_id", cat.ID)

		var cleared *uint
		updated, err := svc.UpdateTransaction(user.ID, tx.ID, TransactionUpdate{CategoryID: &cleared})
		testutil.AssertNoError(t, err)

		if updated.CategoryID != nil {
			t.Errorf("expected category to be cleared, got %d", *updated.CategoryID)
		}
	})

	t.Run("amount_update_regates_card_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCardWith(t, db, user.ID, dec("500.00"), 21, 28)
		tx := testutil.CreateTestCardExpense(t, db, user.ID, card.ID, dec("300.00"), date(2024, time.August, 10), 1, decimal.Zero)

		// Raising the charge itself past the limit must fail even though the
		// old version is excluded from the balance.
		amount := dec("600.00")
		_, err := svc.UpdateTransaction(user.ID, tx.ID, TransactionUpdate{Amount: &amount})
		testutil.AssertAppError(t, err, "CREDIT_LIMIT_EXCEEDED")

		// The old 300 must not double-count against the new amount.
		amount = dec("450.00")
		updated, err := svc.UpdateTransaction(user.ID, tx.ID, TransactionUpdate{Amount: &amount})
		testutil.AssertNoError(t, err)
		if !updated.Amount.Equal(amount) {
			t.Errorf("expected amount 450.00, got %s", updated.Amount)
		}
	})

	t.Run("not_found_for_other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		svc.now = fixedClock(today)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestExpense(t, db, user1.ID, dec("100.00"), date(2024, time.August, 15))

		desc := "Hijack"
		_, err := svc.UpdateTransaction(user2.ID, tx.ID, TransactionUpdate{Description: &desc})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("removes_transaction_and_overrides", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestRecurringExpense(t, db, user.ID, dec("50.00"), date(2024, time.January, 15))
		testutil.CreateTestOverride(t, db, tx.ID, 2024, 3, dec("60.00"))

		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, tx.ID))

		_, err := svc.GetTransactionByID(user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

		var count int64
		db.Model(&models.RecurringOverride{}).Where("transaction_id = ?", tx.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected overrides to be deleted, found %d", count)
		}
	})
}

func TestGetUserTransactions(t *testing.T) {
	t.Run("filters_by_type_and_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestIncome(t, db, user.ID, dec("1000.00"), date(2024, time.August, 1))
		testutil.CreateTestExpense(t, db, user.ID, dec("50.00"), date(2024, time.August, 10))
		testutil.CreateTestExpense(t, db, user.ID, dec("70.00"), date(2024, time.July, 10))

		expense := models.TransactionTypeExpense
		from := date(2024, time.August, 1)
		resp, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{
			Type:     &expense,
			FromDate: &from,
		})
		testutil.AssertNoError(t, err)

		if len(resp.Data) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(resp.Data))
		}
		if !resp.Data[0].Amount.Equal(dec("50.00")) {
			t.Errorf("expected the August expense, got %s", resp.Data[0].Amount)
		}
	})

	t.Run("scoped_to_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		testutil.CreateTestExpense(t, db, user1.ID, dec("50.00"), date(2024, time.August, 10))
		testutil.CreateTestExpense(t, db, user2.ID, dec("70.00"), date(2024, time.August, 11))

		resp, err := svc.GetUserTransactions(user1.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if resp.TotalItems != 1 {
			t.Errorf("expected 1 transaction for user1, got %d", resp.TotalItems)
		}
	})
}
