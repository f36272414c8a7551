package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/billing"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/testutil"
)

func TestCreateCard(t *testing.T) {
	input := func() CardInput {
		return CardInput{
			LastFour:    "4242",
			Brand:       "visa",
			ExpireDate:  time.Now().AddDate(2, 0, 0),
			CreditLimit: dec("5000.00"),
			PaymentDay:  28,
			CloseDay:    21,
		}
	}

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db)
		user := testutil.CreateTestUser(t, db)

		card, err := svc.CreateCard(user.ID, input())
		testutil.AssertNoError(t, err)

		if card.ID == 0 {
			t.Fatal("expected non-zero card ID")
		}
		if card.LastFour != "4242" {
			t.Errorf("expected last four 4242, got %s", card.LastFour)
		}
	})

	t.Run("payment_day_not_after_close_day", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db)
		user := testutil.CreateTestUser(t, db)

		in := input()
		in.PaymentDay = 21
		_, err := svc.CreateCard(user.ID, in)
		testutil.AssertAppError(t, err, "INVALID_CARD_DAYS")
	})

	t.Run("expired_card_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db)
		user := testutil.CreateTestUser(t, db)

		in := input()
		in.ExpireDate = time.Now().AddDate(0, -2, 0)
		_, err := svc.CreateCard(user.ID, in)
		testutil.AssertAppError(t, err, "CARD_EXPIRED")
	})

	t.Run("non_positive_limit_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db)
		user := testutil.CreateTestUser(t, db)

		in := input()
		in.CreditLimit = decimal.Zero
		_, err := svc.CreateCard(user.ID, in)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetBalance(t *testing.T) {
	t.Run("single_and_installment_charges", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID)

		// 100 + 5% lands whole in the September statement.
		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, dec("100.00"), date(2024, time.August, 10), 1, dec("5"))
		// 200 + 2.5% over two installments: 102.50 in September, 102.50 in October.
		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, dec("200.00"), date(2024, time.August, 10), 2, dec("2.5"))

		sep, err := svc.GetBalance(user.ID, card.ID, billing.NewMonth(2024, 9))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "207.50", sep.Balance)
		testutil.AssertDecimalEqual(t, "4792.50", sep.AvailableCredit)

		oct, err := svc.GetBalance(user.ID, card.ID, billing.NewMonth(2024, 10))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "102.50", oct.Balance)

		nov, err := svc.GetBalance(user.ID, card.ID, billing.NewMonth(2024, 11))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "0.00", nov.Balance)
	})

	t.Run("installment_shares_sum_to_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID)

		// 1000 + 10% = 1100 over 3 installments: 366.67 + 366.67 + 366.66.
		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, dec("1000.00"), date(2024, time.January, 10), 3, dec("10"))

		total := decimal.Zero
		for m := 1; m <= 6; m++ {
			bal, err := svc.GetBalance(user.ID, card.ID, billing.NewMonth(2024, m))
			testutil.AssertNoError(t, err)
			total = total.Add(bal.Balance)
		}
		testutil.AssertDecimalEqual(t, "1100.00", total)

		last, err := svc.GetBalance(user.ID, card.ID, billing.NewMonth(2024, 4))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "366.66", last.Balance)
	})

	t.Run("recurring_charge_with_override", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID)

		sub := testutil.CreateTestCardExpense(t, db, user.ID, card.ID, dec("50.00"), date(2024, time.January, 15), 1, decimal.Zero)
		db.Model(sub).Update("is_recurring", true)
		testutil.CreateTestOverride(t, db, sub.ID, 2024, 3, dec("60.00"))

		// January occurrence bills in February at the base amount.
		feb, err := svc.GetBalance(user.ID, card.ID, billing.NewMonth(2024, 2))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "50.00", feb.Balance)

		// The March occurrence bills in April at the override amount.
		apr, err := svc.GetBalance(user.ID, card.ID, billing.NewMonth(2024, 4))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "60.00", apr.Balance)

		// The override carries forward to later months.
		jun, err := svc.GetBalance(user.ID, card.ID, billing.NewMonth(2024, 6))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "60.00", jun.Balance)
	})

	t.Run("recurring_stops_at_end_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID)

		sub := testutil.CreateTestCardExpense(t, db, user.ID, card.ID, dec("50.00"), date(2024, time.January, 15), 1, decimal.Zero)
		end := date(2024, time.March, 15)
		db.Model(sub).Updates(map[string]interface{}{"is_recurring": true, "end_date": end})

		// Last occurrence is March 15, billing in April.
		apr, err := svc.GetBalance(user.ID, card.ID, billing.NewMonth(2024, 4))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "50.00", apr.Balance)

		may, err := svc.GetBalance(user.ID, card.ID, billing.NewMonth(2024, 5))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "0.00", may.Balance)
	})

	t.Run("card_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetBalance(user.ID, 9999, billing.NewMonth(2024, 9))
		testutil.AssertAppError(t, err, "CARD_NOT_FOUND")
	})
}

func TestGetCardExpenses(t *testing.T) {
	t.Run("filters_by_purchase_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID)
		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, dec("30.00"), date(2024, time.August, 5), 1, decimal.Zero)
		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, dec("40.00"), date(2024, time.August, 25), 1, decimal.Zero)
		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, dec("50.00"), date(2024, time.July, 5), 1, decimal.Zero)

		resp, err := svc.GetCardExpenses(user.ID, card.ID, billing.NewMonth(2024, 8), pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if resp.TotalItems != 2 {
			t.Errorf("expected 2 expenses in August, got %d", resp.TotalItems)
		}
	})
}

func TestDeleteCard(t *testing.T) {
	t.Run("keeps_expenses", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID)
		tx := testutil.CreateTestCardExpense(t, db, user.ID, card.ID, dec("30.00"), date(2024, time.August, 5), 1, decimal.Zero)

		testutil.AssertNoError(t, svc.DeleteCard(user.ID, card.ID))

		_, err := svc.GetCardByID(user.ID, card.ID)
		testutil.AssertAppError(t, err, "CARD_NOT_FOUND")

		var survivor models.Transaction
		if err := db.First(&survivor, tx.ID).Error; err != nil {
			t.Fatalf("expected expense to survive card deletion: %v", err)
		}
	})
}
