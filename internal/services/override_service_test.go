package services

import (
	"testing"
	"time"

	"moneta/internal/billing"
	"moneta/internal/models"
	"moneta/internal/testutil"
)

func TestUpsertOverride(t *testing.T) {
	t.Run("creates_override", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOverrideService(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestRecurringExpense(t, db, user.ID, dec("100.00"), date(2024, time.January, 15))

		override, err := svc.UpsertOverride(user.ID, tx.ID, billing.NewMonth(2024, 3), dec("150.00"))
		testutil.AssertNoError(t, err)

		if override.ID == 0 {
			t.Fatal("expected non-zero override ID")
		}
		if override.Year != 2024 || override.Month != 3 {
			t.Errorf("expected 2024-03, got %04d-%02d", override.Year, override.Month)
		}
	})

	t.Run("same_month_replaces_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOverrideService(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestRecurringExpense(t, db, user.ID, dec("100.00"), date(2024, time.January, 15))

		first, err := svc.UpsertOverride(user.ID, tx.ID, billing.NewMonth(2024, 3), dec("150.00"))
		testutil.AssertNoError(t, err)
		second, err := svc.UpsertOverride(user.ID, tx.ID, billing.NewMonth(2024, 3), dec("175.00"))
		testutil.AssertNoError(t, err)

		if first.ID != second.ID {
			t.Errorf("expected upsert to reuse row %d, got %d", first.ID, second.ID)
		}

		var count int64
		db.Model(&models.RecurringOverride{}).Where("transaction_id = ?", tx.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected a single override row, got %d", count)
		}

		testutil.AssertDecimalEqual(t, "175.00", second.Amount)
	})

	t.Run("non_recurring_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOverrideService(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestExpense(t, db, user.ID, dec("100.00"), date(2024, time.January, 15))

		_, err := svc.UpsertOverride(user.ID, tx.ID, billing.NewMonth(2024, 3), dec("150.00"))
		testutil.AssertAppError(t, err, "OVERRIDE_NOT_RECURRING")
	})

	t.Run("month_before_start_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOverrideService(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestRecurringExpense(t, db, user.ID, dec("100.00"), date(2024, time.March, 15))

		_, err := svc.UpsertOverride(user.ID, tx.ID, billing.NewMonth(2024, 2), dec("150.00"))
		testutil.AssertAppError(t, err, "INVALID_OVERRIDE_DATE")
	})

	t.Run("start_month_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOverrideService(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestRecurringExpense(t, db, user.ID, dec("100.00"), date(2024, time.March, 15))

		_, err := svc.UpsertOverride(user.ID, tx.ID, billing.NewMonth(2024, 3), dec("150.00"))
		testutil.AssertNoError(t, err)
	})

	t.Run("other_users_transaction_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOverrideService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestRecurringExpense(t, db, user1.ID, dec("100.00"), date(2024, time.January, 15))

		_, err := svc.UpsertOverride(user2.ID, tx.ID, billing.NewMonth(2024, 3), dec("150.00"))
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestEffectiveAmount(t *testing.T) {
	setup := func(t *testing.T) (*OverrideService, *models.User, *models.Transaction, func()) {
		db := testutil.SetupTestDB(t)
		svc := NewOverrideService(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestRecurringExpense(t, db, user.ID, dec("100.00"), date(2024, time.January, 15))
		testutil.CreateTestOverride(t, db, tx.ID, 2024, 3, dec("150.00"))
		return svc, user, tx, func() { testutil.TeardownTestDB(t, db) }
	}

	t.Run("base_amount_before_override", func(t *testing.T) {
		svc, user, tx, teardown := setup(t)
		defer teardown()

		got, err := svc.EffectiveAmount(user.ID, tx.ID, date(2024, time.February, 15))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "100.00", got)
	})

	t.Run("override_month_uses_override", func(t *testing.T) {
		svc, user, tx, teardown := setup(t)
		defer teardown()

		got, err := svc.EffectiveAmount(user.ID, tx.ID, date(2024, time.March, 15))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "150.00", got)
	})

	t.Run("override_carries_forward", func(t *testing.T) {
		svc, user, tx, teardown := setup(t)
		defer teardown()

		got, err := svc.EffectiveAmount(user.ID, tx.ID, date(2024, time.May, 1))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "150.00", got)
	})

	t.Run("latest_of_several_overrides_wins", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOverrideService(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestRecurringExpense(t, db, user.ID, dec("100.00"), date(2024, time.January, 15))
		testutil.CreateTestOverride(t, db, tx.ID, 2024, 3, dec("150.00"))
		testutil.CreateTestOverride(t, db, tx.ID, 2024, 6, dec("80.00"))

		got, err := svc.EffectiveAmount(user.ID, tx.ID, date(2024, time.October, 1))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "80.00", got)

		got, err = svc.EffectiveAmount(user.ID, tx.ID, date(2024, time.April, 1))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "150.00", got)
	})
}

func TestGetOverrides(t *testing.T) {
	t.Run("chronological_order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewOverrideService(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestRecurringExpense(t, db, user.ID, dec("100.00"), date(2023, time.June, 15))
		testutil.CreateTestOverride(t, db, tx.ID, 2024, 2, dec("120.00"))
		testutil.CreateTestOverride(t, db, tx.ID, 2023, 11, dec("110.00"))

		overrides, err := svc.GetOverrides(user.ID, tx.ID)
		testutil.AssertNoError(t, err)

		if len(overrides) != 2 {
			t.Fatalf("expected 2 overrides, got %d", len(overrides))
		}
		if overrides[0].Year != 2023 || overrides[0].Month != 11 {
			t.Errorf("expected 2023-11 first, got %04d-%02d", overrides[0].Year, overrides[0].Month)
		}
	})
}
