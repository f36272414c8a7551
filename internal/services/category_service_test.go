package services

import (
	"testing"
	"time"

	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		cat, err := svc.CreateCategory(user.ID, "Groceries", models.CategoryKindExpense)
		testutil.AssertNoError(t, err)

		if cat.ID == 0 {
			t.Fatal("expected non-zero category ID")
		}
		if cat.Kind != models.CategoryKindExpense {
			t.Errorf("expected expense kind, got %s", cat.Kind)
		}
	})

	t.Run("duplicate_name_within_kind_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "Groceries", models.CategoryKindExpense)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(user.ID, "Groceries", models.CategoryKindExpense)
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("same_name_across_kinds_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "Other", models.CategoryKindExpense)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(user.ID, "Other", models.CategoryKindIncome)
		testutil.AssertNoError(t, err)
	})

	t.Run("same_name_for_other_user_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user1.ID, "Rent", models.CategoryKindExpense)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(user2.ID, "Rent", models.CategoryKindExpense)
		testutil.AssertNoError(t, err)
	})
}

func TestGetUserCategories(t *testing.T) {
	t.Run("filters_by_kind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestCategory(t, db, user.ID, models.CategoryKindExpense)
		testutil.CreateTestCategory(t, db, user.ID, models.CategoryKindExpense)
		testutil.CreateTestCategory(t, db, user.ID, models.CategoryKindIncome)

		income := models.CategoryKindIncome
		resp, err := svc.GetUserCategories(user.ID, &income, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if resp.TotalItems != 1 {
			t.Errorf("expected 1 income category, got %d", resp.TotalItems)
		}

		resp, err = svc.GetUserCategories(user.ID, nil, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 3 {
			t.Errorf("expected 3 categories in total, got %d", resp.TotalItems)
		}
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("renames", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryKindExpense)

		updated, err := svc.UpdateCategory(user.ID, cat.ID, "Dining Out")
		testutil.AssertNoError(t, err)
		if updated.Name != "Dining Out" {
			t.Errorf("expected Dining Out, got %s", updated.Name)
		}
	})

	t.Run("rename_to_existing_name_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		_, err := svc.CreateCategory(user.ID, "Groceries", models.CategoryKindExpense)
		testutil.AssertNoError(t, err)
		cat, err := svc.CreateCategory(user.ID, "Dining", models.CategoryKindExpense)
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateCategory(user.ID, cat.ID, "Groceries")
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("uncategorizes_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryKindExpense)
		tx := testutil.CreateTestExpense(t, db, user.ID, dec("50.00"), date(2024, time.May, 10))
		db.Model(tx).Update("category_id", cat.ID)

		testutil.AssertNoError(t, svc.DeleteCategory(user.ID, cat.ID))

		var reloaded models.Transaction
		if err := db.First(&reloaded, tx.ID).Error; err != nil {
			t.Fatalf("failed to reload transaction: %v", err)
		}
		if reloaded.CategoryID != nil {
			t.Errorf("expected transaction to be uncategorized, got category %d", *reloaded.CategoryID)
		}
	})

	t.Run("other_users_category_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user1.ID, models.CategoryKindExpense)

		err := svc.DeleteCategory(user2.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}
