package services

import (
	"testing"
	"time"

	"travelbudget/internal/cache"
	"travelbudget/internal/pagination"
	"travelbudget/internal/testutil"

	"gorm.io/gorm"
)

func newExpenseFixture(t *testing.T, db *gorm.DB) (TripServicer, ExpenseServicer) {
	t.Helper()
	tripSvc := NewTripService(db, cache.NewNoop())
	expenseSvc := NewExpenseService(db, tripSvc, NewBudgetReconciler(), cache.NewNoop())
	return tripSvc, expenseSvc
}

func TestCreateExpense(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		expense, err := expenseSvc.CreateExpense(user.ID, trip.ID, "food", 200,
			testutil.Day(2027, time.June, 2), "dinner")
		testutil.AssertNoError(t, err)

		if expense.ID == 0 {
			t.Fatal("expected non-zero expense ID")
		}
		if expense.Category != "food" {
			t.Errorf("expected category food, got %s", expense.Category)
		}

		got, err := tripSvc.GetTripByID(user.ID, trip.ID)
		testutil.AssertNoError(t, err)
		if got.SpentTotal != 200 {
			t.Errorf("expected spent total 200, got %f", got.SpentTotal)
		}
		if got.RemainingBudget != 800 {
			t.Errorf("expected remaining budget 800, got %f", got.RemainingBudget)
		}
		// 200 spent over a 5-day trip.
		if got.DailyAverage != 40 {
			t.Errorf("expected daily average 40, got %f", got.DailyAverage)
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		_, err = expenseSvc.CreateExpense(user.ID, trip.ID, "food", 0,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		_, err = expenseSvc.CreateExpense(user.ID, trip.ID, "food", -5,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("blank_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		_, err = expenseSvc.CreateExpense(user.ID, trip.ID, "  ", 10,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("date_outside_trip_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		_, err = expenseSvc.CreateExpense(user.ID, trip.ID, "food", 10,
			testutil.Day(2027, time.June, 6), "")
		testutil.AssertAppError(t, err, "EXPENSE_OUT_OF_RANGE")

		_, err = expenseSvc.CreateExpense(user.ID, trip.ID, "food", 10,
			testutil.Day(2027, time.May, 31), "")
		testutil.AssertAppError(t, err, "EXPENSE_OUT_OF_RANGE")
	})

	t.Run("boundary_dates_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		_, err = expenseSvc.CreateExpense(user.ID, trip.ID, "food", 10,
			testutil.Day(2027, time.June, 1), "")
		testutil.AssertNoError(t, err)

		_, err = expenseSvc.CreateExpense(user.ID, trip.ID, "food", 10,
			testutil.Day(2027, time.June, 5), "")
		testutil.AssertNoError(t, err)
	})

	t.Run("forbidden_for_other_users_trip", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, expenseSvc := newExpenseFixture(t, db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		trip := testutil.CreateTestTrip(t, db, owner.ID, 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))

		_, err := expenseSvc.CreateExpense(other.ID, trip.ID, "food", 10,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("overspending_clamps_remaining_to_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		_, err = expenseSvc.CreateExpense(user.ID, trip.ID, "food", 200,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertNoError(t, err)

		_, err = expenseSvc.CreateExpense(user.ID, trip.ID, "hotel", 900,
			testutil.Day(2027, time.June, 3), "")
		testutil.AssertNoError(t, err)

		got, err := tripSvc.GetTripByID(user.ID, trip.ID)
		testutil.AssertNoError(t, err)
		if got.SpentTotal != 1100 {
			t.Errorf("expected unclamped spent total 1100, got %f", got.SpentTotal)
		}
		if got.RemainingBudget != 0 {
			t.Errorf("expected remaining budget clamped to 0, got %f", got.RemainingBudget)
		}
	})
}

func TestDeleteExpense(t *testing.T) {
	t.Run("restores_budget_past_exhaustion", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		_, err = expenseSvc.CreateExpense(user.ID, trip.ID, "food", 200,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertNoError(t, err)

		big, err := expenseSvc.CreateExpense(user.ID, trip.ID, "hotel", 900,
			testutil.Day(2027, time.June, 3), "")
		testutil.AssertNoError(t, err)

		// Remaining is clamped to 0 while over budget, but the stored spent
		// total is not, so removing the large expense restores the full 800.
		err = expenseSvc.DeleteExpense(user.ID, big.ID)
		testutil.AssertNoError(t, err)

		got, err := tripSvc.GetTripByID(user.ID, trip.ID)
		testutil.AssertNoError(t, err)
		if got.SpentTotal != 200 {
			t.Errorf("expected spent total 200, got %f", got.SpentTotal)
		}
		if got.RemainingBudget != 800 {
			t.Errorf("expected remaining budget 800, got %f", got.RemainingBudget)
		}
	})

	t.Run("second_delete_fails_without_budget_change", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		expense, err := expenseSvc.CreateExpense(user.ID, trip.ID, "food", 200,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertNoError(t, err)

		err = expenseSvc.DeleteExpense(user.ID, expense.ID)
		testutil.AssertNoError(t, err)

		err = expenseSvc.DeleteExpense(user.ID, expense.ID)
		testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")

		got, err := tripSvc.GetTripByID(user.ID, trip.ID)
		testutil.AssertNoError(t, err)
		if got.SpentTotal != 0 {
			t.Errorf("expected spent total 0 after single restore, got %f", got.SpentTotal)
		}
	})

	t.Run("forbidden_for_other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(owner.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		expense, err := expenseSvc.CreateExpense(owner.ID, trip.ID, "food", 200,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertNoError(t, err)

		err = expenseSvc.DeleteExpense(other.ID, expense.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}

func TestUpdateExpense(t *testing.T) {
	strPtr := func(s string) *string { return &s }
	f64Ptr := func(f float64) *float64 { return &f }
	timePtr := func(ts time.Time) *time.Time { return &ts }

	t.Run("amount_change_reconciles_delta", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		expense, err := expenseSvc.CreateExpense(user.ID, trip.ID, "food", 200,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertNoError(t, err)

		updated, err := expenseSvc.UpdateExpense(user.ID, expense.ID, ExpenseUpdateFields{
			Amount: f64Ptr(150),
		})
		testutil.AssertNoError(t, err)
		if updated.Amount != 150 {
			t.Errorf("expected amount 150, got %f", updated.Amount)
		}

		got, err := tripSvc.GetTripByID(user.ID, trip.ID)
		testutil.AssertNoError(t, err)
		if got.SpentTotal != 150 {
			t.Errorf("expected spent total 150, got %f", got.SpentTotal)
		}
		if got.RemainingBudget != 850 {
			t.Errorf("expected remaining budget 850, got %f", got.RemainingBudget)
		}
	})

	t.Run("category_change_leaves_budget_alone", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		expense, err := expenseSvc.CreateExpense(user.ID, trip.ID, "food", 200,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertNoError(t, err)

		updated, err := expenseSvc.UpdateExpense(user.ID, expense.ID, ExpenseUpdateFields{
			Category: strPtr("dining"),
		})
		testutil.AssertNoError(t, err)
		if updated.Category != "dining" {
			t.Errorf("expected category dining, got %s", updated.Category)
		}

		got, err := tripSvc.GetTripByID(user.ID, trip.ID)
		testutil.AssertNoError(t, err)
		if got.SpentTotal != 200 {
			t.Errorf("expected spent total unchanged at 200, got %f", got.SpentTotal)
		}
	})

	t.Run("date_revalidated_against_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		expense, err := expenseSvc.CreateExpense(user.ID, trip.ID, "food", 200,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertNoError(t, err)

		_, err = expenseSvc.UpdateExpense(user.ID, expense.ID, ExpenseUpdateFields{
			Date: timePtr(testutil.Day(2027, time.June, 9)),
		})
		testutil.AssertAppError(t, err, "EXPENSE_OUT_OF_RANGE")
	})

	t.Run("invalid_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		expense, err := expenseSvc.CreateExpense(user.ID, trip.ID, "food", 200,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertNoError(t, err)

		_, err = expenseSvc.UpdateExpense(user.ID, expense.ID, ExpenseUpdateFields{
			Amount: f64Ptr(0),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetTripExpenses(t *testing.T) {
	t.Run("paginated_newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(user.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		for day := 1; day <= 3; day++ {
			_, err := expenseSvc.CreateExpense(user.ID, trip.ID, "food", 10,
				testutil.Day(2027, time.June, day), "")
			testutil.AssertNoError(t, err)
		}

		result, err := expenseSvc.GetTripExpenses(user.ID, trip.ID, pagination.PageRequest{Page: 1, PageSize: 2})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 3 {
			t.Errorf("expected 3 expenses, got %d", result.TotalItems)
		}
		if len(result.Data) != 2 {
			t.Fatalf("expected 2 items on page, got %d", len(result.Data))
		}
		if result.Data[0].Date.Before(result.Data[1].Date) {
			t.Error("expected expenses ordered by date descending")
		}
	})
}

func TestGetExpenseByID(t *testing.T) {
	t.Run("transitive_ownership", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		tripSvc, expenseSvc := newExpenseFixture(t, db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		trip, err := tripSvc.CreateTrip(owner.ID, "Lisbon", 1000,
			testutil.Day(2027, time.June, 1), testutil.Day(2027, time.June, 5))
		testutil.AssertNoError(t, err)

		expense, err := expenseSvc.CreateExpense(owner.ID, trip.ID, "food", 200,
			testutil.Day(2027, time.June, 2), "")
		testutil.AssertNoError(t, err)

		got, err := expenseSvc.GetExpenseByID(owner.ID, expense.ID)
		testutil.AssertNoError(t, err)
		if got.ID != expense.ID {
			t.Errorf("expected expense %d, got %d", expense.ID, got.ID)
		}

		_, err = expenseSvc.GetExpenseByID(other.ID, expense.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, expenseSvc := newExpenseFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		_, err := expenseSvc.GetExpenseByID(user.ID, 99999)
		testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
	})
}
