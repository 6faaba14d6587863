package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"travelbudget/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Day builds a UTC midnight timestamp, the normalized form all trip and
// expense dates are stored in.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
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
		Name:     fmt.Sprintf("Test User %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTrip creates a trip with the given budget and date range.
func CreateTestTrip(t *testing.T, db *gorm.DB, userID uint, budget float64, start, end time.Time) *models.Trip {
	t.Helper()

	trip := &models.Trip{
		UserID:      userID,
		TripName:    fmt.Sprintf("Test Trip %d", nextID()),
		TotalBudget: budget,
		StartDate:   models.TruncateToDay(start),
		EndDate:     models.TruncateToDay(end),
	}
	trip.Status = trip.DeriveStatus(time.Now().UTC())
	if err := db.Create(trip).Error; err != nil {
		t.Fatalf("failed to create test trip: %v", err)
	}
	return trip
}

// CreateTestExpense inserts a raw expense row without touching the trip's
// spent total. Tests that exercise budget reconciliation should go through
// the expense service instead.
func CreateTestExpense(t *testing.T, db *gorm.DB, tripID uint, category string, amount float64, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		TripID:   tripID,
		Category: category,
		Amount:   amount,
		Date:     models.TruncateToDay(date),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}
