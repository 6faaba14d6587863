package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"travelbudget/internal/models"
	"travelbudget/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// TripUpdateFields holds the optional fields of a trip update. Nil means
// "leave unchanged".
type TripUpdateFields struct {
	TripName    *string
	TotalBudget *float64
	StartDate   *time.Time
	EndDate     *time.Time
}

// TripServicer defines the contract for trip-related business logic.
type TripServicer interface {
	CreateTrip(userID uint, tripName string, totalBudget float64, startDate, endDate time.Time) (*models.Trip, error)
	GetUserTrips(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Trip], error)
	GetTripByID(userID, tripID uint) (*models.Trip, error)
	UpdateTrip(userID, tripID uint, fields TripUpdateFields) (*models.Trip, error)
	DeleteTrip(userID, tripID uint) error
}

// ExpenseUpdateFields holds the optional fields of an expense update.
// The trip reference is immutable and deliberately absent.
type ExpenseUpdateFields struct {
	Category *string
	Amount   *float64
	Date     *time.Time
	Notes    *string
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(userID, tripID uint, category string, amount float64, date time.Time, notes string) (*models.Expense, error)
	GetTripExpenses(userID, tripID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(userID, expenseID uint) (*models.Expense, error)
	UpdateExpense(userID, expenseID uint, fields ExpenseUpdateFields) (*models.Expense, error)
	DeleteExpense(userID, expenseID uint) error
}

// BudgetReconciler is the single entry point for adjusting a trip's spent
// total in response to an expense mutation. It must be invoked exactly once
// per mutation, inside the mutation's own database transaction, and never
// implicitly by the storage layer.
type BudgetReconciler interface {
	Reconcile(tx *gorm.DB, tripID uint, amountDelta float64) error
}

// TripStatistics is the read-only spending rollup for a single trip.
type TripStatistics struct {
	TotalSpent        float64            `json:"total_spent"`
	TotalBudget       float64            `json:"total_budget"`
	RemainingBudget   float64            `json:"remaining_budget"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	DailySpending     map[string]float64 `json:"daily_spending"`
}

// TripComparisonSide holds the aggregates for one trip in a comparison.
type TripComparisonSide struct {
	ID           uint               `json:"id"`
	Name         string             `json:"name"`
	TotalSpent   float64            `json:"total_spent"`
	Breakdown    map[string]float64 `json:"breakdown"`
	DailyAverage float64            `json:"daily_average"`
	Duration     int                `json:"duration"`
}

// ComparisonDifferences holds the trip2-minus-trip1 deltas.
// PercentageDiff is nil when trip1 has zero spend, since the percentage is
// undefined against a zero baseline.
type ComparisonDifferences struct {
	TotalSpent     float64  `json:"total_spent"`
	DailyAverage   float64  `json:"daily_average"`
	PercentageDiff *float64 `json:"percentage_difference"`
}

// TripComparison is the result of comparing two trips of the same owner.
type TripComparison struct {
	Trip1       TripComparisonSide    `json:"trip1"`
	Trip2       TripComparisonSide    `json:"trip2"`
	Differences ComparisonDifferences `json:"differences"`
}

// ReportServicer defines the contract for statistics and persisted reports.
// All operations are read-only with respect to trips and expenses.
type ReportServicer interface {
	GetTripStatistics(ctx context.Context, userID, tripID uint) (*TripStatistics, error)
	CompareTrips(userID, tripID1, tripID2 uint) (*TripComparison, error)
	CreateReport(userID, tripID uint) (*models.Report, error)
	GetTripReports(userID, tripID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Report], error)
	GetReportByID(userID, reportID uint) (*models.Report, error)
	DeleteReport(userID, reportID uint) error
	GetAllReports(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Report], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
