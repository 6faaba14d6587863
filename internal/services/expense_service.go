package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"travelbudget/internal/cache"
	apperrors "travelbudget/internal/errors"
	"travelbudget/internal/models"
	"travelbudget/internal/pagination"
)

// expenseService handles expense-related business logic. Every mutation
// invokes the budget reconciler exactly once, inside the same database
// transaction as the expense write.
type expenseService struct {
	db         *gorm.DB
	trips      TripServicer
	reconciler BudgetReconciler
	cache      cache.StatsCache
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, trips TripServicer, reconciler BudgetReconciler, statsCache cache.StatsCache) ExpenseServicer {
	return &expenseService{
		db:         db,
		trips:      trips,
		reconciler: reconciler,
		cache:      statsCache,
	}
}

// CreateExpense records a new expense against a trip the user owns.
// The amount must be strictly positive and the date must fall within the
// trip's date range.
func (s *expenseService) CreateExpense(userID, tripID uint, category string, amount float64, date time.Time, notes string) (*models.Expense, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if strings.TrimSpace(category) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}

	trip, err := s.trips.GetTripByID(userID, tripID)
	if err != nil {
		return nil, err
	}

	date = models.TruncateToDay(date)
	if date.Before(trip.StartDate) || date.After(trip.EndDate) {
		return nil, apperrors.ErrExpenseOutOfRange
	}

	expense := &models.Expense{
		TripID:   trip.ID,
		Category: strings.TrimSpace(category),
		Amount:   amount,
		Date:     date,
		Notes:    notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.reconciler.Reconcile(tx, trip.ID, amount)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(context.Background(), trip.ID)
	return expense, nil
}

// GetTripExpenses returns a paginated list of a trip's expenses, newest
// date first.
func (s *expenseService) GetTripExpenses(userID, tripID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	trip, err := s.trips.GetTripByID(userID, tripID)
	if err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("trip_id = ?", trip.ID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetExpenseByID returns an expense. Ownership is resolved transitively:
// the expense belongs to whoever owns its parent trip.
func (s *expenseService) GetExpenseByID(userID, expenseID uint) (*models.Expense, error) {
	expense, _, err := s.getOwnedExpense(userID, expenseID)
	return expense, err
}

// UpdateExpense updates an expense's category, amount, date, or notes.
// An amount change reconciles the trip budget with the delta between new
// and old; a date change is re-validated against the trip's range.
func (s *expenseService) UpdateExpense(userID, expenseID uint, fields ExpenseUpdateFields) (*models.Expense, error) {
	expense, trip, err := s.getOwnedExpense(userID, expenseID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	var delta float64

	if fields.Category != nil {
		if strings.TrimSpace(*fields.Category) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
		}
		updates["category"] = strings.TrimSpace(*fields.Category)
	}

	if fields.Amount != nil {
		if *fields.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		delta = *fields.Amount - expense.Amount
		updates["amount"] = *fields.Amount
	}

	if fields.Date != nil {
		date := models.TruncateToDay(*fields.Date)
		if date.Before(trip.StartDate) || date.After(trip.EndDate) {
			return nil, apperrors.ErrExpenseOutOfRange
		}
		updates["date"] = date
	}

	if fields.Notes != nil {
		updates["notes"] = *fields.Notes
	}

	if len(updates) == 0 {
		return expense, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(expense).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if delta != 0 {
			return s.reconciler.Reconcile(tx, trip.ID, delta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(context.Background(), trip.ID)

	if err := s.db.First(expense, expense.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// DeleteExpense removes an expense and restores its amount to the trip's
// budget. Deleting the same expense twice fails NotFound the second time
// without touching the budget again.
func (s *expenseService) DeleteExpense(userID, expenseID uint) error {
	expense, trip, err := s.getOwnedExpense(userID, expenseID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.reconciler.Reconcile(tx, trip.ID, -expense.Amount)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(context.Background(), trip.ID)
	return nil
}

// getOwnedExpense loads an expense and its parent trip, verifying transitive
// ownership. The trip lookup is an explicit capability check, not a storage
// side effect.
func (s *expenseService) getOwnedExpense(userID, expenseID uint) (*models.Expense, *models.Trip, error) {
	var expense models.Expense
	if err := s.db.First(&expense, expenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrExpenseNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	trip, err := s.trips.GetTripByID(userID, expense.TripID)
	if err != nil {
		return nil, nil, err
	}

	return &expense, trip, nil
}
