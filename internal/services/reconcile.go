package services

import (
	"gorm.io/gorm"

	apperrors "travelbudget/internal/errors"
	"travelbudget/internal/models"
)

// budgetReconciler adjusts a trip's spent total by a signed delta.
//
// The adjustment is a single atomic SQL increment, not a read-modify-write,
// so two concurrent expense writes against the same trip cannot clobber each
// other's adjustment. It runs inside the expense mutation's transaction:
// either both the expense row and the spent total move, or neither does.
type budgetReconciler struct{}

// NewBudgetReconciler creates a new BudgetReconciler.
func NewBudgetReconciler() BudgetReconciler {
	return &budgetReconciler{}
}

// Reconcile applies amountDelta to the trip's spent total. A positive delta
// records new spending, a negative delta restores budget. The spent total is
// kept unclamped; remaining budget is clamped to zero only when derived for
// presentation, so later corrections lose no information.
func (r *budgetReconciler) Reconcile(tx *gorm.DB, tripID uint, amountDelta float64) error {
	if amountDelta == 0 {
		return nil
	}

	res := tx.Model(&models.Trip{}).
		Where("id = ?", tripID).
		Update("spent_total", gorm.Expr("spent_total + ?", amountDelta))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrReconciliation, res.Error)
	}
	if res.RowsAffected == 0 {
		// The expense write succeeded but the trip row is gone; abort the
		// transaction rather than leave the invariant broken.
		return apperrors.WithMessage(apperrors.ErrReconciliation, "trip vanished during budget reconciliation")
	}
	return nil
}
