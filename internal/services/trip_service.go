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

// tripService handles trip-related business logic.
type tripService struct {
	db    *gorm.DB
	cache cache.StatsCache
}

// NewTripService creates a new TripServicer.
func NewTripService(db *gorm.DB, statsCache cache.StatsCache) TripServicer {
	return &tripService{db: db, cache: statsCache}
}

// CreateTrip creates a new trip for a user. The remaining budget starts
// equal to the total budget and the daily average at zero, both derived
// from a zero spent total.
func (s *tripService) CreateTrip(userID uint, tripName string, totalBudget float64, startDate, endDate time.Time) (*models.Trip, error) {
	if strings.TrimSpace(tripName) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "trip name is required")
	}
	if totalBudget < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total budget cannot be negative")
	}

	startDate = models.TruncateToDay(startDate)
	endDate = models.TruncateToDay(endDate)
	if endDate.Before(startDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
	}

	overlap, err := s.hasOverlap(userID, 0, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, apperrors.ErrTripOverlap
	}

	trip := &models.Trip{
		UserID:      userID,
		TripName:    strings.TrimSpace(tripName),
		TotalBudget: totalBudget,
		SpentTotal:  0,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	trip.Status = trip.DeriveStatus(time.Now().UTC())

	if err := s.db.Create(trip).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	trip.Recalculate(time.Now().UTC())
	return trip, nil
}

// GetUserTrips returns a paginated list of the user's trips, most recent
// start date first. Statuses are recomputed on read by the model hook.
func (s *tripService) GetUserTrips(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Trip], error) {
	page.Defaults()

	base := s.db.Model(&models.Trip{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var trips []models.Trip
	if err := base.Scopes(pagination.Paginate(page)).
		Order("start_date DESC").
		Find(&trips).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(trips, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTripByID returns a trip by ID. A trip that exists but belongs to
// another user is Forbidden, not NotFound: the ownership check is a
// capability check, performed explicitly after the lookup.
func (s *tripService) GetTripByID(userID, tripID uint) (*models.Trip, error) {
	var trip models.Trip
	if err := s.db.Preload("Expenses").First(&trip, tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTripNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if trip.UserID != userID {
		return nil, apperrors.ErrForbidden
	}

	return &trip, nil
}

// UpdateTrip updates a trip's name, budget, or dates.
//
// Date changes re-validate ordering and re-run the overlap check excluding
// the trip's own id, so a trip never conflicts with itself. A total budget
// change shifts the remaining headroom additively: remaining budget derives
// from total minus spent, so previously recorded spending is preserved.
func (s *tripService) UpdateTrip(userID, tripID uint, fields TripUpdateFields) (*models.Trip, error) {
	trip, err := s.GetTripByID(userID, tripID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if fields.TripName != nil {
		if strings.TrimSpace(*fields.TripName) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "trip name is required")
		}
		updates["trip_name"] = strings.TrimSpace(*fields.TripName)
	}

	if fields.TotalBudget != nil {
		if *fields.TotalBudget < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total budget cannot be negative")
		}
		updates["total_budget"] = *fields.TotalBudget
	}

	newStart := trip.StartDate
	newEnd := trip.EndDate
	datesChanged := false
	if fields.StartDate != nil {
		newStart = models.TruncateToDay(*fields.StartDate)
		datesChanged = true
	}
	if fields.EndDate != nil {
		newEnd = models.TruncateToDay(*fields.EndDate)
		datesChanged = true
	}

	if datesChanged {
		if newEnd.Before(newStart) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
		}

		overlap, err := s.hasOverlap(userID, trip.ID, newStart, newEnd)
		if err != nil {
			return nil, err
		}
		if overlap {
			return nil, apperrors.ErrTripOverlap
		}

		updates["start_date"] = newStart
		updates["end_date"] = newEnd
	}

	if len(updates) == 0 {
		return trip, nil
	}

	// Status depends on the (possibly new) dates.
	probe := models.Trip{StartDate: newStart, EndDate: newEnd}
	updates["status"] = probe.DeriveStatus(time.Now().UTC())

	if err := s.db.Model(trip).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Budget and date changes alter the statistics payload.
	s.cache.Invalidate(context.Background(), trip.ID)

	return s.GetTripByID(userID, tripID)
}

// DeleteTrip deletes a trip and cascades deletion of its expenses in one
// transaction. The orphaned expenses need no budget reconciliation since the
// trip itself is being removed.
func (s *tripService) DeleteTrip(userID, tripID uint) error {
	trip, err := s.GetTripByID(userID, tripID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ?", trip.ID).Delete(&models.Expense{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(trip).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(context.Background(), trip.ID)
	return nil
}

// hasOverlap reports whether the user has another trip whose inclusive date
// range intersects [start, end]. excludeID skips the trip being updated;
// without the exclusion every update would conflict against itself.
func (s *tripService) hasOverlap(userID, excludeID uint, start, end time.Time) (bool, error) {
	q := s.db.Model(&models.Trip{}).
		Where("user_id = ? AND start_date <= ? AND end_date >= ?", userID, end, start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}
