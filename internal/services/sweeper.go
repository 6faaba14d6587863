package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "travelbudget/internal/errors"
	"travelbudget/internal/logger"
	"travelbudget/internal/models"
)

// StatusSweeper periodically refreshes the persisted status of every trip.
// Trip statuses change by wall-clock time alone, so trips nobody reads or
// writes would otherwise keep a stale stored status. The sweep is
// idempotent and retriable; reads still recompute the status themselves, so
// the sweep can run on any schedule without correctness risk.
type StatusSweeper struct {
	db       *gorm.DB
	interval time.Duration
}

// NewStatusSweeper creates a sweeper with the given interval.
func NewStatusSweeper(db *gorm.DB, interval time.Duration) *StatusSweeper {
	return &StatusSweeper{db: db, interval: interval}
}

// Start runs the sweep loop until ctx is cancelled. It sweeps once
// immediately, then on every tick.
func (s *StatusSweeper) Start(ctx context.Context) {
	go func() {
		if err := s.Sweep(time.Now().UTC()); err != nil {
			logger.Get().Errorw("trip status sweep failed", "error", err)
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Sweep(time.Now().UTC()); err != nil {
					logger.Get().Errorw("trip status sweep failed", "error", err)
				}
			}
		}
	}()
}

// Sweep persists the derived status of all trips in three bulk updates.
// Dates are stored at UTC midnight and the end date is inclusive, so a trip
// is active whenever today lies in [start_date, end_date].
func (s *StatusSweeper) Sweep(now time.Time) error {
	today := models.TruncateToDay(now)

	if err := s.db.Model(&models.Trip{}).
		Where("start_date > ?", today).
		Where("status <> ?", models.TripStatusUpcoming).
		Update("status", models.TripStatusUpcoming).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&models.Trip{}).
		Where("start_date <= ? AND end_date >= ?", today, today).
		Where("status <> ?", models.TripStatusActive).
		Update("status", models.TripStatusActive).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&models.Trip{}).
		Where("end_date < ?", today).
		Where("status <> ?", models.TripStatusDeactive).
		Update("status", models.TripStatusDeactive).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Debugw("trip statuses refreshed", "as_of", today.Format("2006-01-02"))
	return nil
}
