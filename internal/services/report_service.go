package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"travelbudget/internal/cache"
	apperrors "travelbudget/internal/errors"
	"travelbudget/internal/logger"
	"travelbudget/internal/models"
	"travelbudget/internal/pagination"
)

// statsCacheTTL bounds staleness of cached statistics; every expense
// mutation invalidates eagerly anyway.
const statsCacheTTL = 5 * time.Minute

// reportService produces read-only spending rollups and persisted report
// snapshots. It never mutates trips or expenses.
type reportService struct {
	db    *gorm.DB
	trips TripServicer
	cache cache.StatsCache
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB, trips TripServicer, statsCache cache.StatsCache) ReportServicer {
	return &reportService{db: db, trips: trips, cache: statsCache}
}

// GetTripStatistics returns the spending rollup for a trip: total spent,
// budget figures, per-category breakdown, and per-day spending keyed by ISO
// calendar date.
func (s *reportService) GetTripStatistics(ctx context.Context, userID, tripID uint) (*TripStatistics, error) {
	trip, err := s.trips.GetTripByID(userID, tripID)
	if err != nil {
		return nil, err
	}

	if payload, ok := s.cache.GetStats(ctx, trip.ID); ok {
		var cached TripStatistics
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
		logger.Get().Warnw("discarding corrupt cached statistics", "trip_id", trip.ID)
	}

	expenses, err := s.tripExpenses(trip.ID)
	if err != nil {
		return nil, err
	}

	stats := &TripStatistics{
		TotalBudget:       trip.TotalBudget,
		RemainingBudget:   trip.RemainingBudget,
		CategoryBreakdown: make(map[string]float64),
		DailySpending:     make(map[string]float64),
	}
	for _, e := range expenses {
		stats.TotalSpent += e.Amount
		stats.CategoryBreakdown[e.Category] += e.Amount
		stats.DailySpending[e.Date.Format("2006-01-02")] += e.Amount
	}

	if payload, err := json.Marshal(stats); err == nil {
		s.cache.SetStats(ctx, trip.ID, payload, statsCacheTTL)
	}

	return stats, nil
}

// CompareTrips compares the spending of two trips of the same owner.
// The percentage difference is nil when the first trip has zero spend:
// a percentage against a zero baseline is undefined, and reporting null is
// preferable to an infinity or an error.
func (s *reportService) CompareTrips(userID, tripID1, tripID2 uint) (*TripComparison, error) {
	trip1, err := s.trips.GetTripByID(userID, tripID1)
	if err != nil {
		return nil, err
	}
	trip2, err := s.trips.GetTripByID(userID, tripID2)
	if err != nil {
		return nil, err
	}

	side1, err := s.comparisonSide(trip1)
	if err != nil {
		return nil, err
	}
	side2, err := s.comparisonSide(trip2)
	if err != nil {
		return nil, err
	}

	diff := ComparisonDifferences{
		TotalSpent:   side2.TotalSpent - side1.TotalSpent,
		DailyAverage: side2.DailyAverage - side1.DailyAverage,
	}
	if side1.TotalSpent != 0 {
		pct := (side2.TotalSpent - side1.TotalSpent) / side1.TotalSpent * 100
		diff.PercentageDiff = &pct
	}

	return &TripComparison{Trip1: *side1, Trip2: *side2, Differences: diff}, nil
}

// CreateReport snapshots a trip's current total spent and category
// breakdown into a persisted report.
func (s *reportService) CreateReport(userID, tripID uint) (*models.Report, error) {
	trip, err := s.trips.GetTripByID(userID, tripID)
	if err != nil {
		return nil, err
	}

	totalSpent, breakdown, err := s.aggregate(trip.ID)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		TripID:     trip.ID,
		TotalSpent: totalSpent,
		Breakdown:  breakdown,
	}
	if err := s.db.Create(report).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return report, nil
}

// GetTripReports returns a paginated list of a trip's reports, newest first.
func (s *reportService) GetTripReports(userID, tripID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Report], error) {
	trip, err := s.trips.GetTripByID(userID, tripID)
	if err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Report{}).Where("trip_id = ?", trip.ID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var reports []models.Report
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&reports).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(reports, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetReportByID returns a report, with ownership resolved through its trip.
func (s *reportService) GetReportByID(userID, reportID uint) (*models.Report, error) {
	report, _, err := s.getOwnedReport(userID, reportID)
	return report, err
}

// DeleteReport removes a report the user owns transitively.
func (s *reportService) DeleteReport(userID, reportID uint) error {
	report, _, err := s.getOwnedReport(userID, reportID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(report).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetAllReports returns every report across all of the user's trips,
// newest first.
func (s *reportService) GetAllReports(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Report], error) {
	page.Defaults()

	base := s.db.Model(&models.Report{}).
		Joins("JOIN trips ON trips.id = reports.trip_id").
		Where("trips.user_id = ? AND trips.deleted_at IS NULL", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var reports []models.Report
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Trip").
		Order("reports.created_at DESC").
		Find(&reports).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(reports, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *reportService) comparisonSide(trip *models.Trip) (*TripComparisonSide, error) {
	totalSpent, breakdown, err := s.aggregate(trip.ID)
	if err != nil {
		return nil, err
	}

	duration := trip.Duration()
	return &TripComparisonSide{
		ID:           trip.ID,
		Name:         trip.TripName,
		TotalSpent:   totalSpent,
		Breakdown:    breakdown,
		DailyAverage: totalSpent / float64(duration),
		Duration:     duration,
	}, nil
}

func (s *reportService) aggregate(tripID uint) (float64, map[string]float64, error) {
	expenses, err := s.tripExpenses(tripID)
	if err != nil {
		return 0, nil, err
	}

	var totalSpent float64
	breakdown := make(map[string]float64)
	for _, e := range expenses {
		totalSpent += e.Amount
		breakdown[e.Category] += e.Amount
	}
	return totalSpent, breakdown, nil
}

func (s *reportService) tripExpenses(tripID uint) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := s.db.Where("trip_id = ?", tripID).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}

func (s *reportService) getOwnedReport(userID, reportID uint) (*models.Report, *models.Trip, error) {
	var report models.Report
	if err := s.db.First(&report, reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrReportNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	trip, err := s.trips.GetTripByID(userID, report.TripID)
	if err != nil {
		return nil, nil, err
	}

	return &report, trip, nil
}
