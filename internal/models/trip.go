package models

import (
	"time"

	"gorm.io/gorm"
)

// TripStatus represents the lifecycle status of a trip relative to today.
type TripStatus string

const (
	TripStatusUpcoming TripStatus = "upcoming"
	TripStatusActive   TripStatus = "active"
	TripStatusDeactive TripStatus = "deactive"
)

// Trip represents a budgeted travel period owned by a user.
//
// TotalBudget and SpentTotal are the only stored monetary columns.
// SpentTotal is the unclamped running sum of expense amounts, maintained by
// a single atomic SQL increment per expense mutation. RemainingBudget,
// DailyAverage, DurationDays, and Status are derived on read, so deleting an
// expense after the budget was exhausted fully restores the remaining
// amount; clamping to zero happens only at presentation.
//
// Amounts are float64 to match the product's free-form decimal entry and
// chart divisions.
type Trip struct {
	Base
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	TripName    string    `gorm:"not null" json:"trip_name"`
	TotalBudget float64   `gorm:"not null" json:"total_budget"`
	SpentTotal  float64   `gorm:"not null;default:0" json:"spent_total"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`

	// Persisted so the sweeper can bulk-refresh it, but always recomputed
	// from the dates on read.
	Status TripStatus `gorm:"not null;default:upcoming" json:"status"`

	// Derived fields, never stored.
	RemainingBudget float64 `gorm:"-" json:"remaining_budget"`
	DailyAverage    float64 `gorm:"-" json:"daily_average"`
	DurationDays    int     `gorm:"-" json:"duration_days"`

	Expenses []Expense `gorm:"foreignKey:TripID" json:"expenses,omitempty"`
}

// Duration returns the trip length in days, inclusive of both endpoints,
// never less than one. Dates are normalized to UTC midnight, so a trip from
// June 1 to June 5 lasts five days.
func (t *Trip) Duration() int {
	days := int(t.EndDate.Sub(t.StartDate)/(24*time.Hour)) + 1
	if days < 1 {
		days = 1
	}
	return days
}

// DeriveStatus is a pure function of the trip's date range and the given
// clock. The end date is inclusive: a trip stays active through the whole
// of its last day.
func (t *Trip) DeriveStatus(now time.Time) TripStatus {
	if now.Before(t.StartDate) {
		return TripStatusUpcoming
	}
	if now.Before(t.EndDate.AddDate(0, 0, 1)) {
		return TripStatusActive
	}
	return TripStatusDeactive
}

// Recalculate refreshes every derived field from the stored columns.
// Date boundaries are crossed by wall-clock time alone, so this runs on
// every read as well as after every write.
func (t *Trip) Recalculate(now time.Time) {
	t.DurationDays = t.Duration()

	t.RemainingBudget = t.TotalBudget - t.SpentTotal
	if t.RemainingBudget < 0 {
		t.RemainingBudget = 0
	}

	t.DailyAverage = (t.TotalBudget - t.RemainingBudget) / float64(t.DurationDays)
	t.Status = t.DeriveStatus(now)
}

// AfterFind keeps derived fields fresh on every load.
func (t *Trip) AfterFind(tx *gorm.DB) error {
	t.Recalculate(time.Now().UTC())
	return nil
}

// Overlaps reports whether this trip's date range intersects [start, end].
// Both ranges are treated as inclusive.
func (t *Trip) Overlaps(start, end time.Time) bool {
	return !t.StartDate.After(end) && !t.EndDate.Before(start)
}

// TruncateToDay normalizes a timestamp to UTC midnight. All trip and
// expense dates are stored in this form.
func TruncateToDay(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}
