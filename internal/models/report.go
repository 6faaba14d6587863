package models

// Report is a persisted snapshot of a trip's spending at a point in time:
// the total spent and the per-category breakdown.
type Report struct {
	Base
	TripID     uint               `gorm:"not null;index" json:"trip_id"`
	TotalSpent float64            `gorm:"not null" json:"total_spent"`
	Breakdown  map[string]float64 `gorm:"serializer:json;type:text" json:"breakdown"`

	Trip *Trip `gorm:"foreignKey:TripID" json:"trip,omitempty"`
}
