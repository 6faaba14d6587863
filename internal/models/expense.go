package models

import "time"

// Expense represents a single spend entry attached to exactly one trip.
// The trip reference is immutable after creation; ownership is resolved
// transitively through the parent trip.
type Expense struct {
	Base
	TripID   uint      `gorm:"not null;index" json:"trip_id"`
	Category string    `gorm:"not null" json:"category"`
	Amount   float64   `gorm:"not null" json:"amount"`
	Date     time.Time `gorm:"not null" json:"date"`
	Notes    string    `json:"notes,omitempty"`

	Trip *Trip `gorm:"foreignKey:TripID" json:"trip,omitempty"`
}
