package models

import (
	"time"

	"github.com/google/uuid"
)

// Location status and type values
const (
	LocationStatusActive   = "active"
	LocationStatusInactive = "inactive"

	LocationTypeShelf = "shelf"
)

// Location is a physical storage unit subdivided into shelf levels
type Location struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Code             string    `json:"code" db:"code"`
	Type             string    `json:"type" db:"type"`
	Zone             string    `json:"zone" db:"zone"`
	Capacity         int       `json:"capacity" db:"capacity"`
	Levels           int       `json:"levels" db:"levels"`
	Status           string    `json:"status" db:"status"`
	CurrentOccupancy int       `json:"current_occupancy" db:"current_occupancy"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultLevelCapacity is the per-level share of the location capacity,
// used when a level has no items_capacity override.
func (l *Location) DefaultLevelCapacity() int {
	if l == nil || l.Levels <= 0 {
		return 0
	}
	return l.Capacity / l.Levels
}
