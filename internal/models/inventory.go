package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryRecord is one receipt batch of a product on a shelf level of a location.
// Rows with zero quantity are deleted, never kept.
type InventoryRecord struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ProductID  uuid.UUID `json:"product_id" db:"product_id"`
	LocationID uuid.UUID `json:"location_id" db:"location_id"`
	ShelfLevel string    `json:"shelf_level" db:"shelf_level"`
	Quantity   int       `json:"quantity" db:"quantity"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}

// Product carries the attributes placement rules are evaluated against.
// VolumeLiters and WeightKg are per unit and invalid when the product has no unit row.
type Product struct {
	ID           uuid.UUID           `json:"id" db:"id"`
	Name         string              `json:"name" db:"name"`
	Category     string              `json:"category" db:"category"`
	VolumeLiters decimal.NullDecimal `json:"volume_liters" db:"volume_liters"`
	WeightKg     decimal.NullDecimal `json:"weight_kg" db:"weight_kg"`
}

// ProductStock is the summed quantity of one product on one shelf level
type ProductStock struct {
	Product
	Quantity int `json:"quantity"`
}
