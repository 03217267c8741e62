package models

import (
	"github.com/google/uuid"
)

// OccupancySnapshot is the derived occupancy of one level at analysis time
type OccupancySnapshot struct {
	LevelNumber         int            `json:"level_number"`
	ShelfLevel          string         `json:"shelf_level"`
	UniqueProducts      int            `json:"unique_products"`
	TotalItems          int            `json:"total_items"`
	LevelCapacity       int            `json:"level_capacity"`
	OccupancyPercentage float64        `json:"occupancy_percentage"`
	AvailableSpace      int            `json:"available_space"`
	Categories          []string       `json:"categories"`
	Products            []ProductStock `json:"products"`
}

// NewOccupancySnapshot derives the snapshot figures from the level stock.
// products must already be aggregated per product.
func NewOccupancySnapshot(level int, shelf string, capacity int, products []ProductStock) *OccupancySnapshot {
	s := &OccupancySnapshot{
		LevelNumber:   level,
		ShelfLevel:    shelf,
		LevelCapacity: capacity,
		Categories:    []string{},
		Products:      products,
	}
	seen := make(map[string]struct{})
	for _, p := range products {
		if p.Quantity <= 0 {
			continue
		}
		s.UniqueProducts++
		s.TotalItems += p.Quantity
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			s.Categories = append(s.Categories, p.Category)
		}
	}
	if capacity > 0 {
		s.OccupancyPercentage = float64(s.TotalItems) / float64(capacity) * 100
	}
	if capacity > s.TotalItems {
		s.AvailableSpace = capacity - s.TotalItems
	}
	return s
}

// Quantity returns the summed quantity of productID on the level
func (s *OccupancySnapshot) Quantity(productID uuid.UUID) int {
	for _, p := range s.Products {
		if p.ID == productID {
			return p.Quantity
		}
	}
	return 0
}

// PlacementRule names the placement check a product failed
type PlacementRule string

const (
	RuleNone          PlacementRule = ""
	RuleSingleProduct PlacementRule = "single_product"
	RuleCategory      PlacementRule = "category"
	RuleDedicated     PlacementRule = "dedicated_product"
	RuleVolumeMin     PlacementRule = "volume_min"
	RuleVolumeMax     PlacementRule = "volume_max"
	RuleWeightMin     PlacementRule = "weight_min"
	RuleWeightMax     PlacementRule = "weight_max"
)

// PlacementResult is the outcome of validating a product against a level
type PlacementResult struct {
	Valid  bool          `json:"valid"`
	Rule   PlacementRule `json:"rule,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// ViolationKind discriminates Violation
type ViolationKind string

const (
	ViolationOverThreshold ViolationKind = "over_threshold"
	ViolationPolicy        ViolationKind = "policy_violation"
	ViolationPlacement     ViolationKind = "placement_violation"
)

// Violation is one issue found on a level. Fields beyond Kind and Level are set per kind:
//
//	over_threshold:      Occupancy, Threshold
//	policy_violation:    Policy, ProductCount
//	placement_violation: ProductID, Rule, Reason
type Violation struct {
	Kind         ViolationKind `json:"type"`
	Level        int           `json:"level"`
	Occupancy    float64       `json:"occupancy,omitempty"`
	Threshold    int           `json:"threshold,omitempty"`
	Policy       PolicyKind    `json:"policy,omitempty"`
	ProductCount int           `json:"product_count,omitempty"`
	ProductID    *uuid.UUID    `json:"product_id,omitempty"`
	Rule         PlacementRule `json:"rule,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

func NewOverThreshold(level int, occupancy float64, threshold int) Violation {
	return Violation{Kind: ViolationOverThreshold, Level: level, Occupancy: occupancy, Threshold: threshold}
}

func NewPolicyViolation(level int, policy PolicyKind, productCount int) Violation {
	return Violation{Kind: ViolationPolicy, Level: level, Policy: policy, ProductCount: productCount}
}

func NewPlacementViolation(level int, productID uuid.UUID, result PlacementResult) Violation {
	id := productID
	return Violation{Kind: ViolationPlacement, Level: level, ProductID: &id, Rule: result.Rule, Reason: result.Reason}
}

// LevelAnalysis is the result of analysing every configured level of a location
type LevelAnalysis struct {
	LocationID uuid.UUID                  `json:"location_id"`
	Location   *Location                  `json:"-"`
	Levels     map[int]*OccupancySnapshot `json:"levels"`
	Configs    map[int]*LevelConfig       `json:"-"`
	Issues     []Violation                `json:"issues"`
	// Order lists the analysed level numbers ascending
	Order []int `json:"-"`
}
