package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PolicyKind is the persisted name of a storage policy
type PolicyKind string

const (
	PolicyMultipleProducts   PolicyKind = "multiple_products"
	PolicySingleProductType  PolicyKind = "single_product_type"
	PolicyCategoryRestricted PolicyKind = "category_restricted"
	PolicyDedicatedProduct   PolicyKind = "dedicated_product"
)

// Default level configuration values
const (
	DefaultRepartitionThreshold = 80
	DefaultSubdivisionCount     = 1
)

// StoragePolicy governs which products, and how many distinct ones, may share a level.
// Implementations are MultipleProducts, SingleProductType, CategoryRestricted and
// DedicatedProduct; a type switch over them is exhaustive.
type StoragePolicy interface {
	Kind() PolicyKind
	storagePolicy()
}

// MultipleProducts allows any mix of products
type MultipleProducts struct{}

// SingleProductType allows one distinct product at a time
type SingleProductType struct{}

// CategoryRestricted allows only products whose category is listed.
// An empty list restricts nothing.
type CategoryRestricted struct {
	Allowed []string `json:"allowed"`
}

// DedicatedProduct reserves the level for one product. A nil ProductID restricts nothing.
type DedicatedProduct struct {
	ProductID *uuid.UUID `json:"product_id"`
}

func (MultipleProducts) Kind() PolicyKind   { return PolicyMultipleProducts }
func (SingleProductType) Kind() PolicyKind  { return PolicySingleProductType }
func (CategoryRestricted) Kind() PolicyKind { return PolicyCategoryRestricted }
func (DedicatedProduct) Kind() PolicyKind   { return PolicyDedicatedProduct }

func (MultipleProducts) storagePolicy()   {}
func (SingleProductType) storagePolicy()  {}
func (CategoryRestricted) storagePolicy() {}
func (DedicatedProduct) storagePolicy()   {}

// Allows reports whether category is on the allow-list
func (p CategoryRestricted) Allows(category string) bool {
	if len(p.Allowed) == 0 {
		return true
	}
	for _, c := range p.Allowed {
		if c == category {
			return true
		}
	}
	return false
}

// ParsePolicyKind maps a persisted policy name to its kind. ok is false for unknown names.
func ParsePolicyKind(s string) (PolicyKind, bool) {
	switch PolicyKind(s) {
	case PolicyMultipleProducts, PolicySingleProductType, PolicyCategoryRestricted, PolicyDedicatedProduct:
		return PolicyKind(s), true
	}
	return PolicyMultipleProducts, false
}

// LevelConfig is the configuration of one level of a location, keyed by (LocationID, LevelNumber).
// StoredPolicy is the raw storage_policy column, kept to report unknown names.
type LevelConfig struct {
	LocationID                  uuid.UUID           `json:"location_id" db:"location_id"`
	LevelNumber                 int                 `json:"level_number" db:"level_number"`
	LevelName                   string              `json:"level_name" db:"level_name"`
	Policy                      StoragePolicy       `json:"-"`
	StoredPolicy                string              `json:"storage_policy" db:"storage_policy"`
	LengthMM                    int                 `json:"length_mm" db:"length_mm"`
	DepthMM                     int                 `json:"depth_mm" db:"depth_mm"`
	HeightMM                    int                 `json:"height_mm" db:"height_mm"`
	MaxWeightKg                 decimal.NullDecimal `json:"max_weight_kg" db:"max_weight_kg"`
	ItemsCapacity               *int                `json:"items_capacity" db:"items_capacity"`
	VolumeMinLiters             decimal.NullDecimal `json:"volume_min_liters" db:"volume_min_liters"`
	VolumeMaxLiters             decimal.NullDecimal `json:"volume_max_liters" db:"volume_max_liters"`
	WeightMinKg                 decimal.NullDecimal `json:"weight_min_kg" db:"weight_min_kg"`
	WeightMaxKg                 decimal.NullDecimal `json:"weight_max_kg" db:"weight_max_kg"`
	EnableAutoRepartition       bool                `json:"enable_auto_repartition" db:"enable_auto_repartition"`
	RepartitionTriggerThreshold int                 `json:"repartition_trigger_threshold" db:"repartition_trigger_threshold"`
	PriorityOrder               int                 `json:"priority_order" db:"priority_order"`
	SubdivisionCount            int                 `json:"subdivision_count" db:"subdivision_count"`
	UpdatedAt                   time.Time           `json:"updated_at" db:"updated_at"`
}

// StoragePolicy returns the configured policy, MultipleProducts when unset
func (c *LevelConfig) StoragePolicy() StoragePolicy {
	if c == nil || c.Policy == nil {
		return MultipleProducts{}
	}
	return c.Policy
}

// Capacity is the items capacity of the level: the override when set,
// otherwise the location capacity split evenly across its levels.
func (c *LevelConfig) Capacity(loc *Location) int {
	if c != nil && c.ItemsCapacity != nil {
		return *c.ItemsCapacity
	}
	return loc.DefaultLevelCapacity()
}

// NewDefaultLevelConfig returns the seeded configuration for one level.
// Lower levels get a higher priority since they are easier to reach.
func NewDefaultLevelConfig(locationID uuid.UUID, levelNumber, totalLevels int) *LevelConfig {
	return &LevelConfig{
		LocationID:                  locationID,
		LevelNumber:                 levelNumber,
		LevelName:                   DefaultLevelLabel(levelNumber),
		Policy:                      MultipleProducts{},
		RepartitionTriggerThreshold: DefaultRepartitionThreshold,
		PriorityOrder:               totalLevels - levelNumber + 1,
		SubdivisionCount:            DefaultSubdivisionCount,
	}
}

// LevelConfigPatch is a partial level configuration update; nil fields are left unchanged.
// Clear* flags reset nullable fields to NULL.
type LevelConfigPatch struct {
	LevelName                   *string          `json:"level_name,omitempty"`
	Policy                      StoragePolicy    `json:"-"`
	LengthMM                    *int             `json:"length_mm,omitempty"`
	DepthMM                     *int             `json:"depth_mm,omitempty"`
	HeightMM                    *int             `json:"height_mm,omitempty"`
	MaxWeightKg                 *decimal.Decimal `json:"max_weight_kg,omitempty"`
	ItemsCapacity               *int             `json:"items_capacity,omitempty"`
	ClearItemsCapacity          bool             `json:"clear_items_capacity,omitempty"`
	VolumeMinLiters             *decimal.Decimal `json:"volume_min_liters,omitempty"`
	VolumeMaxLiters             *decimal.Decimal `json:"volume_max_liters,omitempty"`
	WeightMinKg                 *decimal.Decimal `json:"weight_min_kg,omitempty"`
	WeightMaxKg                 *decimal.Decimal `json:"weight_max_kg,omitempty"`
	EnableAutoRepartition       *bool            `json:"enable_auto_repartition,omitempty"`
	RepartitionTriggerThreshold *int             `json:"repartition_trigger_threshold,omitempty"`
	PriorityOrder               *int             `json:"priority_order,omitempty"`
	SubdivisionCount            *int             `json:"subdivision_count,omitempty"`
}

// Apply writes the non-nil patch fields onto cfg
func (p *LevelConfigPatch) Apply(cfg *LevelConfig) {
	if p.LevelName != nil {
		cfg.LevelName = *p.LevelName
	}
	if p.Policy != nil {
		cfg.Policy = p.Policy
	}
	if p.LengthMM != nil {
		cfg.LengthMM = *p.LengthMM
	}
	if p.DepthMM != nil {
		cfg.DepthMM = *p.DepthMM
	}
	if p.HeightMM != nil {
		cfg.HeightMM = *p.HeightMM
	}
	if p.MaxWeightKg != nil {
		cfg.MaxWeightKg = decimal.NewNullDecimal(*p.MaxWeightKg)
	}
	if p.ClearItemsCapacity {
		cfg.ItemsCapacity = nil
	}
	if p.ItemsCapacity != nil {
		v := *p.ItemsCapacity
		cfg.ItemsCapacity = &v
	}
	if p.VolumeMinLiters != nil {
		cfg.VolumeMinLiters = decimal.NewNullDecimal(*p.VolumeMinLiters)
	}
	if p.VolumeMaxLiters != nil {
		cfg.VolumeMaxLiters = decimal.NewNullDecimal(*p.VolumeMaxLiters)
	}
	if p.WeightMinKg != nil {
		cfg.WeightMinKg = decimal.NewNullDecimal(*p.WeightMinKg)
	}
	if p.WeightMaxKg != nil {
		cfg.WeightMaxKg = decimal.NewNullDecimal(*p.WeightMaxKg)
	}
	if p.EnableAutoRepartition != nil {
		cfg.EnableAutoRepartition = *p.EnableAutoRepartition
	}
	if p.RepartitionTriggerThreshold != nil {
		cfg.RepartitionTriggerThreshold = *p.RepartitionTriggerThreshold
	}
	if p.PriorityOrder != nil {
		cfg.PriorityOrder = *p.PriorityOrder
	}
	if p.SubdivisionCount != nil {
		cfg.SubdivisionCount = *p.SubdivisionCount
	}
}
