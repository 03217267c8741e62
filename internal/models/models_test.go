package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewOccupancySnapshot(t *testing.T) {
	apple := ProductStock{Product: Product{ID: uuid.New(), Category: "fruit"}, Quantity: 6}
	pear := ProductStock{Product: Product{ID: uuid.New(), Category: "fruit"}, Quantity: 2}
	loose := ProductStock{Product: Product{ID: uuid.New()}, Quantity: 1}

	s := NewOccupancySnapshot(1, ShelfBottom, 10, []ProductStock{apple, pear, loose})

	assert.Equal(t, 3, s.UniqueProducts)
	assert.Equal(t, 9, s.TotalItems)
	assert.InDelta(t, 90.0, s.OccupancyPercentage, 1e-9)
	assert.Equal(t, 1, s.AvailableSpace)
	assert.Equal(t, []string{"fruit"}, s.Categories)
	assert.Equal(t, 2, s.Quantity(pear.ID))
	assert.Equal(t, 0, s.Quantity(uuid.New()))
}

func TestNewOccupancySnapshot_OverfullAndZeroCapacity(t *testing.T) {
	stock := []ProductStock{{Product: Product{ID: uuid.New()}, Quantity: 12}}

	over := NewOccupancySnapshot(2, ShelfMiddle, 10, stock)
	assert.Equal(t, 0, over.AvailableSpace)
	assert.InDelta(t, 120.0, over.OccupancyPercentage, 1e-9)

	none := NewOccupancySnapshot(2, ShelfMiddle, 0, stock)
	assert.Equal(t, 0.0, none.OccupancyPercentage)
	assert.Equal(t, 0, none.AvailableSpace)
}

func TestLevelNamer(t *testing.T) {
	n := DefaultLevelNamer()

	assert.Equal(t, ShelfBottom, n.Name(1))
	assert.Equal(t, ShelfTop, n.Name(3))
	assert.Equal(t, ShelfMiddle, n.Name(4))
	assert.True(t, n.Collapsed(4))
	assert.False(t, n.Collapsed(2))
	assert.True(t, n.SameShelf(2, 5))
	assert.False(t, n.SameShelf(1, 3))

	assert.Equal(t, ShelfMiddle, LevelNamer{}.Name(1))
}

func TestLevelConfigCapacity(t *testing.T) {
	loc := &Location{Capacity: 31, Levels: 3}
	cfg := NewDefaultLevelConfig(uuid.New(), 1, 3)

	assert.Equal(t, 10, cfg.Capacity(loc))
	var missing *LevelConfig
	assert.Equal(t, 10, missing.Capacity(loc))

	override := 4
	cfg.ItemsCapacity = &override
	assert.Equal(t, 4, cfg.Capacity(loc))

	assert.Equal(t, 0, (&Location{Capacity: 10}).DefaultLevelCapacity())
}

func TestNewDefaultLevelConfig(t *testing.T) {
	cfg := NewDefaultLevelConfig(uuid.New(), 1, 4)

	assert.Equal(t, "Level 1", cfg.LevelName)
	assert.Equal(t, MultipleProducts{}, cfg.StoragePolicy())
	assert.Equal(t, DefaultRepartitionThreshold, cfg.RepartitionTriggerThreshold)
	assert.Equal(t, 4, cfg.PriorityOrder)
	assert.Equal(t, 1, NewDefaultLevelConfig(uuid.New(), 4, 4).PriorityOrder)
}

func TestLevelConfigPatchApply(t *testing.T) {
	capacity := 20
	cfg := NewDefaultLevelConfig(uuid.New(), 2, 3)
	cfg.ItemsCapacity = &capacity
	name := "Eye level"
	weight := decimal.RequireFromString("12.5")
	threshold := 65

	(&LevelConfigPatch{
		LevelName:                   &name,
		Policy:                      SingleProductType{},
		WeightMaxKg:                 &weight,
		ClearItemsCapacity:          true,
		RepartitionTriggerThreshold: &threshold,
	}).Apply(cfg)

	assert.Equal(t, "Eye level", cfg.LevelName)
	assert.Equal(t, PolicySingleProductType, cfg.StoragePolicy().Kind())
	assert.True(t, cfg.WeightMaxKg.Valid)
	assert.True(t, cfg.WeightMaxKg.Decimal.Equal(weight))
	assert.Nil(t, cfg.ItemsCapacity)
	assert.Equal(t, 65, cfg.RepartitionTriggerThreshold)
	assert.Equal(t, DefaultSubdivisionCount, cfg.SubdivisionCount)
	assert.False(t, cfg.WeightMinKg.Valid)
}

func TestParsePolicyKind(t *testing.T) {
	tests := []struct {
		in   string
		want PolicyKind
		ok   bool
	}{
		{"multiple_products", PolicyMultipleProducts, true},
		{"single_product_type", PolicySingleProductType, true},
		{"category_restricted", PolicyCategoryRestricted, true},
		{"dedicated_product", PolicyDedicatedProduct, true},
		{"", PolicyMultipleProducts, false},
		{"SINGLE_PRODUCT_TYPE", PolicyMultipleProducts, false},
	}
	for _, tt := range tests {
		got, ok := ParsePolicyKind(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestCategoryRestrictedAllows(t *testing.T) {
	assert.True(t, CategoryRestricted{}.Allows("anything"))
	p := CategoryRestricted{Allowed: []string{"fruit", "dairy"}}
	assert.True(t, p.Allows("dairy"))
	assert.False(t, p.Allows("Dairy"))
	assert.False(t, p.Allows(""))
}

func TestLocationResultMoveCount(t *testing.T) {
	moves := []Move{{Quantity: 1}, {Quantity: 2}}

	assert.Equal(t, 2, (&LocationResult{DryRun: true, Moves: moves}).MoveCount())
	assert.Equal(t, 1, (&LocationResult{Moves: moves, Executed: moves[:1]}).MoveCount())
}
