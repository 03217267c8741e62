package services

import (
	"context"
	"fmt"
	"strings"

	"slotwise/internal/models"
	"slotwise/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlacementValidator decides whether a product may occupy a level of a location.
// It is the store-backed entry point for callers holding only ids, such as intake
// tooling; the analyzer and planner already hold the snapshot and call CheckPlacement.
// Results are never cached: occupancy changes between repartition passes.
type PlacementValidator interface {
	Validate(ctx context.Context, locationID uuid.UUID, levelNumber int, product models.Product) (models.PlacementResult, error)
}

type placementValidator struct {
	levelConfigRepo repositories.LevelConfigRepository
	inventoryRepo   repositories.InventoryRepository
	namer           models.LevelNamer
}

func NewPlacementValidator(levelConfigRepo repositories.LevelConfigRepository, inventoryRepo repositories.InventoryRepository, namer models.LevelNamer) PlacementValidator {
	return &placementValidator{
		levelConfigRepo: levelConfigRepo,
		inventoryRepo:   inventoryRepo,
		namer:           namer,
	}
}

func (v *placementValidator) Validate(ctx context.Context, locationID uuid.UUID, levelNumber int, product models.Product) (models.PlacementResult, error) {
	cfg, err := v.levelConfigRepo.GetOne(ctx, locationID, levelNumber)
	if err != nil {
		return models.PlacementResult{}, fmt.Errorf("failed to load level %d config: %w", levelNumber, err)
	}
	if cfg == nil {
		return models.PlacementResult{Valid: true}, nil
	}

	// Occupants only matter to the single product rule
	var occupants []models.ProductStock
	if _, ok := cfg.StoragePolicy().(models.SingleProductType); ok {
		occupants, err = v.inventoryRepo.LevelStock(ctx, locationID, v.namer.Name(levelNumber))
		if err != nil {
			return models.PlacementResult{}, fmt.Errorf("failed to load level %d stock: %w", levelNumber, err)
		}
	}

	return CheckPlacement(cfg, occupants, product), nil
}

// CheckPlacement evaluates product against a level configuration and its current occupants.
// Checks run in order and stop at the first failure. A nil cfg means no restrictions.
func CheckPlacement(cfg *models.LevelConfig, occupants []models.ProductStock, product models.Product) models.PlacementResult {
	if cfg == nil {
		return models.PlacementResult{Valid: true}
	}

	switch policy := cfg.StoragePolicy().(type) {
	case models.SingleProductType:
		others := 0
		for _, o := range occupants {
			if o.ID != product.ID && o.Quantity > 0 {
				others++
			}
		}
		if others > 0 {
			return invalid(models.RuleSingleProduct,
				fmt.Sprintf("level %d allows a single product type and already holds %d other product(s)", cfg.LevelNumber, others))
		}
	case models.CategoryRestricted:
		if !policy.Allows(product.Category) {
			return invalid(models.RuleCategory,
				fmt.Sprintf("category %q is not allowed on level %d (allowed: %s)", product.Category, cfg.LevelNumber, strings.Join(policy.Allowed, ", ")))
		}
	case models.DedicatedProduct:
		if policy.ProductID != nil && *policy.ProductID != product.ID {
			return invalid(models.RuleDedicated,
				fmt.Sprintf("level %d is dedicated to product %s", cfg.LevelNumber, policy.ProductID))
		}
	case models.MultipleProducts:
	}

	if res, ok := checkBounds(product.VolumeLiters, cfg.VolumeMinLiters, cfg.VolumeMaxLiters,
		models.RuleVolumeMin, models.RuleVolumeMax, "volume", "L"); !ok {
		return res
	}
	if res, ok := checkBounds(product.WeightKg, cfg.WeightMinKg, cfg.WeightMaxKg,
		models.RuleWeightMin, models.RuleWeightMax, "weight", "kg"); !ok {
		return res
	}

	return models.PlacementResult{Valid: true}
}

// checkBounds compares a per-unit measure with optional min and max bounds.
// An unknown measure passes.
func checkBounds(value, lower, upper decimal.NullDecimal, minRule, maxRule models.PlacementRule, what, unit string) (models.PlacementResult, bool) {
	if !value.Valid {
		return models.PlacementResult{}, true
	}
	if lower.Valid && value.Decimal.LessThan(lower.Decimal) {
		return invalid(minRule, fmt.Sprintf("unit %s %s%s is below the level minimum %s%s",
			what, value.Decimal.String(), unit, lower.Decimal.String(), unit)), false
	}
	if upper.Valid && value.Decimal.GreaterThan(upper.Decimal) {
		return invalid(maxRule, fmt.Sprintf("unit %s %s%s is above the level maximum %s%s",
			what, value.Decimal.String(), unit, upper.Decimal.String(), unit)), false
	}
	return models.PlacementResult{}, true
}

func invalid(rule models.PlacementRule, reason string) models.PlacementResult {
	return models.PlacementResult{Valid: false, Rule: rule, Reason: reason}
}
