package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"slotwise/internal/common"
	"slotwise/internal/models"
	"slotwise/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OccupancyAnalyzer derives per-level occupancy and the issues to repartition.
// It has no side effects; two calls over the same stored state return equal results.
type OccupancyAnalyzer interface {
	Analyze(ctx context.Context, locationID uuid.UUID) (*models.LevelAnalysis, error)
}

type occupancyAnalyzer struct {
	locationRepo    repositories.LocationRepository
	levelConfigRepo repositories.LevelConfigRepository
	inventoryRepo   repositories.InventoryRepository
	namer           models.LevelNamer
	logger          *slog.Logger
}

func NewOccupancyAnalyzer(locationRepo repositories.LocationRepository, levelConfigRepo repositories.LevelConfigRepository,
	inventoryRepo repositories.InventoryRepository, namer models.LevelNamer, logger *slog.Logger) OccupancyAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &occupancyAnalyzer{
		locationRepo:    locationRepo,
		levelConfigRepo: levelConfigRepo,
		inventoryRepo:   inventoryRepo,
		namer:           namer,
		logger:          logger,
	}
}

func (a *occupancyAnalyzer) Analyze(ctx context.Context, locationID uuid.UUID) (*models.LevelAnalysis, error) {
	location, err := a.locationRepo.GetByID(ctx, locationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, locationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load location %s: %w", locationID, err)
	}

	configs, err := a.levelConfigRepo.Get(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load level configs for location %s: %w", locationID, err)
	}

	logger := a.logger.With("run_id", common.RunIDFromContext(ctx), "location_id", locationID)
	analysis := &models.LevelAnalysis{
		LocationID: locationID,
		Location:   location,
		Levels:     make(map[int]*models.OccupancySnapshot),
		Configs:    make(map[int]*models.LevelConfig),
		Issues:     []models.Violation{},
	}

	// Levels sharing a stored shelf name read the same rows
	stockByShelf := make(map[string][]models.ProductStock)
	var overThreshold, policy, placement []models.Violation

	for _, cfg := range configs {
		level := cfg.LevelNumber
		if level < 1 || level > location.Levels {
			logger.Warn("level config outside location levels, skipped", "level", level, "levels", location.Levels)
			continue
		}
		if _, ok := models.ParsePolicyKind(cfg.StoredPolicy); !ok && cfg.StoredPolicy != "" {
			logger.Warn("unknown storage policy, treated as multiple_products", "level", level, "storage_policy", cfg.StoredPolicy)
		}

		shelf := a.namer.Name(level)
		if a.namer.Collapsed(level) {
			logger.Warn("level has no shelf name of its own and shares stored rows",
				"level", level, "shelf_level", shelf, "max_named_levels", models.MaxNamedLevels)
		}

		stock, ok := stockByShelf[shelf]
		if !ok {
			stock, err = a.inventoryRepo.LevelStock(ctx, locationID, shelf)
			if err != nil {
				return nil, fmt.Errorf("failed to load stock for level %d: %w", level, err)
			}
			stockByShelf[shelf] = stock
		}

		snapshot := models.NewOccupancySnapshot(level, shelf, cfg.Capacity(location), stock)
		analysis.Levels[level] = snapshot
		analysis.Configs[level] = cfg
		analysis.Order = append(analysis.Order, level)

		if snapshot.OccupancyPercentage > float64(cfg.RepartitionTriggerThreshold) {
			overThreshold = append(overThreshold, models.NewOverThreshold(level, snapshot.OccupancyPercentage, cfg.RepartitionTriggerThreshold))
		}

		switch p := cfg.StoragePolicy().(type) {
		case models.SingleProductType:
			if snapshot.UniqueProducts > 1 {
				policy = append(policy, models.NewPolicyViolation(level, p.Kind(), snapshot.UniqueProducts))
			}
		case models.CategoryRestricted:
			// uncategorised stock violates the policy too
			for _, s := range snapshot.Products {
				if s.Quantity > 0 && !p.Allows(s.Category) {
					policy = append(policy, models.NewPolicyViolation(level, p.Kind(), snapshot.UniqueProducts))
					break
				}
			}
		}

		for _, s := range stock {
			if res := CheckPlacement(cfg, stock, s.Product); !res.Valid {
				placement = append(placement, models.NewPlacementViolation(level, s.ID, res))
			}
		}
	}

	analysis.Issues = append(analysis.Issues, overThreshold...)
	analysis.Issues = append(analysis.Issues, policy...)
	analysis.Issues = append(analysis.Issues, placement...)

	logger.Debug("location analysed", "levels", len(analysis.Order), "issues", len(analysis.Issues))
	return analysis, nil
}
