package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"slotwise/internal/models"
	"slotwise/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LevelConfigService manages validated level configuration
type LevelConfigService interface {
	List(ctx context.Context, locationID uuid.UUID) ([]*models.LevelConfig, error)
	Get(ctx context.Context, locationID uuid.UUID, level int) (*models.LevelConfig, error)
	Update(ctx context.Context, locationID uuid.UUID, level int, patch *models.LevelConfigPatch) (*models.LevelConfig, error)
	EnsureDefaults(ctx context.Context, locationID uuid.UUID) error
}

type levelConfigService struct {
	locationRepo    repositories.LocationRepository
	levelConfigRepo repositories.LevelConfigRepository
	logger          *slog.Logger
}

func NewLevelConfigService(locationRepo repositories.LocationRepository, levelConfigRepo repositories.LevelConfigRepository, logger *slog.Logger) LevelConfigService {
	if logger == nil {
		logger = slog.Default()
	}
	return &levelConfigService{
		locationRepo:    locationRepo,
		levelConfigRepo: levelConfigRepo,
		logger:          logger,
	}
}

func (s *levelConfigService) List(ctx context.Context, locationID uuid.UUID) ([]*models.LevelConfig, error) {
	return s.levelConfigRepo.Get(ctx, locationID)
}

// Get returns the stored config of the level, nil when none is stored
func (s *levelConfigService) Get(ctx context.Context, locationID uuid.UUID, level int) (*models.LevelConfig, error) {
	return s.levelConfigRepo.GetOne(ctx, locationID, level)
}

func (s *levelConfigService) Update(ctx context.Context, locationID uuid.UUID, level int, patch *models.LevelConfigPatch) (*models.LevelConfig, error) {
	location, err := s.getLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if level < 1 || level > location.Levels {
		return nil, &ConfigurationError{Field: "level_number", Reason: fmt.Sprintf("must be between 1 and %d", location.Levels)}
	}

	cfg, err := s.levelConfigRepo.GetOne(ctx, locationID, level)
	if err != nil {
		return nil, fmt.Errorf("failed to load level config: %w", err)
	}
	if cfg == nil {
		cfg = models.NewDefaultLevelConfig(locationID, level, location.Levels)
	}

	if patch != nil {
		patch.Apply(cfg)
	}
	cfg.StoredPolicy = string(cfg.StoragePolicy().Kind())

	if err := ValidateLevelConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.levelConfigRepo.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save level config: %w", err)
	}

	s.logger.Info("level config updated", "location_id", locationID, "level", level, "storage_policy", cfg.StoredPolicy)
	return cfg, nil
}

func (s *levelConfigService) EnsureDefaults(ctx context.Context, locationID uuid.UUID) error {
	location, err := s.getLocation(ctx, locationID)
	if err != nil {
		return err
	}
	if err := s.levelConfigRepo.CreateDefaults(ctx, locationID, location.Levels); err != nil {
		return fmt.Errorf("failed to seed level configs: %w", err)
	}
	return nil
}

func (s *levelConfigService) getLocation(ctx context.Context, locationID uuid.UUID) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(ctx, locationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, locationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load location %s: %w", locationID, err)
	}
	return location, nil
}

// ValidateLevelConfig returns the first *ConfigurationError found in cfg
func ValidateLevelConfig(cfg *models.LevelConfig) error {
	if cfg.RepartitionTriggerThreshold < 0 || cfg.RepartitionTriggerThreshold > 100 {
		return &ConfigurationError{Field: "repartition_trigger_threshold", Reason: "must be between 0 and 100"}
	}
	if cfg.SubdivisionCount < 1 {
		return &ConfigurationError{Field: "subdivision_count", Reason: "must be at least 1"}
	}
	if cfg.ItemsCapacity != nil && *cfg.ItemsCapacity < 0 {
		return &ConfigurationError{Field: "items_capacity", Reason: "must not be negative"}
	}
	if cfg.LengthMM < 0 || cfg.DepthMM < 0 || cfg.HeightMM < 0 {
		return &ConfigurationError{Field: "dimensions", Reason: "must not be negative"}
	}
	if cfg.MaxWeightKg.Valid && cfg.MaxWeightKg.Decimal.IsNegative() {
		return &ConfigurationError{Field: "max_weight_kg", Reason: "must not be negative"}
	}
	if err := validateBounds("volume", cfg.VolumeMinLiters, cfg.VolumeMaxLiters); err != nil {
		return err
	}
	if err := validateBounds("weight", cfg.WeightMinKg, cfg.WeightMaxKg); err != nil {
		return err
	}
	if p, ok := cfg.StoragePolicy().(models.CategoryRestricted); ok {
		for _, category := range p.Allowed {
			if category == "" {
				return &ConfigurationError{Field: "allowed_categories", Reason: "must not contain empty names"}
			}
		}
	}
	return nil
}

func validateBounds(field string, lower, upper decimal.NullDecimal) error {
	if lower.Valid && lower.Decimal.IsNegative() {
		return &ConfigurationError{Field: field + "_min", Reason: "must not be negative"}
	}
	if upper.Valid && upper.Decimal.IsNegative() {
		return &ConfigurationError{Field: field + "_max", Reason: "must not be negative"}
	}
	if lower.Valid && upper.Valid && lower.Decimal.GreaterThan(upper.Decimal) {
		return &ConfigurationError{Field: field + "_min", Reason: fmt.Sprintf("must not exceed %s_max", field)}
	}
	return nil
}
