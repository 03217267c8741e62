package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"slotwise/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LevelConfigRepository stores one configuration row per (location, level_number).
// It does not check that the location exists.
type LevelConfigRepository interface {
	// Get returns every configured level of a location ordered by level_number
	Get(ctx context.Context, locationID uuid.UUID) ([]*models.LevelConfig, error)
	// GetOne returns nil, nil when the level has no configuration
	GetOne(ctx context.Context, locationID uuid.UUID, levelNumber int) (*models.LevelConfig, error)
	// Upsert inserts or replaces the row on its natural key
	Upsert(ctx context.Context, cfg *models.LevelConfig) error
	// CreateDefaults seeds levels 1..totalLevels, leaving existing rows untouched
	CreateDefaults(ctx context.Context, locationID uuid.UUID, totalLevels int) error
}

type levelConfigRepo struct {
	db DBTX
}

func NewLevelConfigRepo(db DBTX) LevelConfigRepository {
	return &levelConfigRepo{db: db}
}

const levelConfigColumns = `location_id, level_number, level_name, storage_policy, allowed_categories, dedicated_product_id,
		length_mm, depth_mm, height_mm, max_weight_kg, items_capacity,
		volume_min_liters, volume_max_liters, weight_min_kg, weight_max_kg,
		enable_auto_repartition, repartition_trigger_threshold, priority_order, subdivision_count, updated_at`

func (r *levelConfigRepo) Get(ctx context.Context, locationID uuid.UUID) ([]*models.LevelConfig, error) {
	query := `
		SELECT ` + levelConfigColumns + `
		FROM location_level_configs
		WHERE location_id = $1
		ORDER BY level_number
	`
	rows, err := r.db.Query(ctx, query, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*models.LevelConfig
	for rows.Next() {
		cfg, err := scanLevelConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func (r *levelConfigRepo) GetOne(ctx context.Context, locationID uuid.UUID, levelNumber int) (*models.LevelConfig, error) {
	query := `
		SELECT ` + levelConfigColumns + `
		FROM location_level_configs
		WHERE location_id = $1 AND level_number = $2
	`
	cfg, err := scanLevelConfig(r.db.QueryRow(ctx, query, locationID, levelNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *levelConfigRepo) Upsert(ctx context.Context, cfg *models.LevelConfig) error {
	policy, allowed, dedicated, err := encodePolicy(cfg.StoragePolicy())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO location_level_configs (` + levelConfigColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW())
		ON CONFLICT (location_id, level_number) DO UPDATE SET
			level_name = EXCLUDED.level_name,
			storage_policy = EXCLUDED.storage_policy,
			allowed_categories = EXCLUDED.allowed_categories,
			dedicated_product_id = EXCLUDED.dedicated_product_id,
			length_mm = EXCLUDED.length_mm,
			depth_mm = EXCLUDED.depth_mm,
			height_mm = EXCLUDED.height_mm,
			max_weight_kg = EXCLUDED.max_weight_kg,
			items_capacity = EXCLUDED.items_capacity,
			volume_min_liters = EXCLUDED.volume_min_liters,
			volume_max_liters = EXCLUDED.volume_max_liters,
			weight_min_kg = EXCLUDED.weight_min_kg,
			weight_max_kg = EXCLUDED.weight_max_kg,
			enable_auto_repartition = EXCLUDED.enable_auto_repartition,
			repartition_trigger_threshold = EXCLUDED.repartition_trigger_threshold,
			priority_order = EXCLUDED.priority_order,
			subdivision_count = EXCLUDED.subdivision_count,
			updated_at = NOW()
	`
	_, err = r.db.Exec(ctx, query,
		cfg.LocationID,
		cfg.LevelNumber,
		cfg.LevelName,
		policy,
		allowed,
		dedicated,
		cfg.LengthMM,
		cfg.DepthMM,
		cfg.HeightMM,
		cfg.MaxWeightKg,
		cfg.ItemsCapacity,
		cfg.VolumeMinLiters,
		cfg.VolumeMaxLiters,
		cfg.WeightMinKg,
		cfg.WeightMaxKg,
		cfg.EnableAutoRepartition,
		cfg.RepartitionTriggerThreshold,
		cfg.PriorityOrder,
		cfg.SubdivisionCount,
	)
	return err
}

func (r *levelConfigRepo) CreateDefaults(ctx context.Context, locationID uuid.UUID, totalLevels int) error {
	if totalLevels <= 0 {
		return nil
	}

	var values []string
	args := make([]interface{}, 0, totalLevels*7)
	for level := 1; level <= totalLevels; level++ {
		cfg := models.NewDefaultLevelConfig(locationID, level, totalLevels)
		n := len(args)
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, 0, 0, 0, false, NOW())",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7))
		args = append(args,
			cfg.LocationID,
			cfg.LevelNumber,
			cfg.LevelName,
			string(models.PolicyMultipleProducts),
			cfg.RepartitionTriggerThreshold,
			cfg.PriorityOrder,
			cfg.SubdivisionCount,
		)
	}

	query := `
		INSERT INTO location_level_configs (location_id, level_number, level_name, storage_policy,
			repartition_trigger_threshold, priority_order, subdivision_count,
			length_mm, depth_mm, height_mm, enable_auto_repartition, updated_at)
		VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (location_id, level_number) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, args...)
	return err
}

func scanLevelConfig(row pgx.Row) (*models.LevelConfig, error) {
	cfg := &models.LevelConfig{}
	var policy string
	var allowed []byte
	var dedicated *uuid.UUID
	err := row.Scan(
		&cfg.LocationID,
		&cfg.LevelNumber,
		&cfg.LevelName,
		&policy,
		&allowed,
		&dedicated,
		&cfg.LengthMM,
		&cfg.DepthMM,
		&cfg.HeightMM,
		&cfg.MaxWeightKg,
		&cfg.ItemsCapacity,
		&cfg.VolumeMinLiters,
		&cfg.VolumeMaxLiters,
		&cfg.WeightMinKg,
		&cfg.WeightMaxKg,
		&cfg.EnableAutoRepartition,
		&cfg.RepartitionTriggerThreshold,
		&cfg.PriorityOrder,
		&cfg.SubdivisionCount,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg.StoredPolicy = policy
	cfg.Policy, err = decodePolicy(policy, allowed, dedicated)
	if err != nil {
		return nil, fmt.Errorf("level %d of location %s: %w", cfg.LevelNumber, cfg.LocationID, err)
	}
	return cfg, nil
}

// encodePolicy splits a policy into its storage_policy, allowed_categories and dedicated_product_id columns
func encodePolicy(p models.StoragePolicy) (string, []byte, *uuid.UUID, error) {
	switch policy := p.(type) {
	case models.MultipleProducts, models.SingleProductType:
		return string(policy.Kind()), nil, nil, nil
	case models.CategoryRestricted:
		if len(policy.Allowed) == 0 {
			return string(policy.Kind()), nil, nil, nil
		}
		allowed, err := json.Marshal(policy.Allowed)
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to marshal allowed_categories: %w", err)
		}
		return string(policy.Kind()), allowed, nil, nil
	case models.DedicatedProduct:
		return string(policy.Kind()), nil, policy.ProductID, nil
	default:
		return "", nil, nil, fmt.Errorf("unsupported storage policy %T", p)
	}
}

// decodePolicy rebuilds a policy from its columns. Unknown names decode to MultipleProducts.
func decodePolicy(name string, allowed []byte, dedicated *uuid.UUID) (models.StoragePolicy, error) {
	kind, _ := models.ParsePolicyKind(name)
	switch kind {
	case models.PolicySingleProductType:
		return models.SingleProductType{}, nil
	case models.PolicyCategoryRestricted:
		policy := models.CategoryRestricted{}
		if len(allowed) > 0 {
			if err := json.Unmarshal(allowed, &policy.Allowed); err != nil {
				return nil, fmt.Errorf("failed to unmarshal allowed_categories: %w", err)
			}
		}
		return policy, nil
	case models.PolicyDedicatedProduct:
		return models.DedicatedProduct{ProductID: dedicated}, nil
	default:
		return models.MultipleProducts{}, nil
	}
}
