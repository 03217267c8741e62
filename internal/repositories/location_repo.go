package repositories

import (
	"context"

	"slotwise/internal/models"

	"github.com/google/uuid"
)

type LocationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	// ListAutoRepartition returns the active shelf locations with at least one
	// level that has auto repartition enabled
	ListAutoRepartition(ctx context.Context) ([]*models.Location, error)
	// RecomputeOccupancy rewrites current_occupancy from the inventory rows
	RecomputeOccupancy(ctx context.Context, id uuid.UUID) error
}

type locationRepo struct {
	db DBTX
}

func NewLocationRepo(db DBTX) LocationRepository {
	return &locationRepo{db: db}
}

func (r *locationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	location := &models.Location{}
	query := `
		SELECT id, code, type, zone, capacity, levels, status, current_occupancy, updated_at
		FROM locations
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&location.ID, &location.Code, &location.Type, &location.Zone,
		&location.Capacity, &location.Levels, &location.Status, &location.CurrentOccupancy, &location.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return location, nil
}

func (r *locationRepo) ListAutoRepartition(ctx context.Context) ([]*models.Location, error) {
	query := `
		SELECT l.id, l.code, l.type, l.zone, l.capacity, l.levels, l.status, l.current_occupancy, l.updated_at
		FROM locations l
		WHERE l.status = $1 AND l.type = $2
		  AND EXISTS (
			SELECT 1 FROM location_level_configs c
			WHERE c.location_id = l.id AND c.enable_auto_repartition = true
		  )
		ORDER BY l.code, l.id
	`
	rows, err := r.db.Query(ctx, query, models.LocationStatusActive, models.LocationTypeShelf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		location := &models.Location{}
		if err := rows.Scan(&location.ID, &location.Code, &location.Type, &location.Zone,
			&location.Capacity, &location.Levels, &location.Status, &location.CurrentOccupancy, &location.UpdatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, rows.Err()
}

func (r *locationRepo) RecomputeOccupancy(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE locations
		SET current_occupancy = (
			SELECT COALESCE(SUM(quantity), 0) FROM inventory WHERE location_id = $1
		), updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
