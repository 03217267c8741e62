package repositories

import (
	"context"
	"time"

	"slotwise/internal/models"

	"github.com/google/uuid"
)

type InventoryRepository interface {
	// LevelStock sums quantity per product on a shelf level, largest first.
	// Products whose rows sum to zero are omitted.
	LevelStock(ctx context.Context, locationID uuid.UUID, shelfLevel string) ([]models.ProductStock, error)
	// LevelTotal is the summed quantity of every product on a shelf level
	LevelTotal(ctx context.Context, locationID uuid.UUID, shelfLevel string) (int, error)
	// ProductLevelRows returns the batches of a product on a shelf level, oldest first.
	// forUpdate locks the rows for the rest of the surrounding transaction.
	ProductLevelRows(ctx context.Context, productID, locationID uuid.UUID, shelfLevel string, forUpdate bool) ([]*models.InventoryRecord, error)
	Create(ctx context.Context, record *models.InventoryRecord) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	// AddToNewestBatch increments the newest batch of a product on a shelf level.
	// It reports false when the product has no batch there.
	AddToNewestBatch(ctx context.Context, productID, locationID uuid.UUID, shelfLevel string, quantity int) (bool, error)
	// DeleteEmpty removes the rows of a product on a shelf level left at zero or less
	DeleteEmpty(ctx context.Context, productID, locationID uuid.UUID, shelfLevel string) (int64, error)
}

type inventoryRepo struct {
	db DBTX
}

func NewInventoryRepo(db DBTX) InventoryRepository {
	return &inventoryRepo{db: db}
}

func (r *inventoryRepo) LevelStock(ctx context.Context, locationID uuid.UUID, shelfLevel string) ([]models.ProductStock, error) {
	query := `
		SELECT p.id, p.name, COALESCE(p.category, ''), pu.volume_liters, pu.weight_kg, SUM(i.quantity) AS total
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		LEFT JOIN LATERAL (
			SELECT u.volume_liters, u.weight_kg
			FROM product_units u
			WHERE u.product_id = p.id
			ORDER BY u.created_at
			LIMIT 1
		) pu ON true
		WHERE i.location_id = $1 AND i.shelf_level = $2
		GROUP BY p.id, p.name, p.category, pu.volume_liters, pu.weight_kg
		HAVING SUM(i.quantity) > 0
		ORDER BY total DESC, p.id
	`
	rows, err := r.db.Query(ctx, query, locationID, shelfLevel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stock []models.ProductStock
	for rows.Next() {
		var s models.ProductStock
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.VolumeLiters, &s.WeightKg, &s.Quantity); err != nil {
			return nil, err
		}
		stock = append(stock, s)
	}
	return stock, rows.Err()
}

func (r *inventoryRepo) LevelTotal(ctx context.Context, locationID uuid.UUID, shelfLevel string) (int, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)::int
		FROM inventory
		WHERE location_id = $1 AND shelf_level = $2
	`
	var total int
	if err := r.db.QueryRow(ctx, query, locationID, shelfLevel).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *inventoryRepo) ProductLevelRows(ctx context.Context, productID, locationID uuid.UUID, shelfLevel string, forUpdate bool) ([]*models.InventoryRecord, error) {
	query := `
		SELECT id, product_id, location_id, shelf_level, quantity, received_at
		FROM inventory
		WHERE product_id = $1 AND location_id = $2 AND shelf_level = $3
		ORDER BY received_at, id
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rows, err := r.db.Query(ctx, query, productID, locationID, shelfLevel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.InventoryRecord
	for rows.Next() {
		rec := &models.InventoryRecord{}
		if err := rows.Scan(&rec.ID, &rec.ProductID, &rec.LocationID, &rec.ShelfLevel, &rec.Quantity, &rec.ReceivedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *inventoryRepo) Create(ctx context.Context, record *models.InventoryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.ReceivedAt.IsZero() {
		record.ReceivedAt = time.Now()
	}
	query := `
		INSERT INTO inventory (id, product_id, location_id, shelf_level, quantity, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, record.ID, record.ProductID, record.LocationID, record.ShelfLevel, record.Quantity, record.ReceivedAt)
	return err
}

func (r *inventoryRepo) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `UPDATE inventory SET quantity = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, quantity, id)
	return err
}

func (r *inventoryRepo) AddToNewestBatch(ctx context.Context, productID, locationID uuid.UUID, shelfLevel string, quantity int) (bool, error) {
	query := `
		UPDATE inventory SET quantity = quantity + $1
		WHERE id = (
			SELECT id FROM inventory
			WHERE product_id = $2 AND location_id = $3 AND shelf_level = $4
			ORDER BY received_at DESC, id DESC
			LIMIT 1
		)
	`
	tag, err := r.db.Exec(ctx, query, quantity, productID, locationID, shelfLevel)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *inventoryRepo) DeleteEmpty(ctx context.Context, productID, locationID uuid.UUID, shelfLevel string) (int64, error) {
	query := `
		DELETE FROM inventory
		WHERE product_id = $1 AND location_id = $2 AND shelf_level = $3 AND quantity <= 0
	`
	tag, err := r.db.Exec(ctx, query, productID, locationID, shelfLevel)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
