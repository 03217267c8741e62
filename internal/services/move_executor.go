package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"slotwise/internal/common"
	"slotwise/internal/models"
	"slotwise/internal/repositories"

	"github.com/jackc/pgx/v5"
)

// MoveExecutor applies one planned move as a single database transaction.
// Any failure before commit rolls the whole move back.
type MoveExecutor interface {
	Execute(ctx context.Context, move models.Move) error
}

type moveExecutor struct {
	db        repositories.Database
	auditRepo repositories.AuditLogsRepository
	namer     models.LevelNamer
	logger    *slog.Logger
}

func NewMoveExecutor(db repositories.Database, auditRepo repositories.AuditLogsRepository, namer models.LevelNamer, logger *slog.Logger) MoveExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &moveExecutor{
		db:        db,
		auditRepo: auditRepo,
		namer:     namer,
		logger:    logger,
	}
}

func (e *moveExecutor) Execute(ctx context.Context, move models.Move) error {
	if move.Quantity <= 0 || move.FromLevel == move.ToLevel {
		return &MoveError{Move: move, Err: ErrInvalidMove}
	}
	fromShelf := e.namer.Name(move.FromLevel)
	toShelf := e.namer.Name(move.ToLevel)
	if fromShelf == toShelf {
		return &MoveError{Move: move, Err: fmt.Errorf("%w: both levels map to %q", ErrSameShelfLevel, fromShelf)}
	}

	if err := e.apply(ctx, move, fromShelf, toShelf); err != nil {
		return &MoveError{Move: move, Err: err}
	}

	e.audit(ctx, move, fromShelf, toShelf)
	return nil
}

func (e *moveExecutor) apply(ctx context.Context, move models.Move, fromShelf, toShelf string) error {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inventory := repositories.NewInventoryRepo(tx)
	locations := repositories.NewLocationRepo(tx)
	levelConfigs := repositories.NewLevelConfigRepo(tx)

	rows, err := inventory.ProductLevelRows(ctx, move.ProductID, move.LocationID, fromShelf, true)
	if err != nil {
		return fmt.Errorf("failed to lock source rows: %w", err)
	}
	available := 0
	for _, row := range rows {
		available += row.Quantity
	}
	if available < move.Quantity {
		return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientStock, available, move.Quantity)
	}

	// The plan was scored on an earlier snapshot; capacity is checked again here
	location, err := locations.GetByID(ctx, move.LocationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrLocationNotFound, move.LocationID)
	}
	if err != nil {
		return fmt.Errorf("failed to load location: %w", err)
	}
	cfg, err := levelConfigs.GetOne(ctx, move.LocationID, move.ToLevel)
	if err != nil {
		return fmt.Errorf("failed to load destination level config: %w", err)
	}
	capacity := cfg.Capacity(location)
	destTotal, err := inventory.LevelTotal(ctx, move.LocationID, toShelf)
	if err != nil {
		return fmt.Errorf("failed to read destination level total: %w", err)
	}
	if destTotal+move.Quantity > capacity {
		return fmt.Errorf("%w: level %d holds %d of %d, cannot add %d", ErrDestinationFull, move.ToLevel, destTotal, capacity, move.Quantity)
	}

	// Drain the oldest batches first
	remaining := move.Quantity
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		take := row.Quantity
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		if err := inventory.UpdateQuantity(ctx, row.ID, row.Quantity-take); err != nil {
			return fmt.Errorf("failed to decrement source row %s: %w", row.ID, err)
		}
		remaining -= take
	}

	added, err := inventory.AddToNewestBatch(ctx, move.ProductID, move.LocationID, toShelf, move.Quantity)
	if err != nil {
		return fmt.Errorf("failed to increment destination: %w", err)
	}
	if !added {
		record := &models.InventoryRecord{
			ProductID:  move.ProductID,
			LocationID: move.LocationID,
			ShelfLevel: toShelf,
			Quantity:   move.Quantity,
			ReceivedAt: time.Now(),
		}
		if err := inventory.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create destination row: %w", err)
		}
	}

	if _, err := inventory.DeleteEmpty(ctx, move.ProductID, move.LocationID, fromShelf); err != nil {
		return fmt.Errorf("failed to delete emptied source rows: %w", err)
	}
	if err := locations.RecomputeOccupancy(ctx, move.LocationID); err != nil {
		return fmt.Errorf("failed to recompute location occupancy: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit move: %w", err)
	}
	return nil
}

// audit records the committed move. Failures are logged and never undo the move.
func (e *moveExecutor) audit(ctx context.Context, move models.Move, fromShelf, toShelf string) {
	entry := &models.AuditLog{
		TableName: "inventory",
		RecordID:  move.ProductID.String(),
		Action:    models.ActionStockMove,
		Message: fmt.Sprintf("Moved %d units of product %s from level %d (%s) to level %d (%s): %s",
			move.Quantity, move.ProductID, move.FromLevel, fromShelf, move.ToLevel, toShelf, move.Reason),
		NewValues: models.JSONB{
			"location_id": move.LocationID.String(),
			"product_id":  move.ProductID.String(),
			"from_level":  move.FromLevel,
			"to_level":    move.ToLevel,
			"quantity":    move.Quantity,
			"reason":      move.Reason,
		},
		RunID: common.RunIDPtr(ctx),
	}
	if err := e.auditRepo.Create(ctx, entry); err != nil {
		e.logger.Warn("failed to write move audit log",
			"run_id", common.RunIDFromContext(ctx), "location_id", move.LocationID, "product_id", move.ProductID, "error", err)
	}
}
