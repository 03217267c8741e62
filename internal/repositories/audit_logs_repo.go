package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"slotwise/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	// Create a new audit log entry
	Create(ctx context.Context, auditLog *models.AuditLog) error
}

type auditLogsRepo struct {
	db DBTX
}

func NewAuditLogsRepo(db DBTX) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	auditLog.CreatedAt = time.Now()
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}

	query := `
		INSERT INTO audit_logs (id, table_name, record_id, action, message, new_values, run_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	// Marshal JSONB field
	var newValuesBytes []byte
	var err error
	if auditLog.NewValues != nil {
		newValuesBytes, err = json.Marshal(auditLog.NewValues)
		if err != nil {
			return fmt.Errorf("failed to marshal new_values: %w", err)
		}
	}

	_, err = r.db.Exec(ctx, query,
		auditLog.ID,
		auditLog.TableName,
		auditLog.RecordID,
		auditLog.Action,
		auditLog.Message,
		newValuesBytes,
		auditLog.RunID,
		auditLog.CreatedAt,
	)

	return err
}
