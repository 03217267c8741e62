package models

import (
	"time"

	"github.com/google/uuid"
)

// JSONB is a free-form JSON object stored in a jsonb column
type JSONB map[string]interface{}

// AuditLog represents an audit log entry for tracking stock changes
type AuditLog struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TableName string     `json:"table_name" db:"table_name"`
	RecordID  string     `json:"record_id" db:"record_id"`
	Action    string     `json:"action" db:"action"`
	Message   string     `json:"message" db:"message"`
	NewValues JSONB      `json:"new_values" db:"new_values"`
	RunID     *uuid.UUID `json:"run_id" db:"run_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Action constants for audit logs
const (
	ActionInsert    = "INSERT"
	ActionUpdate    = "UPDATE"
	ActionDelete    = "DELETE"
	ActionStockMove = "STOCK_MOVE"
)
