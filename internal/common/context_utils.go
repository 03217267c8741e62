package common

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	RunIDKey contextKey = "run_id"
)

// WithRunID returns a context carrying the repartition run id
func WithRunID(ctx context.Context, runID uuid.UUID) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// RunIDFromContext returns the run id, uuid.Nil when the context has none
func RunIDFromContext(ctx context.Context) uuid.UUID {
	if runID, ok := ctx.Value(RunIDKey).(uuid.UUID); ok {
		return runID
	}
	return uuid.Nil
}

// RunIDPtr returns the run id as a nullable column value
func RunIDPtr(ctx context.Context) *uuid.UUID {
	runID := RunIDFromContext(ctx)
	if runID == uuid.Nil {
		return nil
	}
	return &runID
}
