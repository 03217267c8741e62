package models

import (
	"time"

	"github.com/google/uuid"
)

// Move reasons
const (
	ReasonOverThreshold      = "over_threshold"
	ReasonSingleProductType  = "single_product_type"
	ReasonPlacementViolation = "placement_violation"
)

// Move is a planned transfer of stock between two levels of one location
type Move struct {
	LocationID uuid.UUID `json:"location_id"`
	ProductID  uuid.UUID `json:"product_id"`
	FromLevel  int       `json:"from_level"`
	ToLevel    int       `json:"to_level"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
}

// Location result statuses
const (
	ResultNoIssues = "no_issues"
	ResultDryRun   = "dry_run"
	ResultDone     = "done"
)

// LocationResult is the outcome of one location pass.
// Moves holds the plan in both modes; Executed holds what committed in a live run.
type LocationResult struct {
	LocationID uuid.UUID   `json:"location_id"`
	Status     string      `json:"status"`
	DryRun     bool        `json:"dry_run"`
	Issues     []Violation `json:"issues"`
	Moves      []Move      `json:"moves"`
	Executed   []Move      `json:"executed"`
	Errors     []string    `json:"errors"`
}

// MoveCount is the number of moves the pass counts toward the run total:
// planned moves in a dry run, committed moves otherwise.
func (r *LocationResult) MoveCount() int {
	if r.DryRun {
		return len(r.Moves)
	}
	return len(r.Executed)
}

// RepartitionSummary aggregates a run over all eligible locations
type RepartitionSummary struct {
	RunID              uuid.UUID                     `json:"run_id"`
	DryRun             bool                          `json:"dry_run"`
	ProcessedLocations int                           `json:"processed_locations"`
	TotalMoves         int                           `json:"total_moves"`
	Errors             []string                      `json:"errors"`
	MovesDetails       map[uuid.UUID]*LocationResult `json:"moves_details"`
	StartedAt          time.Time                     `json:"started_at"`
	FinishedAt         time.Time                     `json:"finished_at"`
}

// NewRepartitionSummary returns an empty summary for runID
func NewRepartitionSummary(runID uuid.UUID, dryRun bool) *RepartitionSummary {
	return &RepartitionSummary{
		RunID:        runID,
		DryRun:       dryRun,
		Errors:       []string{},
		MovesDetails: make(map[uuid.UUID]*LocationResult),
		StartedAt:    time.Now(),
	}
}
