package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"slotwise/internal/common"
	"slotwise/internal/metrics"
	"slotwise/internal/models"
	"slotwise/internal/repositories"

	"github.com/google/uuid"
)

// LocationGuard serializes runs against one location
type LocationGuard interface {
	// Acquire reports false when another run holds the location
	Acquire(ctx context.Context, locationID uuid.UUID) (bool, func(), error)
}

// RepartitionService drives analyze, plan and execute over eligible locations.
// Locations are processed sequentially and moves within a location in plan order.
type RepartitionService interface {
	ProcessAllLocations(ctx context.Context, dryRun bool) (*models.RepartitionSummary, error)
	ProcessLocation(ctx context.Context, locationID uuid.UUID, dryRun bool) (*models.LocationResult, error)
}

type repartitionService struct {
	locationRepo repositories.LocationRepository
	analyzer     OccupancyAnalyzer
	planner      RepartitionPlanner
	executor     MoveExecutor
	guard        LocationGuard
	metrics      metrics.Recorder
	logger       *slog.Logger
}

type RepartitionOption func(*repartitionService)

func WithLocationGuard(guard LocationGuard) RepartitionOption {
	return func(s *repartitionService) {
		s.guard = guard
	}
}

func WithMetrics(rec metrics.Recorder) RepartitionOption {
	return func(s *repartitionService) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

func WithLogger(logger *slog.Logger) RepartitionOption {
	return func(s *repartitionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewRepartitionService(locationRepo repositories.LocationRepository, analyzer OccupancyAnalyzer,
	planner RepartitionPlanner, executor MoveExecutor, opts ...RepartitionOption) RepartitionService {
	s := &repartitionService{
		locationRepo: locationRepo,
		analyzer:     analyzer,
		planner:      planner,
		executor:     executor,
		metrics:      metrics.NewNop(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *repartitionService) ProcessAllLocations(ctx context.Context, dryRun bool) (*models.RepartitionSummary, error) {
	runID := common.RunIDFromContext(ctx)
	if runID == uuid.Nil {
		runID = uuid.New()
		ctx = common.WithRunID(ctx, runID)
	}
	summary := models.NewRepartitionSummary(runID, dryRun)
	logger := s.logger.With("run_id", runID, "dry_run", dryRun)
	defer func() {
		summary.FinishedAt = time.Now()
		s.metrics.RunCompleted(dryRun, summary.FinishedAt.Sub(summary.StartedAt))
	}()

	locations, err := s.locationRepo.ListAutoRepartition(ctx)
	if err != nil {
		s.metrics.ListingFailed()
		summary.Errors = append(summary.Errors, fmt.Sprintf("Failed to list locations: %v", err))
		logger.Error("failed to list locations for repartition", "error", err)
		return summary, fmt.Errorf("failed to list locations: %w", err)
	}
	logger.Info("repartition run started", "locations", len(locations))

	for _, location := range locations {
		if err := ctx.Err(); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Run stopped before location %s: %v", location.ID, err))
			logger.Warn("repartition run stopped", "processed_locations", summary.ProcessedLocations, "error", err)
			break
		}

		result, err := s.ProcessLocation(ctx, location.ID, dryRun)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Failed to process location %s: %v", location.ID, err))
			logger.Error("failed to process location", "location_id", location.ID, "error", err)
			continue
		}

		summary.ProcessedLocations++
		summary.TotalMoves += result.MoveCount()
		summary.Errors = append(summary.Errors, result.Errors...)
		if result.Status != models.ResultNoIssues {
			summary.MovesDetails[location.ID] = result
		}
	}

	logger.Info("repartition run finished",
		"processed_locations", summary.ProcessedLocations, "total_moves", summary.TotalMoves, "errors", len(summary.Errors))
	return summary, nil
}

func (s *repartitionService) ProcessLocation(ctx context.Context, locationID uuid.UUID, dryRun bool) (*models.LocationResult, error) {
	logger := s.logger.With("run_id", common.RunIDFromContext(ctx), "location_id", locationID)

	if s.guard != nil {
		acquired, release, err := s.guard.Acquire(ctx, locationID)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire location lock: %w", err)
		}
		if !acquired {
			return nil, fmt.Errorf("%w: %s", ErrLocationBusy, locationID)
		}
		defer release()
	}

	analysis, err := s.analyzer.Analyze(ctx, locationID)
	if err != nil {
		return nil, err
	}

	result := &models.LocationResult{
		LocationID: locationID,
		DryRun:     dryRun,
		Issues:     analysis.Issues,
		Moves:      []models.Move{},
		Executed:   []models.Move{},
		Errors:     []string{},
	}
	if len(analysis.Issues) == 0 {
		result.Status = models.ResultNoIssues
		s.metrics.LocationProcessed(result.Status)
		return result, nil
	}

	result.Moves = s.planner.Plan(analysis)
	s.metrics.MovesPlanned(len(result.Moves))

	if dryRun {
		result.Status = models.ResultDryRun
		s.metrics.LocationProcessed(result.Status)
		logger.Info("repartition planned", "issues", len(result.Issues), "moves", len(result.Moves))
		return result, nil
	}

	for _, move := range result.Moves {
		if err := s.executor.Execute(ctx, move); err != nil {
			s.metrics.MoveFailed()
			result.Errors = append(result.Errors, moveFailureMessage(move, err))
			logger.Warn("move failed", "product_id", move.ProductID,
				"from_level", move.FromLevel, "to_level", move.ToLevel, "quantity", move.Quantity, "error", err)
			continue
		}
		s.metrics.MoveExecuted()
		result.Executed = append(result.Executed, move)
	}

	result.Status = models.ResultDone
	s.metrics.LocationProcessed(result.Status)
	logger.Info("repartition executed", "issues", len(result.Issues),
		"planned", len(result.Moves), "executed", len(result.Executed), "failed", len(result.Errors))
	return result, nil
}

func moveFailureMessage(move models.Move, err error) string {
	var moveErr *MoveError
	if errors.As(err, &moveErr) {
		return moveErr.Error()
	}
	return (&MoveError{Move: move, Err: err}).Error()
}
