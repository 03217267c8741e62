package services

import (
	"context"
	"errors"
	"testing"

	"slotwise/internal/common"
	"slotwise/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type RepartitionServiceTestSuite struct {
	suite.Suite
	locations *MockLocationRepository
	analyzer  *MockOccupancyAnalyzer
	executor  *MockMoveExecutor
	service   RepartitionService
	ctx       context.Context
}

func (s *RepartitionServiceTestSuite) SetupTest() {
	s.locations = new(MockLocationRepository)
	s.analyzer = new(MockOccupancyAnalyzer)
	s.executor = new(MockMoveExecutor)
	s.service = s.newService()
	s.ctx = context.Background()
}

func (s *RepartitionServiceTestSuite) newService(opts ...RepartitionOption) RepartitionService {
	opts = append([]RepartitionOption{WithLogger(discardLogger())}, opts...)
	return NewRepartitionService(s.locations, s.analyzer, newPlanner(), s.executor, opts...)
}

func (s *RepartitionServiceTestSuite) TearDownTest() {
	s.locations.AssertExpectations(s.T())
	s.analyzer.AssertExpectations(s.T())
	s.executor.AssertExpectations(s.T())
}

func TestRepartitionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RepartitionServiceTestSuite))
}

// overfullAnalysis is level 1 at 90% with 9 units of one product and two empty levels
func overfullAnalysis(loc *models.Location) (*models.LevelAnalysis, models.Product) {
	apple := newProduct("apple", "fruit")
	return analysisFor(loc, nil,
		map[int][]models.ProductStock{1: {stockOf(apple, 9)}},
		models.NewOverThreshold(1, 90, 80)), apple
}

func (s *RepartitionServiceTestSuite) TestProcessLocation_NoIssues() {
	loc := newLocation(3, 30)
	s.analyzer.On("Analyze", s.ctx, loc.ID).Return(analysisFor(loc, nil, nil), nil)

	result, err := s.service.ProcessLocation(s.ctx, loc.ID, false)

	s.Require().NoError(err)
	s.Equal(models.ResultNoIssues, result.Status)
	s.Empty(result.Moves)
	s.Equal(0, result.MoveCount())
	s.executor.AssertNotCalled(s.T(), "Execute", mock.Anything, mock.Anything)
}

func (s *RepartitionServiceTestSuite) TestProcessLocation_DryRunDoesNotExecute() {
	loc := newLocation(3, 30)
	analysis, apple := overfullAnalysis(loc)
	s.analyzer.On("Analyze", s.ctx, loc.ID).Return(analysis, nil)

	result, err := s.service.ProcessLocation(s.ctx, loc.ID, true)

	s.Require().NoError(err)
	s.Equal(models.ResultDryRun, result.Status)
	s.True(result.DryRun)
	s.Require().Len(result.Moves, 1)
	s.Equal(apple.ID, result.Moves[0].ProductID)
	s.Equal(5, result.Moves[0].Quantity)
	s.Equal(1, result.MoveCount())
	s.Empty(result.Executed)
	s.executor.AssertNotCalled(s.T(), "Execute", mock.Anything, mock.Anything)
}

func (s *RepartitionServiceTestSuite) TestProcessLocation_DryRunMatchesLiveRun() {
	loc := newLocation(3, 30)
	analysis, _ := overfullAnalysis(loc)
	s.analyzer.On("Analyze", s.ctx, loc.ID).Return(analysis, nil).Twice()
	s.executor.On("Execute", s.ctx, mock.AnythingOfType("models.Move")).Return(nil)

	dry, err := s.service.ProcessLocation(s.ctx, loc.ID, true)
	s.Require().NoError(err)
	live, err := s.service.ProcessLocation(s.ctx, loc.ID, false)
	s.Require().NoError(err)

	s.Equal(dry.Moves, live.Moves)
	s.Equal(dry.Moves, live.Executed)
	s.Equal(models.ResultDone, live.Status)
}

func (s *RepartitionServiceTestSuite) TestProcessLocation_FailedMoveContinues() {
	loc := newLocation(3, 30)
	apple := newProduct("apple", "fruit")
	pear := newProduct("pear", "fruit")
	analysis := analysisFor(loc, nil,
		map[int][]models.ProductStock{1: {stockOf(apple, 5), stockOf(pear, 4)}},
		models.NewOverThreshold(1, 90, 80))
	s.analyzer.On("Analyze", s.ctx, loc.ID).Return(analysis, nil)

	s.executor.On("Execute", s.ctx, mock.MatchedBy(func(m models.Move) bool { return m.ProductID == apple.ID })).
		Return(&MoveError{Move: models.Move{ProductID: apple.ID, FromLevel: 1, ToLevel: 2}, Err: ErrDestinationFull})
	s.executor.On("Execute", s.ctx, mock.MatchedBy(func(m models.Move) bool { return m.ProductID == pear.ID })).
		Return(nil)

	result, err := s.service.ProcessLocation(s.ctx, loc.ID, false)

	s.Require().NoError(err)
	s.Equal(models.ResultDone, result.Status)
	s.Len(result.Moves, 2)
	s.Require().Len(result.Executed, 1)
	s.Equal(pear.ID, result.Executed[0].ProductID)
	s.Equal([]string{"Failed to move product " + apple.ID.String() + " from level 1 to level 2"}, result.Errors)
	s.Equal(1, result.MoveCount())
}

func (s *RepartitionServiceTestSuite) TestProcessLocation_PlainErrorGetsMoveMessage() {
	loc := newLocation(3, 30)
	analysis, apple := overfullAnalysis(loc)
	s.analyzer.On("Analyze", s.ctx, loc.ID).Return(analysis, nil)
	s.executor.On("Execute", s.ctx, mock.Anything).Return(errors.New("connection reset"))

	result, err := s.service.ProcessLocation(s.ctx, loc.ID, false)

	s.Require().NoError(err)
	s.Equal([]string{"Failed to move product " + apple.ID.String() + " from level 1 to level 2"}, result.Errors)
}

func (s *RepartitionServiceTestSuite) TestProcessLocation_AnalyzeError() {
	id := uuid.New()
	s.analyzer.On("Analyze", s.ctx, id).Return(nil, ErrLocationNotFound)

	_, err := s.service.ProcessLocation(s.ctx, id, false)

	s.ErrorIs(err, ErrLocationNotFound)
}

func (s *RepartitionServiceTestSuite) TestProcessLocation_GuardBusy() {
	guard := new(MockLocationGuard)
	service := s.newService(WithLocationGuard(guard))
	id := uuid.New()
	guard.On("Acquire", s.ctx, id).Return(false, nil)

	_, err := service.ProcessLocation(s.ctx, id, false)

	s.ErrorIs(err, ErrLocationBusy)
	s.Equal(0, guard.released)
	guard.AssertExpectations(s.T())
}

func (s *RepartitionServiceTestSuite) TestProcessLocation_GuardReleased() {
	guard := new(MockLocationGuard)
	service := s.newService(WithLocationGuard(guard))
	loc := newLocation(3, 30)
	guard.On("Acquire", s.ctx, loc.ID).Return(true, nil)
	s.analyzer.On("Analyze", s.ctx, loc.ID).Return(analysisFor(loc, nil, nil), nil)

	_, err := service.ProcessLocation(s.ctx, loc.ID, false)

	s.NoError(err)
	s.Equal(1, guard.released)
	guard.AssertExpectations(s.T())
}

func (s *RepartitionServiceTestSuite) TestProcessAllLocations() {
	calm := newLocation(3, 30)
	busy := newLocation(3, 30)
	missing := newLocation(3, 30)
	analysis, _ := overfullAnalysis(busy)

	hasRunID := mock.MatchedBy(func(ctx context.Context) bool { return common.RunIDFromContext(ctx) != uuid.Nil })
	s.locations.On("ListAutoRepartition", mock.Anything).Return([]*models.Location{calm, busy, missing}, nil)
	s.analyzer.On("Analyze", hasRunID, calm.ID).Return(analysisFor(calm, nil, nil), nil)
	s.analyzer.On("Analyze", hasRunID, busy.ID).Return(analysis, nil)
	s.analyzer.On("Analyze", hasRunID, missing.ID).Return(nil, ErrLocationNotFound)
	s.executor.On("Execute", hasRunID, mock.Anything).Return(nil)

	summary, err := s.service.ProcessAllLocations(s.ctx, false)

	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, summary.RunID)
	s.Equal(2, summary.ProcessedLocations)
	s.Equal(1, summary.TotalMoves)
	s.Require().Len(summary.Errors, 1)
	s.Contains(summary.Errors[0], missing.ID.String())
	s.NotContains(summary.MovesDetails, calm.ID)
	s.Require().Contains(summary.MovesDetails, busy.ID)
	s.Equal(models.ResultDone, summary.MovesDetails[busy.ID].Status)
	s.False(summary.FinishedAt.Before(summary.StartedAt))
}

func (s *RepartitionServiceTestSuite) TestProcessAllLocations_DryRunCountsPlannedMoves() {
	loc := newLocation(3, 30)
	analysis, _ := overfullAnalysis(loc)
	s.locations.On("ListAutoRepartition", mock.Anything).Return([]*models.Location{loc}, nil)
	s.analyzer.On("Analyze", mock.Anything, loc.ID).Return(analysis, nil)

	summary, err := s.service.ProcessAllLocations(s.ctx, true)

	s.Require().NoError(err)
	s.True(summary.DryRun)
	s.Equal(1, summary.TotalMoves)
	s.Equal(models.ResultDryRun, summary.MovesDetails[loc.ID].Status)
}

func (s *RepartitionServiceTestSuite) TestProcessAllLocations_KeepsCallerRunID() {
	runID := uuid.New()
	ctx := common.WithRunID(s.ctx, runID)
	s.locations.On("ListAutoRepartition", ctx).Return([]*models.Location{}, nil)

	summary, err := s.service.ProcessAllLocations(ctx, true)

	s.Require().NoError(err)
	s.Equal(runID, summary.RunID)
}

func (s *RepartitionServiceTestSuite) TestProcessAllLocations_ListingFailure() {
	recorder := new(MockRecorder)
	service := s.newService(WithMetrics(recorder))
	s.locations.On("ListAutoRepartition", mock.Anything).Return(nil, errors.New("connection refused"))
	recorder.On("ListingFailed").Return()
	recorder.On("RunCompleted", false, mock.AnythingOfType("time.Duration")).Return()

	summary, err := service.ProcessAllLocations(s.ctx, false)

	s.Error(err)
	s.Require().NotNil(summary)
	s.Equal(0, summary.ProcessedLocations)
	s.Equal(0, summary.TotalMoves)
	s.Require().Len(summary.Errors, 1)
	s.Contains(summary.Errors[0], "connection refused")
	recorder.AssertExpectations(s.T())
}

func (s *RepartitionServiceTestSuite) TestProcessAllLocations_StopsWhenCancelled() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	loc := newLocation(3, 30)
	s.locations.On("ListAutoRepartition", mock.Anything).Return([]*models.Location{loc}, nil)

	summary, err := s.service.ProcessAllLocations(ctx, false)

	s.Require().NoError(err)
	s.Equal(0, summary.ProcessedLocations)
	s.Len(summary.Errors, 1)
	s.analyzer.AssertNotCalled(s.T(), "Analyze", mock.Anything, loc.ID)
}

func (s *RepartitionServiceTestSuite) TestProcessAllLocations_RecordsMetrics() {
	recorder := new(MockRecorder)
	service := s.newService(WithMetrics(recorder))
	loc := newLocation(3, 30)
	analysis, _ := overfullAnalysis(loc)

	s.locations.On("ListAutoRepartition", mock.Anything).Return([]*models.Location{loc}, nil)
	s.analyzer.On("Analyze", mock.Anything, loc.ID).Return(analysis, nil)
	s.executor.On("Execute", mock.Anything, mock.Anything).Return(nil)
	recorder.On("MovesPlanned", 1).Return()
	recorder.On("MoveExecuted").Return()
	recorder.On("LocationProcessed", models.ResultDone).Return()
	recorder.On("RunCompleted", false, mock.AnythingOfType("time.Duration")).Return()

	_, err := service.ProcessAllLocations(s.ctx, false)

	s.NoError(err)
	recorder.AssertExpectations(s.T())
}
