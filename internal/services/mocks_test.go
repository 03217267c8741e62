package services

import (
	"context"
	"time"

	"slotwise/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}

func (m *MockLocationRepository) ListAutoRepartition(ctx context.Context) ([]*models.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Location), args.Error(1)
}

func (m *MockLocationRepository) RecomputeOccupancy(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockLevelConfigRepository struct {
	mock.Mock
}

func (m *MockLevelConfigRepository) Get(ctx context.Context, locationID uuid.UUID) ([]*models.LevelConfig, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LevelConfig), args.Error(1)
}

func (m *MockLevelConfigRepository) GetOne(ctx context.Context, locationID uuid.UUID, levelNumber int) (*models.LevelConfig, error) {
	args := m.Called(ctx, locationID, levelNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LevelConfig), args.Error(1)
}

func (m *MockLevelConfigRepository) Upsert(ctx context.Context, cfg *models.LevelConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *MockLevelConfigRepository) CreateDefaults(ctx context.Context, locationID uuid.UUID, totalLevels int) error {
	return m.Called(ctx, locationID, totalLevels).Error(0)
}

type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) LevelStock(ctx context.Context, locationID uuid.UUID, shelfLevel string) ([]models.ProductStock, error) {
	args := m.Called(ctx, locationID, shelfLevel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProductStock), args.Error(1)
}

func (m *MockStockRepository) LevelTotal(ctx context.Context, locationID uuid.UUID, shelfLevel string) (int, error) {
	args := m.Called(ctx, locationID, shelfLevel)
	return args.Int(0), args.Error(1)
}

func (m *MockStockRepository) ProductLevelRows(ctx context.Context, productID, locationID uuid.UUID, shelfLevel string, forUpdate bool) ([]*models.InventoryRecord, error) {
	args := m.Called(ctx, productID, locationID, shelfLevel, forUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryRecord), args.Error(1)
}

func (m *MockStockRepository) Create(ctx context.Context, record *models.InventoryRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockStockRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

func (m *MockStockRepository) AddToNewestBatch(ctx context.Context, productID, locationID uuid.UUID, shelfLevel string, quantity int) (bool, error) {
	args := m.Called(ctx, productID, locationID, shelfLevel, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockStockRepository) DeleteEmpty(ctx context.Context, productID, locationID uuid.UUID, shelfLevel string) (int64, error) {
	args := m.Called(ctx, productID, locationID, shelfLevel)
	return args.Get(0).(int64), args.Error(1)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, auditLog *models.AuditLog) error {
	return m.Called(ctx, auditLog).Error(0)
}

type MockOccupancyAnalyzer struct {
	mock.Mock
}

func (m *MockOccupancyAnalyzer) Analyze(ctx context.Context, locationID uuid.UUID) (*models.LevelAnalysis, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LevelAnalysis), args.Error(1)
}

type MockMoveExecutor struct {
	mock.Mock
}

func (m *MockMoveExecutor) Execute(ctx context.Context, move models.Move) error {
	return m.Called(ctx, move).Error(0)
}

type MockLocationGuard struct {
	mock.Mock
	released int
}

func (m *MockLocationGuard) Acquire(ctx context.Context, locationID uuid.UUID) (bool, func(), error) {
	args := m.Called(ctx, locationID)
	return args.Bool(0), func() { m.released++ }, args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RunCompleted(dryRun bool, duration time.Duration) {
	m.Called(dryRun, duration)
}

func (m *MockRecorder) LocationProcessed(status string) {
	m.Called(status)
}

func (m *MockRecorder) MovesPlanned(count int) {
	m.Called(count)
}

func (m *MockRecorder) MoveExecuted() {
	m.Called()
}

func (m *MockRecorder) MoveFailed() {
	m.Called()
}

func (m *MockRecorder) ListingFailed() {
	m.Called()
}

// test fixtures

func newLocation(levels, capacity int) *models.Location {
	return &models.Location{
		ID:       uuid.New(),
		Code:     "A-01",
		Type:     models.LocationTypeShelf,
		Zone:     "A",
		Capacity: capacity,
		Levels:   levels,
		Status:   models.LocationStatusActive,
	}
}

func newProduct(name, category string) models.Product {
	return models.Product{ID: uuid.New(), Name: name, Category: category}
}

func stockOf(p models.Product, quantity int) models.ProductStock {
	return models.ProductStock{Product: p, Quantity: quantity}
}

func levelConfig(locationID uuid.UUID, level, total int, policy models.StoragePolicy) *models.LevelConfig {
	cfg := models.NewDefaultLevelConfig(locationID, level, total)
	cfg.Policy = policy
	cfg.StoredPolicy = string(policy.Kind())
	cfg.EnableAutoRepartition = true
	return cfg
}
