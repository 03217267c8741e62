package services

import (
	"log/slog"
	"math"
	"sort"

	"slotwise/internal/models"

	"github.com/google/uuid"
)

// MaxMoveShare caps an over-threshold move at this share of the product's stock on the level
const MaxMoveShare = 0.5

// RepartitionPlanner turns analysis issues into an ordered list of moves.
// Scores come from the analysis snapshot only; the executor re-checks capacity per move.
type RepartitionPlanner interface {
	Plan(analysis *models.LevelAnalysis) []models.Move
}

type repartitionPlanner struct {
	namer  models.LevelNamer
	logger *slog.Logger
}

func NewRepartitionPlanner(namer models.LevelNamer, logger *slog.Logger) RepartitionPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &repartitionPlanner{namer: namer, logger: logger}
}

type stockKey struct {
	shelf     string
	productID uuid.UUID
}

// plan holds the bookkeeping of one Plan call. incoming is the stock
// already planned onto each shelf, checked with the snapshot occupants.
type plan struct {
	analysis  *models.LevelAnalysis
	namer     models.LevelNamer
	moves     []models.Move
	scheduled map[stockKey]int
	incoming  map[string][]models.ProductStock
}

func (p *repartitionPlanner) Plan(analysis *models.LevelAnalysis) []models.Move {
	if analysis == nil || len(analysis.Issues) == 0 {
		return []models.Move{}
	}

	pl := &plan{
		analysis:  analysis,
		namer:     p.namer,
		moves:     []models.Move{},
		scheduled: make(map[stockKey]int),
		incoming:  make(map[string][]models.ProductStock),
	}

	singleProductLevels := make(map[int]bool)
	for _, issue := range analysis.Issues {
		if issue.Kind == models.ViolationPolicy && issue.Policy == models.PolicySingleProductType {
			singleProductLevels[issue.Level] = true
		}
	}

	for _, issue := range analysis.Issues {
		source, ok := analysis.Levels[issue.Level]
		if !ok {
			continue
		}
		switch issue.Kind {
		case models.ViolationOverThreshold:
			for _, stock := range source.Products {
				remaining := pl.remaining(source, stock.ID)
				if remaining <= 0 {
					continue
				}
				target := pl.findBestTargetLevel(issue.Level, stock.Product)
				if target == nil || target.AvailableSpace <= 0 {
					continue
				}
				half := int(math.Ceil(float64(remaining) * MaxMoveShare))
				pl.add(source, target, stock.Product, minInt(remaining, half, target.AvailableSpace), models.ReasonOverThreshold)
			}

		case models.ViolationPolicy:
			if issue.Policy != models.PolicySingleProductType {
				// category mismatches are moved through their placement violations
				continue
			}
			// Products are ranked by quantity; the first one stays
			ranked := append([]models.ProductStock(nil), source.Products...)
			sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Quantity > ranked[j].Quantity })
			for i, stock := range ranked {
				if i == 0 {
					continue
				}
				pl.moveAll(issue.Level, source, stock.Product, models.ReasonSingleProductType)
			}

		case models.ViolationPlacement:
			if issue.ProductID == nil {
				continue
			}
			if issue.Rule == models.RuleSingleProduct && singleProductLevels[issue.Level] {
				continue
			}
			for _, stock := range source.Products {
				if stock.ID == *issue.ProductID {
					pl.moveAll(issue.Level, source, stock.Product, models.ReasonPlacementViolation)
					break
				}
			}
		}
	}

	p.logger.Debug("repartition planned", "location_id", analysis.LocationID, "issues", len(analysis.Issues), "moves", len(pl.moves))
	return pl.moves
}

func (pl *plan) moveAll(level int, source *models.OccupancySnapshot, product models.Product, reason string) {
	remaining := pl.remaining(source, product.ID)
	if remaining <= 0 {
		return
	}
	target := pl.findBestTargetLevel(level, product)
	if target == nil {
		return
	}
	pl.add(source, target, product, remaining, reason)
}

func (pl *plan) remaining(source *models.OccupancySnapshot, productID uuid.UUID) int {
	return source.Quantity(productID) - pl.scheduled[stockKey{shelf: source.ShelfLevel, productID: productID}]
}

func (pl *plan) add(source, target *models.OccupancySnapshot, product models.Product, quantity int, reason string) {
	if quantity <= 0 {
		return
	}
	pl.scheduled[stockKey{shelf: source.ShelfLevel, productID: product.ID}] += quantity
	pl.incoming[target.ShelfLevel] = append(pl.incoming[target.ShelfLevel], models.ProductStock{Product: product, Quantity: quantity})
	pl.moves = append(pl.moves, models.Move{
		LocationID: pl.analysis.LocationID,
		ProductID:  product.ID,
		FromLevel:  source.LevelNumber,
		ToLevel:    target.LevelNumber,
		Quantity:   quantity,
		Reason:     reason,
	})
}

// findBestTargetLevel picks the level, other than source, that accepts product and has free space
// with the highest capacity * free fraction. Equal scores keep the lower level number.
func (pl *plan) findBestTargetLevel(source int, product models.Product) *models.OccupancySnapshot {
	var best *models.OccupancySnapshot
	bestScore := 0.0
	for _, level := range pl.analysis.Order {
		if level == source || pl.namer.SameShelf(level, source) {
			continue
		}
		candidate := pl.analysis.Levels[level]
		if candidate == nil || candidate.AvailableSpace <= 0 {
			continue
		}
		if res := CheckPlacement(pl.analysis.Configs[level], pl.occupants(candidate), product); !res.Valid {
			continue
		}
		score := levelScore(candidate)
		if best == nil || score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best
}

// occupants is the snapshot stock of target plus what this plan already sends there
func (pl *plan) occupants(target *models.OccupancySnapshot) []models.ProductStock {
	incoming := pl.incoming[target.ShelfLevel]
	if len(incoming) == 0 {
		return target.Products
	}
	occupants := make([]models.ProductStock, 0, len(target.Products)+len(incoming))
	occupants = append(occupants, target.Products...)
	return append(occupants, incoming...)
}

// levelScore favours levels that are both large and empty
func levelScore(s *models.OccupancySnapshot) float64 {
	capacity := s.LevelCapacity
	if capacity < 1 {
		capacity = 1
	}
	return float64(s.LevelCapacity) * (float64(s.AvailableSpace) / float64(capacity))
}

func minInt(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}
