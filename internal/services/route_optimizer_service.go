package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/swiftdrop/delivery-route-backend/internal/models"
	"github.com/swiftdrop/delivery-route-backend/pkg/validator"
)

const (
	// FallbackKmPerStop is the flat distance estimate used when too few
	// stops are geocoded to run any distance math
	FallbackKmPerStop = 3.0

	// FallbackOptimizationScore marks a degraded fallback plan
	FallbackOptimizationScore = 60.0

	// TrivialOptimizationScore marks a route too small to optimize
	TrivialOptimizationScore = 100.0

	// minSearchableStops is the smallest valid-stop count worth running
	// the genetic search for
	minSearchableStops = 3
)

// RouteOptimizerService is the public entry point of the route
// optimization engine. It dispatches between single- and dual-route
// search per configuration, handles degraded inputs, and recomputes the
// final metrics on the winning route.
type RouteOptimizerService struct {
	evaluator  *RouteEvaluator
	comparator *DualRouteComparator
	logger     *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRouteOptimizerService creates a new route optimizer service
func NewRouteOptimizerService(logger *logrus.Logger) *RouteOptimizerService {
	return NewSeededRouteOptimizerService(logger, time.Now().UnixNano())
}

// NewSeededRouteOptimizerService creates a route optimizer service with
// a fixed random seed for reproducible runs
func NewSeededRouteOptimizerService(logger *logrus.Logger, seed int64) *RouteOptimizerService {
	return &RouteOptimizerService{
		evaluator:  NewRouteEvaluator(),
		comparator: NewDualRouteComparator(logger),
		logger:     logger,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// OptimizeFromDepot plans a route that departs from and returns to the
// fixed depot
func (s *RouteOptimizerService) OptimizeFromDepot(ctx context.Context, stops []models.Stop, depot models.Origin, cfg models.AlgorithmConfig) (*models.OptimizedRoute, error) {
	depot.Kind = models.OriginDepot
	return s.optimize(ctx, stops, depot, depot, cfg)
}

// OptimizeFromCurrentPosition re-plans a route in flight from the
// driver's live position. The opening leg starts at the live position
// and the closing leg still returns to the depot. Before seeding, the
// stop nearest the live position is moved to the front so re-planning
// reacts to the current instant instead of waiting for the search to
// converge on it.
func (s *RouteOptimizerService) OptimizeFromCurrentPosition(ctx context.Context, stops []models.Stop, current, depot models.Origin, cfg models.AlgorithmConfig) (*models.OptimizedRoute, error) {
	current.Kind = models.OriginCurrentPosition
	depot.Kind = models.OriginDepot
	return s.optimize(ctx, stops, current, depot, cfg)
}

func (s *RouteOptimizerService) optimize(ctx context.Context, stops []models.Stop, origin, terminal models.Origin, cfg models.AlgorithmConfig) (*models.OptimizedRoute, error) {
	cfg = sanitizeConfig(cfg)
	valid, invalid := splitByCoordinates(stops)

	if len(valid) < 2 {
		return s.fallbackRoute(stops), nil
	}

	if origin.Kind == models.OriginCurrentPosition {
		front := nearestToOriginIndex(valid, origin)
		valid[0], valid[front] = valid[front], valid[0]
	}

	if len(valid) < minSearchableStops {
		return s.trivialRoute(valid, invalid, origin, terminal), nil
	}

	var (
		route       []models.Stop
		distance    float64
		fitness     float64
		generations int
		comparison  *models.RouteComparison
	)

	if cfg.DualRouteMode {
		result, err := s.comparator.Run(ctx, valid, origin, terminal, cfg, [2]int64{s.nextSeed(), s.nextSeed()})
		if err != nil {
			return nil, err
		}
		route = result.Route
		distance = result.Distance
		fitness = result.Fitness
		generations = result.Generations
		comparison = &result.Comparison
	} else {
		search := NewGeneticSearch(rand.New(rand.NewSource(s.nextSeed())), s.logger)
		result, err := search.Run(ctx, valid, origin, terminal, cfg, "single")
		if err != nil {
			return nil, err
		}
		route = result.Route
		distance = result.Distance
		fitness = result.Fitness
		generations = result.Generations
	}

	s.logger.WithFields(logrus.Fields{
		"origin":      origin.Kind,
		"stops":       len(valid),
		"ungeocoded":  len(invalid),
		"distance_km": distance,
		"generations": generations,
	}).Info("Route optimization complete")

	// Ungeocoded stops still get delivered, so they count toward handling
	// time even though they are excluded from the distance math
	return &models.OptimizedRoute{
		Stops:              append(route, invalid...),
		TotalDistanceKm:    distance,
		EstimatedTimeHours: s.evaluator.EstimatedTime(distance, len(valid)+len(invalid)),
		OptimizationScore:  s.evaluator.OptimizationScore(distance, len(valid)),
		FuelCostEstimate:   s.evaluator.FuelCost(distance),
		GenerationCount:    generations,
		FitnessScore:       fitness,
		Comparison:         comparison,
	}, nil
}

// fallbackRoute keeps stops in input order with a flat per-stop distance
// estimate, so callers always receive a usable plan even when geocoding
// data is too poor for any distance math
func (s *RouteOptimizerService) fallbackRoute(stops []models.Stop) *models.OptimizedRoute {
	distance := float64(len(stops)) * FallbackKmPerStop

	s.logger.WithField("stops", len(stops)).Warn("Too few geocoded stops, returning fallback route")

	return &models.OptimizedRoute{
		Stops:              copyStops(stops),
		TotalDistanceKm:    distance,
		EstimatedTimeHours: s.evaluator.EstimatedTime(distance, len(stops)),
		OptimizationScore:  FallbackOptimizationScore,
		FuelCostEstimate:   s.evaluator.FuelCost(distance),
		GenerationCount:    0,
		FitnessScore:       s.evaluator.Fitness(distance, len(stops), 0),
	}
}

// trivialRoute computes direct metrics for routes too small to optimize
func (s *RouteOptimizerService) trivialRoute(valid, invalid []models.Stop, origin, terminal models.Origin) *models.OptimizedRoute {
	distance := s.evaluator.RouteDistance(valid, origin, terminal)
	bonus := s.evaluator.AdjacencyBonus(valid, origin)

	return &models.OptimizedRoute{
		Stops:              append(copyStops(valid), invalid...),
		TotalDistanceKm:    distance,
		EstimatedTimeHours: s.evaluator.EstimatedTime(distance, len(valid)+len(invalid)),
		OptimizationScore:  TrivialOptimizationScore,
		FuelCostEstimate:   s.evaluator.FuelCost(distance),
		GenerationCount:    0,
		FitnessScore:       s.evaluator.Fitness(distance, len(valid), bonus),
	}
}

// sanitizeConfig replaces config values the search cannot run with by
// their defaults and clamps the rates, so a sparse or malformed config
// degrades to the default behavior instead of producing an empty
// population
func sanitizeConfig(cfg models.AlgorithmConfig) models.AlgorithmConfig {
	defaults := models.DefaultAlgorithmConfig()

	if cfg.PopulationSize < 2 {
		cfg.PopulationSize = defaults.PopulationSize
	}
	if cfg.MaxGenerations < 1 {
		cfg.MaxGenerations = defaults.MaxGenerations
	}
	if cfg.MutationRate < 0 {
		cfg.MutationRate = 0
	} else if cfg.MutationRate > 1 {
		cfg.MutationRate = 1
	}
	if cfg.CrossoverRate < 0 {
		cfg.CrossoverRate = 0
	} else if cfg.CrossoverRate > 1 {
		cfg.CrossoverRate = 1
	}
	if cfg.EliteCount < 0 {
		cfg.EliteCount = 0
	} else if cfg.EliteCount >= cfg.PopulationSize {
		cfg.EliteCount = cfg.PopulationSize - 1
	}
	if cfg.ConvergenceThreshold < 0 {
		cfg.ConvergenceThreshold = defaults.ConvergenceThreshold
	}

	return cfg
}

func (s *RouteOptimizerService) nextSeed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int63()
}

// splitByCoordinates partitions stops into those usable in distance math
// and those that are missing or carry out-of-range coordinates. Stops
// without an identifier are assigned one so the genetic operators can
// track them through recombination.
func splitByCoordinates(stops []models.Stop) (valid, invalid []models.Stop) {
	for _, stop := range stops {
		if stop.ID == "" {
			stop.ID = uuid.New().String()
		}
		if stop.HasCoordinates() && validator.ValidCoordinatePair(*stop.Latitude, *stop.Longitude) {
			valid = append(valid, stop)
		} else {
			invalid = append(invalid, stop)
		}
	}
	return valid, invalid
}
