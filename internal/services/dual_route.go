package services

import (
	"context"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/swiftdrop/delivery-route-backend/internal/models"
)

const (
	// maxRefinementIterations bounds the crossover refinement passes run
	// between the two dual-route parents
	maxRefinementIterations = 10

	// Parent derivation factors. The two parents are intentionally
	// asymmetric so they explore structurally different solutions.
	parentAPopulationFactor = 0.8
	parentAMutationFactor   = 0.8
	parentBPopulationFactor = 1.2
	parentBMutationFactor   = 1.2
	parentBCrossoverFactor  = 0.9
)

// DualRouteResult carries the winning route of a dual-route run along
// with the comparison record for observability
type DualRouteResult struct {
	Route       []models.Stop
	Distance    float64
	Fitness     float64
	Generations int
	Comparison  models.RouteComparison
}

// DualRouteComparator runs the genetic search twice with derived
// configurations to obtain two independent parent routes, then refines
// them against each other with a bounded number of extra crossover
// passes, keeping the best distance seen
type DualRouteComparator struct {
	evaluator *RouteEvaluator
	logger    *logrus.Logger
}

// NewDualRouteComparator creates a new dual-route comparator
func NewDualRouteComparator(logger *logrus.Logger) *DualRouteComparator {
	return &DualRouteComparator{
		evaluator: NewRouteEvaluator(),
		logger:    logger,
	}
}

// deriveParentConfigs splits one base configuration into the two
// asymmetric parent configurations
func deriveParentConfigs(cfg models.AlgorithmConfig) (models.AlgorithmConfig, models.AlgorithmConfig) {
	configA := cfg
	configA.PopulationSize = scaledSize(cfg.PopulationSize, parentAPopulationFactor)
	configA.MutationRate = cfg.MutationRate * parentAMutationFactor

	configB := cfg
	configB.PopulationSize = scaledSize(cfg.PopulationSize, parentBPopulationFactor)
	configB.MutationRate = cfg.MutationRate * parentBMutationFactor
	configB.CrossoverRate = cfg.CrossoverRate * parentBCrossoverFactor

	return configA, configB
}

func scaledSize(size int, factor float64) int {
	scaled := int(float64(size) * factor)
	if scaled < 2 {
		scaled = 2
	}
	return scaled
}

// Run performs the full dual-route comparison. The two parent searches
// have no data dependency on each other and run concurrently; the
// refinement then crosses the running best against parent B, which is
// never replaced, so the second gene pool stays stable across
// iterations.
func (d *DualRouteComparator) Run(ctx context.Context, stops []models.Stop, origin, terminal models.Origin, cfg models.AlgorithmConfig, seeds [2]int64) (*DualRouteResult, error) {
	configA, configB := deriveParentConfigs(cfg)

	var (
		wg               sync.WaitGroup
		parentA, parentB *SearchResult
		errA, errB       error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		search := NewGeneticSearch(rand.New(rand.NewSource(seeds[0])), d.logger)
		parentA, errA = search.Run(ctx, stops, origin, terminal, configA, "parent-a")
	}()
	go func() {
		defer wg.Done()
		search := NewGeneticSearch(rand.New(rand.NewSource(seeds[1])), d.logger)
		parentB, errB = search.Run(ctx, stops, origin, terminal, configB, "parent-b")
	}()
	wg.Wait()

	if errA != nil {
		return nil, errA
	}
	if errB != nil {
		return nil, errB
	}

	refined, iterations := d.refine(parentA, parentB, origin, terminal, seeds[0]^seeds[1])

	// The answer is whichever of parent A, parent B and the refined
	// candidate covers the least distance
	selected := "A"
	winner := parentA
	if parentB.Distance < winner.Distance {
		selected = "B"
		winner = parentB
	}
	if refined.Distance < winner.Distance {
		selected = "crossover"
		winner = refined
	}

	betterParent := parentA.Distance
	if parentB.Distance < betterParent {
		betterParent = parentB.Distance
	}

	result := &DualRouteResult{
		Route:       winner.Route,
		Distance:    winner.Distance,
		Fitness:     winner.Fitness,
		Generations: winner.Generations,
		Comparison: models.RouteComparison{
			RouteADistance:      parentA.Distance,
			RouteAFitness:       parentA.Fitness,
			RouteBDistance:      parentB.Distance,
			RouteBFitness:       parentB.Fitness,
			SelectedRoute:       selected,
			DistanceImprovement: betterParent - winner.Distance,
			CrossoverIterations: iterations,
		},
	}

	d.logger.WithFields(logrus.Fields{
		"route_a_km": parentA.Distance,
		"route_b_km": parentB.Distance,
		"selected":   selected,
		"final_km":   winner.Distance,
		"iterations": iterations,
	}).Debug("Dual-route comparison complete")

	return result, nil
}

// refine runs bounded order-crossover passes of (running best, parent B)
// with crossover never skipped, adopting each offspring that shortens the
// route. The running best starts from parent A so the recombination
// always mixes the two independent gene pools.
func (d *DualRouteComparator) refine(parentA, parentB *SearchResult, origin, terminal models.Origin, seed int64) (*SearchResult, int) {
	rng := rand.New(rand.NewSource(seed))
	search := NewGeneticSearch(rng, d.logger)

	best := &SearchResult{
		Route:       copyStops(parentA.Route),
		Distance:    parentA.Distance,
		Fitness:     parentA.Fitness,
		Generations: parentA.Generations,
	}

	iterations := 0
	for i := 0; i < maxRefinementIterations; i++ {
		iterations++
		offspring := search.orderCrossover(best.Route, parentB.Route, 1.0)
		distance := d.evaluator.RouteDistance(offspring, origin, terminal)
		if distance < best.Distance {
			bonus := d.evaluator.AdjacencyBonus(offspring, origin)
			best = &SearchResult{
				Route:       offspring,
				Distance:    distance,
				Fitness:     d.evaluator.Fitness(distance, len(offspring), bonus),
				Generations: best.Generations,
			}
		}
	}

	return best, iterations
}
