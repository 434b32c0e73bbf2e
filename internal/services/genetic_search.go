package services

import (
	"context"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/swiftdrop/delivery-route-backend/internal/models"
)

const (
	// StagnationLimit is the number of consecutive generations without a
	// distance improvement beyond the convergence threshold before the
	// search terminates early
	StagnationLimit = 50

	// tournamentSize is the number of contenders drawn per parent selection
	tournamentSize = 5
)

// SearchResult is the outcome of one genetic search invocation
type SearchResult struct {
	Route       []models.Stop
	Distance    float64
	Fitness     float64
	Generations int
}

// GeneticSearch evolves a population of candidate routes through
// tournament selection, order-preserving crossover, swap mutation and
// elitism until the search stagnates or the generation cap is reached
type GeneticSearch struct {
	evaluator *RouteEvaluator
	seeder    *PopulationSeeder
	rng       *rand.Rand
	logger    *logrus.Logger
}

// NewGeneticSearch creates a new genetic search backed by the given
// random source
func NewGeneticSearch(rng *rand.Rand, logger *logrus.Logger) *GeneticSearch {
	return &GeneticSearch{
		evaluator: NewRouteEvaluator(),
		seeder:    NewPopulationSeeder(rng),
		rng:       rng,
		logger:    logger,
	}
}

type scoredRoute struct {
	route    []models.Stop
	distance float64
	fitness  float64
}

// Run executes the search over the given stops. The origin opens every
// route; the terminal closes it (always the depot). The seedLabel
// decorrelates the seeded portion of the initial population between
// otherwise identical invocations.
//
// Cancellation is cooperative: the context is polled once per
// generation, and the best route found so far is returned alongside the
// context error.
func (g *GeneticSearch) Run(ctx context.Context, stops []models.Stop, origin, terminal models.Origin, cfg models.AlgorithmConfig, seedLabel string) (*SearchResult, error) {
	population := g.seeder.Seed(stops, origin, cfg.PopulationSize, seedLabel)

	var best scoredRoute
	bestDistance := -1.0
	stagnation := 0
	generation := 0

	for generation = 0; generation < cfg.MaxGenerations; generation++ {
		if err := ctx.Err(); err != nil {
			return resultFrom(best, generation), err
		}

		scored := g.evaluate(population, origin, terminal)

		genBest := scored[0]
		if best.route == nil || genBest.fitness > best.fitness {
			best = genBest
		}

		// Stagnation tracks the best distance, not fitness: a route that
		// merely reshuffles without shortening does not reset the counter
		if bestDistance >= 0 && abs(genBest.distance-bestDistance) < cfg.ConvergenceThreshold {
			stagnation++
		} else {
			stagnation = 0
			bestDistance = genBest.distance
		}

		if stagnation > StagnationLimit {
			g.logger.WithFields(logrus.Fields{
				"generation": generation,
				"distance":   best.distance,
			}).Debug("Search stagnated, terminating early")
			break
		}

		population = g.evolve(scored, cfg)
	}

	return resultFrom(best, generation), nil
}

// evaluate scores every route in the population and returns them sorted
// fittest first
func (g *GeneticSearch) evaluate(population [][]models.Stop, origin, terminal models.Origin) []scoredRoute {
	scored := make([]scoredRoute, len(population))
	for i, route := range population {
		distance := g.evaluator.RouteDistance(route, origin, terminal)
		bonus := g.evaluator.AdjacencyBonus(route, origin)
		scored[i] = scoredRoute{
			route:    route,
			distance: distance,
			fitness:  g.evaluator.Fitness(distance, len(route), bonus),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].fitness > scored[j].fitness
	})

	return scored
}

// evolve builds the next generation: elites carried over verbatim, the
// remainder produced by tournament selection, crossover and mutation
func (g *GeneticSearch) evolve(scored []scoredRoute, cfg models.AlgorithmConfig) [][]models.Stop {
	next := make([][]models.Stop, 0, len(scored))

	elites := cfg.EliteCount
	if elites > len(scored) {
		elites = len(scored)
	}
	for i := 0; i < elites; i++ {
		next = append(next, copyStops(scored[i].route))
	}

	for len(next) < len(scored) {
		parent1 := g.tournamentSelect(scored)
		parent2 := g.tournamentSelect(scored)
		offspring := g.orderCrossover(parent1, parent2, cfg.CrossoverRate)
		g.swapMutation(offspring, cfg.MutationRate)
		next = append(next, offspring)
	}

	return next
}

// tournamentSelect draws a fixed number of random contenders and returns
// the fittest
func (g *GeneticSearch) tournamentSelect(scored []scoredRoute) []models.Stop {
	best := -1
	for i := 0; i < tournamentSize; i++ {
		contender := g.rng.Intn(len(scored))
		if best < 0 || scored[contender].fitness > scored[best].fitness {
			best = contender
		}
	}
	return scored[best].route
}

// orderCrossover recombines two parent routes while preserving position
// 0 from parent 1, so the stop nearest the origin is never displaced by
// recombination. A random sub-range of parent 1 is copied verbatim and
// the remaining positions are filled, in order, from parent 2.
//
// With probability 1-crossoverRate the crossover is skipped and the
// offspring is a verbatim copy of parent 1.
func (g *GeneticSearch) orderCrossover(parent1, parent2 []models.Stop, crossoverRate float64) []models.Stop {
	n := len(parent1)
	if n <= 2 || g.rng.Float64() >= crossoverRate {
		return copyStops(parent1)
	}

	offspring := make([]models.Stop, n)
	used := make(map[string]bool, n)

	offspring[0] = parent1[0]
	used[parent1[0].ID] = true

	start := g.rng.Intn(n-1) + 1
	end := start + g.rng.Intn(n-start)
	for i := start; i <= end; i++ {
		offspring[i] = parent1[i]
		used[parent1[i].ID] = true
	}

	// Fill the gaps, in order, from parent 2
	pos := 1
	for _, stop := range parent2 {
		if used[stop.ID] {
			continue
		}
		for pos < n && (pos >= start && pos <= end || offspring[pos].ID != "") {
			pos++
		}
		if pos >= n {
			break
		}
		offspring[pos] = stop
		used[stop.ID] = true
	}

	// Any position still unfilled at the range edges takes the next
	// unused stop from parent 1
	for i := 1; i < n; i++ {
		if offspring[i].ID != "" {
			continue
		}
		for _, stop := range parent1 {
			if !used[stop.ID] {
				offspring[i] = stop
				used[stop.ID] = true
				break
			}
		}
	}

	return offspring
}

// swapMutation swaps each position with a uniformly random other
// position, independently, with probability mutationRate. Position 0 is
// not protected here: an adjacency-breaking swap is corrected by
// selection pressure rather than by the operator.
func (g *GeneticSearch) swapMutation(route []models.Stop, mutationRate float64) {
	for i := range route {
		if g.rng.Float64() < mutationRate {
			j := g.rng.Intn(len(route))
			route[i], route[j] = route[j], route[i]
		}
	}
}

func resultFrom(best scoredRoute, generation int) *SearchResult {
	return &SearchResult{
		Route:       best.route,
		Distance:    best.distance,
		Fitness:     best.fitness,
		Generations: generation,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
