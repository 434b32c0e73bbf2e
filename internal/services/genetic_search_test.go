package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftdrop/delivery-route-backend/internal/models"
)

func newTestSearch(seed int64) *GeneticSearch {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewGeneticSearch(rand.New(rand.NewSource(seed)), logger)
}

func smallSearchConfig() models.AlgorithmConfig {
	return models.AlgorithmConfig{
		PopulationSize:       40,
		MaxGenerations:       120,
		MutationRate:         0.02,
		CrossoverRate:        1.0,
		EliteCount:           4,
		ConvergenceThreshold: 0.001,
	}
}

func TestOrderCrossover_PreservesFirstPosition(t *testing.T) {
	search := newTestSearch(1)
	parent1 := seederStops()
	parent2 := []models.Stop{parent1[4], parent1[3], parent1[2], parent1[1], parent1[0]}

	for i := 0; i < 50; i++ {
		offspring := search.orderCrossover(parent1, parent2, 1.0)
		assert.Equal(t, parent1[0].ID, offspring[0].ID)
		assertPermutation(t, parent1, offspring)
	}
}

func TestOrderCrossover_ZeroRateCopiesParent1(t *testing.T) {
	search := newTestSearch(1)
	parent1 := seederStops()
	parent2 := []models.Stop{parent1[4], parent1[3], parent1[2], parent1[1], parent1[0]}

	offspring := search.orderCrossover(parent1, parent2, 0)

	require.Len(t, offspring, len(parent1))
	for i := range parent1 {
		assert.Equal(t, parent1[i].ID, offspring[i].ID)
	}
}

func TestOrderCrossover_TinyRoutesCopyParent1(t *testing.T) {
	search := newTestSearch(1)
	stops := seederStops()[:2]
	reversed := []models.Stop{stops[1], stops[0]}

	offspring := search.orderCrossover(stops, reversed, 1.0)

	assert.Equal(t, stops[0].ID, offspring[0].ID)
	assert.Equal(t, stops[1].ID, offspring[1].ID)
}

func TestSwapMutation_PreservesStopSet(t *testing.T) {
	search := newTestSearch(1)
	stops := seederStops()

	for i := 0; i < 50; i++ {
		route := copyStops(stops)
		search.swapMutation(route, 0.5)
		assertPermutation(t, stops, route)
	}
}

func TestSwapMutation_ZeroRateIsNoop(t *testing.T) {
	search := newTestSearch(1)
	stops := seederStops()
	route := copyStops(stops)

	search.swapMutation(route, 0)

	for i := range stops {
		assert.Equal(t, stops[i].ID, route[i].ID)
	}
}

func TestRun_FindsLowDistanceRoute(t *testing.T) {
	search := newTestSearch(42)
	stops := seederStops()

	result, err := search.Run(context.Background(), stops, testDepot, testDepot, smallSearchConfig(), "test")

	require.NoError(t, err)
	assertPermutation(t, stops, result.Route)
	assert.Greater(t, result.Distance, 0.0)
	assert.Greater(t, result.Fitness, 0.0)
	assert.Greater(t, result.Generations, 0)

	// The search should never do worse than plain greedy construction
	evaluator := NewRouteEvaluator()
	seeder := NewPopulationSeeder(rand.New(rand.NewSource(1)))
	greedy := evaluator.RouteDistance(seeder.buildGreedyRoute(stops, testDepot), testDepot, testDepot)
	assert.LessOrEqual(t, result.Distance, greedy+1e-9)
}

func TestRun_DeterministicForEqualSeeds(t *testing.T) {
	stops := seederStops()
	cfg := smallSearchConfig()

	first, err := newTestSearch(42).Run(context.Background(), stops, testDepot, testDepot, cfg, "test")
	require.NoError(t, err)
	second, err := newTestSearch(42).Run(context.Background(), stops, testDepot, testDepot, cfg, "test")
	require.NoError(t, err)

	assert.Equal(t, first.Distance, second.Distance)
	assert.Equal(t, first.Generations, second.Generations)
	for i := range first.Route {
		assert.Equal(t, first.Route[i].ID, second.Route[i].ID)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	search := newTestSearch(1)
	stops := seederStops()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := search.Run(ctx, stops, testDepot, testDepot, smallSearchConfig(), "test")

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, result)
	assert.Equal(t, 0, result.Generations)
}
