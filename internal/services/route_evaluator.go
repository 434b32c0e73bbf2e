package services

import (
	"math"

	"github.com/swiftdrop/delivery-route-backend/internal/models"
)

const (
	// BaselineKmPerStop is the expected distance per stop used as the
	// fitness baseline
	BaselineKmPerStop = 1.5

	// AverageSpeedKmh is the assumed driving speed for time estimates
	AverageSpeedKmh = 30.0

	// HandlingHoursPerStop is the per-stop handling time (about 20 minutes)
	HandlingHoursPerStop = 0.33

	// KmPerLiter is the assumed fuel efficiency for cost estimates
	KmPerLiter = 10.0

	// FuelPricePerLiter is the assumed fuel price in pesos per liter
	FuelPricePerLiter = 60.0

	// IdealKmPerStop is the ideal distance per stop for the 0-100
	// optimization score
	IdealKmPerStop = 2.0

	// AdjacencyToleranceKm is how close the first stop's origin distance
	// must be to the minimum origin distance to earn the adjacency reward
	AdjacencyToleranceKm = 0.1

	// AdjacencyReward is added to fitness when the route opens with the
	// stop nearest the origin
	AdjacencyReward = 50.0

	// AdjacencyPenaltyCap bounds the fitness penalty for routes that do
	// not open with the nearest stop
	AdjacencyPenaltyCap = 30.0
)

// RouteEvaluator computes distance, fitness and quality metrics for
// candidate routes. It is stateless: identical inputs always produce
// identical outputs.
type RouteEvaluator struct{}

// NewRouteEvaluator creates a new route evaluator
func NewRouteEvaluator() *RouteEvaluator {
	return &RouteEvaluator{}
}

// RouteDistance computes the total road-corrected distance of a route:
// origin to the first stop, consecutive stop-to-stop legs, then the last
// stop back to the terminal. The terminal is always the depot; a run that
// starts from the driver's live position still ends its loop there.
func (e *RouteEvaluator) RouteDistance(route []models.Stop, origin, terminal models.Origin) float64 {
	if len(route) == 0 {
		return 0
	}

	total := DistanceToOrigin(&route[0], origin)
	for i := 0; i < len(route)-1; i++ {
		total += StopDistance(&route[i], &route[i+1])
	}
	total += DistanceToOrigin(&route[len(route)-1], terminal)

	return total * RoadDistanceFactor
}

// Fitness scores a route distance against a baseline of 1.5 km per stop.
// Routes at or under the baseline score 100 before the bonus; every
// baseline-multiple of excess distance costs 50 points. The bonus term
// comes from the origin-adjacency check and dominates comparisons between
// routes of similar length.
func (e *RouteEvaluator) Fitness(distance float64, stopCount int, bonus float64) float64 {
	if stopCount == 0 {
		return 0
	}

	baseline := float64(stopCount) * BaselineKmPerStop
	excess := math.Max(0, distance-baseline)
	score := math.Max(0, 100-(excess/baseline)*50)

	return score + bonus
}

// AdjacencyBonus rewards routes that open with the stop nearest the
// origin and penalizes those that do not, in proportion to how far the
// first stop is from the true nearest. Naive distance minimization alone
// does not guarantee the driver's next stop is the closest one available.
func (e *RouteEvaluator) AdjacencyBonus(route []models.Stop, origin models.Origin) float64 {
	if len(route) == 0 {
		return 0
	}

	firstDist := DistanceToOrigin(&route[0], origin)
	minDist := firstDist
	for i := 1; i < len(route); i++ {
		if d := DistanceToOrigin(&route[i], origin); d < minDist {
			minDist = d
		}
	}

	if firstDist-minDist <= AdjacencyToleranceKm {
		return AdjacencyReward
	}
	return -math.Min(AdjacencyPenaltyCap, (firstDist-minDist)*10)
}

// EstimatedTime returns the estimated route duration in hours: driving
// time at the assumed average speed plus per-stop handling time
func (e *RouteEvaluator) EstimatedTime(distance float64, stopCount int) float64 {
	return distance/AverageSpeedKmh + float64(stopCount)*HandlingHoursPerStop
}

// FuelCost estimates the fuel cost in pesos for a route distance
func (e *RouteEvaluator) FuelCost(distance float64) float64 {
	return (distance / KmPerLiter) * FuelPricePerLiter
}

// OptimizationScore rates a route 0-100 against an ideal of 2 km per stop
func (e *RouteEvaluator) OptimizationScore(distance float64, stopCount int) float64 {
	if stopCount == 0 {
		return 0
	}

	ideal := float64(stopCount) * IdealKmPerStop
	score := (1 - (distance-ideal)/ideal) * 100

	return math.Max(0, math.Min(100, score))
}
