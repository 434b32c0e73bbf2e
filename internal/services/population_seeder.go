package services

import (
	"hash/fnv"
	"math/rand"
	"sort"

	"github.com/swiftdrop/delivery-route-backend/internal/models"
)

const (
	// Candidate counts per seeding strategy. The remainder of the
	// population is filled with random permutations.
	greedyRouteCount    = 1
	lookaheadRouteCount = 14
	priorityRouteCount  = 5
	seededRouteCount    = 5

	// Probability of forcing the nearest-to-origin stop into position 0
	// for seeded and random candidates
	seededNearestFirstProbability = 0.8
	randomNearestFirstProbability = 0.7

	// Lookahead and end-of-route weights for the constructive heuristics
	lookaheadWeight       = 0.3
	greedyReturnWeight    = 0.3
	lookaheadReturnWeight = 0.5
)

// PopulationSeeder builds the initial generation of candidate routes
// from a mix of constructive, priority-aware, seeded and random
// strategies. Every strategy is biased to open with the stop nearest
// the origin.
type PopulationSeeder struct {
	rng *rand.Rand
}

// NewPopulationSeeder creates a new population seeder backed by the
// given random source
func NewPopulationSeeder(rng *rand.Rand) *PopulationSeeder {
	return &PopulationSeeder{rng: rng}
}

// Seed builds a population of candidate routes for the given stops and
// origin. The seedLabel drives the deterministic seeded-shuffle
// candidates; two searches with different labels produce decorrelated
// pools, which is what keeps the dual-route parents structurally apart.
func (p *PopulationSeeder) Seed(stops []models.Stop, origin models.Origin, size int, seedLabel string) [][]models.Stop {
	population := make([][]models.Stop, 0, size)

	for i := 0; i < greedyRouteCount && len(population) < size; i++ {
		population = append(population, p.buildGreedyRoute(stops, origin))
	}
	for i := 0; i < lookaheadRouteCount && len(population) < size; i++ {
		population = append(population, p.buildLookaheadRoute(stops, origin))
	}
	for i := 0; i < priorityRouteCount && len(population) < size; i++ {
		population = append(population, p.buildPriorityRoute(stops, origin))
	}
	for i := 0; i < seededRouteCount && len(population) < size; i++ {
		population = append(population, p.buildSeededRoute(stops, origin, seedLabel, i))
	}
	for len(population) < size {
		population = append(population, p.buildRandomRoute(stops, origin))
	}

	return population
}

// buildGreedyRoute constructs a route that always starts at the stop
// nearest the origin, then repeatedly picks the closest remaining stop.
// When two or fewer stops remain, proximity to the origin is blended in
// so the route does not strand its final legs far from the depot.
func (p *PopulationSeeder) buildGreedyRoute(stops []models.Stop, origin models.Origin) []models.Stop {
	remaining := copyStops(stops)
	route := make([]models.Stop, 0, len(stops))

	first := nearestToOriginIndex(remaining, origin)
	route = append(route, remaining[first])
	remaining = removeStop(remaining, first)

	for len(remaining) > 0 {
		current := &route[len(route)-1]
		bestIdx := 0
		bestScore := stepScore(current, &remaining[0], origin, len(remaining))
		for i := 1; i < len(remaining); i++ {
			if score := stepScore(current, &remaining[i], origin, len(remaining)); score < bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		route = append(route, remaining[bestIdx])
		remaining = removeStop(remaining, bestIdx)
	}

	return route
}

func stepScore(current, candidate *models.Stop, origin models.Origin, remaining int) float64 {
	score := StopDistance(current, candidate)
	if remaining <= 2 {
		score += greedyReturnWeight * DistanceToOrigin(candidate, origin)
	}
	return score
}

// buildLookaheadRoute constructs a nearest-neighbor route with one-step
// lookahead: each candidate is scored by its own distance plus a fraction
// of the best onward hop it would leave behind. The final two stops also
// weigh their distance back to the origin.
func (p *PopulationSeeder) buildLookaheadRoute(stops []models.Stop, origin models.Origin) []models.Stop {
	remaining := copyStops(stops)
	route := make([]models.Stop, 0, len(stops))

	first := nearestToOriginIndex(remaining, origin)
	route = append(route, remaining[first])
	remaining = removeStop(remaining, first)

	for len(remaining) > 0 {
		current := &route[len(route)-1]
		bestIdx := 0
		bestScore := lookaheadScore(current, 0, remaining, origin)
		for i := 1; i < len(remaining); i++ {
			if score := lookaheadScore(current, i, remaining, origin); score < bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		route = append(route, remaining[bestIdx])
		remaining = removeStop(remaining, bestIdx)
	}

	return route
}

func lookaheadScore(current *models.Stop, candidateIdx int, remaining []models.Stop, origin models.Origin) float64 {
	candidate := &remaining[candidateIdx]
	score := StopDistance(current, candidate)

	// Best onward hop the candidate would leave available
	minNextHop := -1.0
	for i := range remaining {
		if i == candidateIdx {
			continue
		}
		if d := StopDistance(candidate, &remaining[i]); minNextHop < 0 || d < minNextHop {
			minNextHop = d
		}
	}
	if minNextHop >= 0 {
		score += lookaheadWeight * minNextHop
	}

	if len(remaining) <= 2 {
		score += lookaheadReturnWeight * DistanceToOrigin(candidate, origin)
	}

	return score
}

// buildPriorityRoute sorts stops by priority rank first, then applies
// nearest-neighbor ordering within each rank
func (p *PopulationSeeder) buildPriorityRoute(stops []models.Stop, origin models.Origin) []models.Stop {
	sorted := copyStops(stops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PriorityRank() < sorted[j].PriorityRank()
	})

	route := make([]models.Stop, 0, len(stops))
	current := origin

	i := 0
	for i < len(sorted) {
		// Collect the run of stops sharing the current rank
		j := i
		for j < len(sorted) && sorted[j].PriorityRank() == sorted[i].PriorityRank() {
			j++
		}
		group := copyStops(sorted[i:j])

		for len(group) > 0 {
			bestIdx := 0
			bestDist := pointToStopDistance(current.Latitude, current.Longitude, &group[0])
			for k := 1; k < len(group); k++ {
				if d := pointToStopDistance(current.Latitude, current.Longitude, &group[k]); d < bestDist {
					bestDist = d
					bestIdx = k
				}
			}
			chosen := group[bestIdx]
			route = append(route, chosen)
			if chosen.HasCoordinates() {
				current = models.Origin{Latitude: *chosen.Latitude, Longitude: *chosen.Longitude}
			}
			group = removeStop(group, bestIdx)
		}

		i = j
	}

	return route
}

// buildSeededRoute produces a deterministic shuffled candidate driven by
// a PRNG seeded from the label and index. Most of the time the nearest
// stop is pinned to position 0 before shuffling the rest.
func (p *PopulationSeeder) buildSeededRoute(stops []models.Stop, origin models.Origin, seedLabel string, index int) []models.Stop {
	rng := rand.New(rand.NewSource(seedFor(seedLabel, index)))
	route := copyStops(stops)

	if rng.Float64() < seededNearestFirstProbability {
		first := nearestToOriginIndex(route, origin)
		route[0], route[first] = route[first], route[0]
		shuffleTail(route, rng)
	} else {
		rng.Shuffle(len(route), func(i, j int) {
			route[i], route[j] = route[j], route[i]
		})
	}

	return route
}

// buildRandomRoute produces a Fisher-Yates shuffled candidate, usually
// keeping the nearest stop pinned to position 0
func (p *PopulationSeeder) buildRandomRoute(stops []models.Stop, origin models.Origin) []models.Stop {
	route := copyStops(stops)

	if p.rng.Float64() < randomNearestFirstProbability {
		first := nearestToOriginIndex(route, origin)
		route[0], route[first] = route[first], route[0]
		shuffleTail(route, p.rng)
	} else {
		p.rng.Shuffle(len(route), func(i, j int) {
			route[i], route[j] = route[j], route[i]
		})
	}

	return route
}

// shuffleTail shuffles every position except 0
func shuffleTail(route []models.Stop, rng *rand.Rand) {
	for i := len(route) - 1; i > 1; i-- {
		j := rng.Intn(i) + 1
		route[i], route[j] = route[j], route[i]
	}
}

// seedFor derives a PRNG seed from a label and candidate index
func seedFor(label string, index int) int64 {
	h := fnv.New64a()
	h.Write([]byte(label))
	return int64(h.Sum64()) + int64(index)*2654435761
}

// nearestToOriginIndex returns the index of the stop closest to the origin
func nearestToOriginIndex(stops []models.Stop, origin models.Origin) int {
	best := 0
	bestDist := DistanceToOrigin(&stops[0], origin)
	for i := 1; i < len(stops); i++ {
		if d := DistanceToOrigin(&stops[i], origin); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func pointToStopDistance(lat, lng float64, s *models.Stop) float64 {
	if !s.HasCoordinates() {
		return PenaltyDistanceKm
	}
	return Haversine(lat, lng, *s.Latitude, *s.Longitude)
}

func copyStops(stops []models.Stop) []models.Stop {
	out := make([]models.Stop, len(stops))
	copy(out, stops)
	return out
}

func removeStop(stops []models.Stop, idx int) []models.Stop {
	return append(stops[:idx], stops[idx+1:]...)
}
