package models

// AlgorithmConfig holds the tunable parameters of the genetic search.
// Every field is overridable per call; DefaultAlgorithmConfig provides
// the production defaults.
type AlgorithmConfig struct {
	PopulationSize       int     `json:"population_size"`
	MaxGenerations       int     `json:"max_generations"`
	MutationRate         float64 `json:"mutation_rate"`
	CrossoverRate        float64 `json:"crossover_rate"`
	EliteCount           int     `json:"elite_count"`
	ConvergenceThreshold float64 `json:"convergence_threshold"`
	DualRouteMode        bool    `json:"dual_route_mode"`
}

// DefaultAlgorithmConfig returns the default algorithm configuration
func DefaultAlgorithmConfig() AlgorithmConfig {
	return AlgorithmConfig{
		PopulationSize:       100,
		MaxGenerations:       500,
		MutationRate:         0.02,
		CrossoverRate:        1.0,
		EliteCount:           10,
		ConvergenceThreshold: 0.001,
		DualRouteMode:        true,
	}
}

// RouteComparison records the outcome of a dual-route run: both parents'
// quality, which candidate won, and how much the crossover refinement
// improved on the better parent
type RouteComparison struct {
	RouteADistance      float64 `json:"route_a_distance"`
	RouteAFitness       float64 `json:"route_a_fitness"`
	RouteBDistance      float64 `json:"route_b_distance"`
	RouteBFitness       float64 `json:"route_b_fitness"`
	SelectedRoute       string  `json:"selected_route"` // "A", "B" or "crossover"
	DistanceImprovement float64 `json:"distance_improvement"`
	CrossoverIterations int     `json:"crossover_iterations"`
}

// OptimizedRoute is the final result of a route optimization run.
// Stops contains the coordinate-valid stops in optimized order followed
// by any stops that could not be geocoded. Read-only once returned.
type OptimizedRoute struct {
	Stops              []Stop           `json:"stops"`
	TotalDistanceKm    float64          `json:"total_distance_km"`
	EstimatedTimeHours float64          `json:"estimated_time_hours"`
	OptimizationScore  float64          `json:"optimization_score"`
	FuelCostEstimate   float64          `json:"fuel_cost_estimate"`
	GenerationCount    int              `json:"generation_count"`
	FitnessScore       float64          `json:"fitness_score"`
	Comparison         *RouteComparison `json:"route_comparison_data,omitempty"`
}
