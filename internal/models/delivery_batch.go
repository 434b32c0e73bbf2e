package models

import "time"

// Batch status values
const (
	BatchStatusPending  = "pending"
	BatchStatusRouted   = "routed"
	BatchStatusComplete = "complete"
)

// DeliveryBatch represents a group of orders assigned to one driver for
// one delivery run. The optimizer consumes its stops and writes back a
// persisted route plan.
type DeliveryBatch struct {
	ID            string     `json:"id" db:"id"`
	DriverID      string     `json:"driver_id" db:"driver_id"`
	DriverName    string     `json:"driver_name" db:"driver_name"`
	DriverPhone   *string    `json:"driver_phone,omitempty" db:"driver_phone"`
	Status        string     `json:"status" db:"status"`
	StopCount     int        `json:"stop_count" db:"stop_count"`
	ScheduledDate time.Time  `json:"scheduled_date" db:"scheduled_date"`
	RoutedAt      *time.Time `json:"routed_at,omitempty" db:"routed_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// StoredRoute is the persisted form of an OptimizedRoute, written against
// a delivery batch after optimization completes
type StoredRoute struct {
	ID                 string    `json:"id" db:"id"`
	BatchID            string    `json:"batch_id" db:"batch_id"`
	StopOrder          []string  `json:"stop_order" db:"-"`
	TotalDistanceKm    float64   `json:"total_distance_km" db:"total_distance_km"`
	EstimatedTimeHours float64   `json:"estimated_time_hours" db:"estimated_time_hours"`
	OptimizationScore  float64   `json:"optimization_score" db:"optimization_score"`
	FuelCostEstimate   float64   `json:"fuel_cost_estimate" db:"fuel_cost_estimate"`
	GenerationCount    int       `json:"generation_count" db:"generation_count"`
	FitnessScore       float64   `json:"fitness_score" db:"fitness_score"`
	ComparisonJSON     *string   `json:"-" db:"comparison_data"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}
