package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/swiftdrop/delivery-route-backend/internal/models"
)

// BatchRepository handles database operations for delivery batches and
// their persisted route plans
type BatchRepository struct {
	db DB
}

// NewBatchRepository creates a new BatchRepository
func NewBatchRepository(db DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// GetByID retrieves a delivery batch by ID
func (r *BatchRepository) GetByID(batchID string) (*models.DeliveryBatch, error) {
	query := `
		SELECT id, driver_id, driver_name, driver_phone, status, stop_count,
			   scheduled_date, routed_at, created_at, updated_at
		FROM delivery_batches
		WHERE id = $1
	`

	var batch models.DeliveryBatch
	err := r.db.QueryRow(query, batchID).Scan(
		&batch.ID, &batch.DriverID, &batch.DriverName, &batch.DriverPhone,
		&batch.Status, &batch.StopCount, &batch.ScheduledDate,
		&batch.RoutedAt, &batch.CreatedAt, &batch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &batch, nil
}

// GetStops retrieves the delivery stops of a batch in insertion order
func (r *BatchRepository) GetStops(batchID string) ([]models.Stop, error) {
	query := `
		SELECT id, order_id, customer_name, address, barangay,
			   latitude, longitude, phone, total_amount, status,
			   priority, time_window_start, time_window_end
		FROM batch_stops
		WHERE batch_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch stops: %w", err)
	}
	defer rows.Close()

	var stops []models.Stop
	for rows.Next() {
		var stop models.Stop
		err := rows.Scan(
			&stop.ID, &stop.OrderID, &stop.CustomerName, &stop.Address, &stop.Barangay,
			&stop.Latitude, &stop.Longitude, &stop.Phone, &stop.TotalAmount, &stop.Status,
			&stop.Priority, &stop.TimeWindowStart, &stop.TimeWindowEnd,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch stop: %w", err)
		}
		stops = append(stops, stop)
	}

	return stops, rows.Err()
}

// SaveOptimizedRoute persists an optimization result against a batch and
// marks the batch as routed
func (r *BatchRepository) SaveOptimizedRoute(batchID string, route *models.OptimizedRoute) (*models.StoredRoute, error) {
	stopOrder := make([]string, len(route.Stops))
	for i, stop := range route.Stops {
		stopOrder[i] = stop.ID
	}

	var comparisonJSON *string
	if route.Comparison != nil {
		raw, err := json.Marshal(route.Comparison)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal comparison data: %w", err)
		}
		encoded := string(raw)
		comparisonJSON = &encoded
	}

	stored := &models.StoredRoute{
		ID:                 uuid.New().String(),
		BatchID:            batchID,
		StopOrder:          stopOrder,
		TotalDistanceKm:    route.TotalDistanceKm,
		EstimatedTimeHours: route.EstimatedTimeHours,
		OptimizationScore:  route.OptimizationScore,
		FuelCostEstimate:   route.FuelCostEstimate,
		GenerationCount:    route.GenerationCount,
		FitnessScore:       route.FitnessScore,
		ComparisonJSON:     comparisonJSON,
	}

	insertQuery := `
		INSERT INTO optimized_routes (
			id, batch_id, stop_order, total_distance_km, estimated_time_hours,
			optimization_score, fuel_cost_estimate, generation_count,
			fitness_score, comparison_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.db.QueryRow(
		insertQuery,
		stored.ID, stored.BatchID, pq.Array(stored.StopOrder),
		stored.TotalDistanceKm, stored.EstimatedTimeHours,
		stored.OptimizationScore, stored.FuelCostEstimate,
		stored.GenerationCount, stored.FitnessScore, stored.ComparisonJSON,
	).Scan(&stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert optimized route: %w", err)
	}

	updateQuery := `
		UPDATE delivery_batches
		SET status = $1, routed_at = $2, updated_at = NOW()
		WHERE id = $3
	`

	if _, err := r.db.Exec(updateQuery, models.BatchStatusRouted, time.Now(), batchID); err != nil {
		return nil, fmt.Errorf("failed to mark batch as routed: %w", err)
	}

	return stored, nil
}

// GetRoute retrieves the most recent persisted route plan of a batch
func (r *BatchRepository) GetRoute(batchID string) (*models.StoredRoute, error) {
	query := `
		SELECT id, batch_id, stop_order, total_distance_km, estimated_time_hours,
			   optimization_score, fuel_cost_estimate, generation_count,
			   fitness_score, comparison_data, created_at
		FROM optimized_routes
		WHERE batch_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var stored models.StoredRoute
	err := r.db.QueryRow(query, batchID).Scan(
		&stored.ID, &stored.BatchID, pq.Array(&stored.StopOrder),
		&stored.TotalDistanceKm, &stored.EstimatedTimeHours,
		&stored.OptimizationScore, &stored.FuelCostEstimate,
		&stored.GenerationCount, &stored.FitnessScore,
		&stored.ComparisonJSON, &stored.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

// IsNotFound reports whether an error is the no-rows sentinel
func IsNotFound(err error) bool {
	return err == sql.ErrNoRows
}
