package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftdrop/delivery-route-backend/internal/config"
	"github.com/swiftdrop/delivery-route-backend/internal/database"
	"github.com/swiftdrop/delivery-route-backend/internal/models"
	"github.com/swiftdrop/delivery-route-backend/internal/services"
)

// recordingGateway captures SMS sends without touching the network
type recordingGateway struct {
	sent []string
}

func (g *recordingGateway) Send(phone, message string) error {
	g.sent = append(g.sent, phone+": "+message)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Depot: config.DepotConfig{
			Latitude:  8.4850,
			Longitude: 124.6500,
			Name:      "SwiftDrop Hub CDO",
		},
		Algorithm: models.AlgorithmConfig{
			PopulationSize:       30,
			MaxGenerations:       80,
			MutationRate:         0.02,
			CrossoverRate:        1.0,
			EliteCount:           4,
			ConvergenceThreshold: 0.001,
		},
		SMS: config.SMSConfig{Mode: "production"},
	}
}

func setupHandlerTest(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *recordingGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	db := &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}
	gateway := &recordingGateway{}
	handler := NewRouteHandler(
		services.NewSeededRouteOptimizerService(logger, 42),
		database.NewBatchRepository(db),
		gateway,
		testConfig(),
		logger,
	)

	router := gin.New()
	router.POST("/routes/optimize", handler.OptimizeRoute)
	router.POST("/routes/optimize/live", handler.OptimizeLiveRoute)
	router.POST("/batches/:id/assign", handler.AssignBatch)
	router.GET("/batches/:id/route", handler.GetBatchRoute)

	return router, mock, gateway
}

func optimizeBody(t *testing.T, payload interface{}) *bytes.Buffer {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

func requestStops() []map[string]interface{} {
	return []map[string]interface{}{
		{"id": "a", "customer_name": "Maria Santos", "latitude": 8.4950, "longitude": 124.6600},
		{"id": "b", "customer_name": "Pedro Reyes", "latitude": 8.5050, "longitude": 124.6700},
		{"id": "c", "customer_name": "Ana Lopez", "latitude": 8.5150, "longitude": 124.6800},
	}
}

func TestOptimizeRoute(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/routes/optimize",
		optimizeBody(t, map[string]interface{}{"stops": requestStops()}))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result models.OptimizedRoute
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result.Stops, 3)
	assert.Greater(t, result.TotalDistanceKm, 0.0)
	assert.Equal(t, "a", result.Stops[0].ID)
}

func TestOptimizeRoute_InvalidBody(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/routes/optimize", bytes.NewBufferString(`{"config":{}}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimizeRoute_ConfigOverride(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	payload := map[string]interface{}{
		"stops": requestStops(),
		"config": map[string]interface{}{
			"population_size":       20,
			"max_generations":       40,
			"mutation_rate":         0.02,
			"crossover_rate":        1.0,
			"elite_count":           2,
			"convergence_threshold": 0.001,
			"dual_route_mode":       true,
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/routes/optimize", optimizeBody(t, payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result models.OptimizedRoute
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Comparison)
	assert.Contains(t, []string{"A", "B", "crossover"}, result.Comparison.SelectedRoute)
}

func TestOptimizeRoute_PartialConfigOverride(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	// A single overridden knob keeps the configured defaults for the rest
	payload := map[string]interface{}{
		"stops":  requestStops(),
		"config": map[string]interface{}{"max_generations": 100},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/routes/optimize", optimizeBody(t, payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result models.OptimizedRoute
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result.Stops, 3)
	assert.Greater(t, result.TotalDistanceKm, 0.0)
	assert.LessOrEqual(t, result.GenerationCount, 100)
}

func TestOptimizeRoute_HalfPresentCoordinates(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	stops := requestStops()
	stops = append(stops, map[string]interface{}{
		"id": "half", "customer_name": "Lost Pin", "latitude": 8.5000,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/routes/optimize",
		optimizeBody(t, map[string]interface{}{"stops": stops}))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "stop 3")
}

func TestOptimizeLiveRoute(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	payload := map[string]interface{}{
		"stops":     requestStops(),
		"latitude":  8.5160,
		"longitude": 124.6810,
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/routes/optimize/live", optimizeBody(t, payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result models.OptimizedRoute
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	// The driver is parked next to stop c, so re-planning starts there
	assert.Equal(t, "c", result.Stops[0].ID)
}

func TestOptimizeLiveRoute_MissingPosition(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/routes/optimize/live",
		optimizeBody(t, map[string]interface{}{"stops": requestStops()}))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimizeLiveRoute_OutOfRangePosition(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	payload := map[string]interface{}{
		"stops":     requestStops(),
		"latitude":  95.0,
		"longitude": 124.6810,
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/routes/optimize/live", optimizeBody(t, payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid current position")
}

func batchRows(phone string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "driver_id", "driver_name", "driver_phone", "status", "stop_count",
		"scheduled_date", "routed_at", "created_at", "updated_at",
	}).AddRow("batch-1", "driver-1", "Juan Dela Cruz", phone, models.BatchStatusPending, 3, now, nil, now, now)
}

func stopRows() *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "order_id", "customer_name", "address", "barangay",
		"latitude", "longitude", "phone", "total_amount", "status",
		"priority", "time_window_start", "time_window_end",
	})
	coords := [][2]float64{{8.4950, 124.6600}, {8.5050, 124.6700}, {8.5150, 124.6800}}
	for i, c := range coords {
		rows.AddRow(
			[]string{"a", "b", "c"}[i], "order", "Customer", "Address", "Barangay",
			c[0], c[1], nil, 100.0, "pending", nil, nil, nil,
		)
	}
	return rows
}

func TestAssignBatch(t *testing.T) {
	router, mock, gateway := setupHandlerTest(t)

	mock.ExpectQuery("SELECT id, driver_id, driver_name").
		WithArgs("batch-1").
		WillReturnRows(batchRows("+639171234567"))
	mock.ExpectQuery("SELECT id, order_id, customer_name").
		WithArgs("batch-1").
		WillReturnRows(stopRows())
	mock.ExpectQuery("INSERT INTO optimized_routes").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec("UPDATE delivery_batches").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batches/batch-1/assign", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Driver got the route-ready SMS
	require.Len(t, gateway.sent, 1)
	assert.Contains(t, gateway.sent[0], "+639171234567")
	assert.Contains(t, gateway.sent[0], "Juan Dela Cruz")
}

func TestAssignBatch_NotFound(t *testing.T) {
	router, mock, _ := setupHandlerTest(t)

	mock.ExpectQuery("SELECT id, driver_id, driver_name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batches/missing/assign", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignBatch_NoStops(t *testing.T) {
	router, mock, _ := setupHandlerTest(t)

	mock.ExpectQuery("SELECT id, driver_id, driver_name").
		WithArgs("batch-1").
		WillReturnRows(batchRows("+639171234567"))
	mock.ExpectQuery("SELECT id, order_id, customer_name").
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "customer_name", "address", "barangay",
			"latitude", "longitude", "phone", "total_amount", "status",
			"priority", "time_window_start", "time_window_end",
		}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batches/batch-1/assign", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBatchRoute(t *testing.T) {
	router, mock, _ := setupHandlerTest(t)

	rows := sqlmock.NewRows([]string{
		"id", "batch_id", "stop_order", "total_distance_km", "estimated_time_hours",
		"optimization_score", "fuel_cost_estimate", "generation_count",
		"fitness_score", "comparison_data", "created_at",
	}).AddRow("route-1", "batch-1", []byte("{a,b,c}"), 12.4, 1.07, 88.0, 74.4, 61, 132.5, nil, time.Now())

	mock.ExpectQuery("SELECT id, batch_id, stop_order").
		WithArgs("batch-1").
		WillReturnRows(rows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/batches/batch-1/route", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stored models.StoredRoute
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, "route-1", stored.ID)
	assert.Equal(t, []string{"a", "b", "c"}, stored.StopOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBatchRoute_NotFound(t *testing.T) {
	router, mock, _ := setupHandlerTest(t)

	mock.ExpectQuery("SELECT id, batch_id, stop_order").
		WithArgs("batch-1").
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/batches/batch-1/route", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
