package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/swiftdrop/delivery-route-backend/internal/config"
	"github.com/swiftdrop/delivery-route-backend/internal/database"
	"github.com/swiftdrop/delivery-route-backend/internal/models"
	"github.com/swiftdrop/delivery-route-backend/internal/services"
	"github.com/swiftdrop/delivery-route-backend/pkg/sms"
	"github.com/swiftdrop/delivery-route-backend/pkg/validator"
)

// RouteHandler exposes the route optimization engine over HTTP and
// bridges it to the batch persistence and driver notification boundaries
type RouteHandler struct {
	optimizer  *services.RouteOptimizerService
	batchRepo  *database.BatchRepository
	smsGateway sms.Gateway
	cfg        *config.Config
	logger     *logrus.Logger
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(
	optimizer *services.RouteOptimizerService,
	batchRepo *database.BatchRepository,
	smsGateway sms.Gateway,
	cfg *config.Config,
	logger *logrus.Logger,
) *RouteHandler {
	return &RouteHandler{
		optimizer:  optimizer,
		batchRepo:  batchRepo,
		smsGateway: smsGateway,
		cfg:        cfg,
		logger:     logger,
	}
}

// ConfigOverride carries optional per-request algorithm parameters.
// Absent fields keep the configured defaults, so a caller can tune a
// single knob without restating the whole configuration.
type ConfigOverride struct {
	PopulationSize       *int     `json:"population_size,omitempty"`
	MaxGenerations       *int     `json:"max_generations,omitempty"`
	MutationRate         *float64 `json:"mutation_rate,omitempty"`
	CrossoverRate        *float64 `json:"crossover_rate,omitempty"`
	EliteCount           *int     `json:"elite_count,omitempty"`
	ConvergenceThreshold *float64 `json:"convergence_threshold,omitempty"`
	DualRouteMode        *bool    `json:"dual_route_mode,omitempty"`
}

// OptimizeRequest is the body of an ad-hoc depot-mode optimization call
type OptimizeRequest struct {
	Stops  []models.Stop   `json:"stops" binding:"required"`
	Config *ConfigOverride `json:"config,omitempty"`
}

// LiveOptimizeRequest is the body of a current-position re-planning call
type LiveOptimizeRequest struct {
	Stops     []models.Stop   `json:"stops" binding:"required"`
	Latitude  *float64        `json:"latitude" binding:"required"`
	Longitude *float64        `json:"longitude" binding:"required"`
	Config    *ConfigOverride `json:"config,omitempty"`
}

// OptimizeRoute plans a route from the fixed depot for the stops in the
// request body
// POST /api/v1/routes/optimize
func (h *RouteHandler) OptimizeRoute(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if err := validateStopCoordinates(req.Stops); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.optimizer.OptimizeFromDepot(
		c.Request.Context(),
		req.Stops,
		h.cfg.Depot.Origin(),
		h.algorithmConfig(req.Config),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Route optimization failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// OptimizeLiveRoute re-plans a route from the driver's live position
// POST /api/v1/routes/optimize/live
func (h *RouteHandler) OptimizeLiveRoute(c *gin.Context) {
	var req LiveOptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if err := validator.ValidateCoordinatePair(*req.Latitude, *req.Longitude); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid current position: " + err.Error()})
		return
	}

	if err := validateStopCoordinates(req.Stops); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	current := models.Origin{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Name:      "Current Position",
		Kind:      models.OriginCurrentPosition,
	}

	result, err := h.optimizer.OptimizeFromCurrentPosition(
		c.Request.Context(),
		req.Stops,
		current,
		h.cfg.Depot.Origin(),
		h.algorithmConfig(req.Config),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Route optimization failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// AssignBatch optimizes a delivery batch from the depot, persists the
// plan and notifies the driver
// POST /api/v1/batches/:id/assign
func (h *RouteHandler) AssignBatch(c *gin.Context) {
	batchID := c.Param("id")

	batch, err := h.batchRepo.GetByID(batchID)
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch batch"})
		return
	}

	stops, err := h.batchRepo.GetStops(batchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch batch stops"})
		return
	}
	if len(stops) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Batch has no stops to route"})
		return
	}

	result, err := h.optimizer.OptimizeFromDepot(
		c.Request.Context(),
		stops,
		h.cfg.Depot.Origin(),
		h.cfg.Algorithm,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Route optimization failed"})
		return
	}

	stored, err := h.batchRepo.SaveOptimizedRoute(batchID, result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist route plan"})
		return
	}

	h.notifyDriver(batch, result)

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batchID,
		"route":    result,
		"stored":   stored,
	})
}

// GetBatchRoute retrieves the most recent persisted route plan of a batch
// GET /api/v1/batches/:id/route
func (h *RouteHandler) GetBatchRoute(c *gin.Context) {
	batchID := c.Param("id")

	stored, err := h.batchRepo.GetRoute(batchID)
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No route plan found for batch"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch route plan"})
		return
	}

	c.JSON(http.StatusOK, stored)
}

// algorithmConfig merges per-request overrides onto the configured
// defaults. Only fields present in the request replace the defaults.
func (h *RouteHandler) algorithmConfig(override *ConfigOverride) models.AlgorithmConfig {
	cfg := h.cfg.Algorithm
	if override == nil {
		return cfg
	}

	if override.PopulationSize != nil {
		cfg.PopulationSize = *override.PopulationSize
	}
	if override.MaxGenerations != nil {
		cfg.MaxGenerations = *override.MaxGenerations
	}
	if override.MutationRate != nil {
		cfg.MutationRate = *override.MutationRate
	}
	if override.CrossoverRate != nil {
		cfg.CrossoverRate = *override.CrossoverRate
	}
	if override.EliteCount != nil {
		cfg.EliteCount = *override.EliteCount
	}
	if override.ConvergenceThreshold != nil {
		cfg.ConvergenceThreshold = *override.ConvergenceThreshold
	}
	if override.DualRouteMode != nil {
		cfg.DualRouteMode = *override.DualRouteMode
	}

	return cfg
}

// validateStopCoordinates rejects stops carrying a half-present or
// out-of-range coordinate pair. Fully absent pairs are fine; those stops
// ride along as ungeocoded.
func validateStopCoordinates(stops []models.Stop) error {
	for i := range stops {
		if err := validator.ValidateOptionalCoordinates(stops[i].Latitude, stops[i].Longitude); err != nil {
			return fmt.Errorf("invalid coordinates for stop %d: %w", i, err)
		}
	}
	return nil
}

// notifyDriver sends the route-ready SMS. A notification failure never
// fails the assignment; it is logged and the plan stands.
func (h *RouteHandler) notifyDriver(batch *models.DeliveryBatch, route *models.OptimizedRoute) {
	if batch.DriverPhone == nil || *batch.DriverPhone == "" {
		return
	}

	message := fmt.Sprintf(
		"Hi %s, your delivery route is ready: %d stops, %.1f km. Open the app to start.",
		batch.DriverName, len(route.Stops), route.TotalDistanceKm,
	)

	if h.cfg.SMS.Mode != "production" {
		h.logger.WithFields(logrus.Fields{
			"phone":   *batch.DriverPhone,
			"message": message,
		}).Info("SMS dev mode, skipping send")
		return
	}

	if err := h.smsGateway.Send(*batch.DriverPhone, message); err != nil {
		h.logger.WithError(err).WithField("batch_id", batch.ID).Warn("Failed to notify driver")
	}
}
