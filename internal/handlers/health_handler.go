package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swiftdrop/delivery-route-backend/internal/database"
)

// HealthHandler reports service liveness and database reachability
type HealthHandler struct {
	db database.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health returns service health status
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
		}
	} else {
		dbStatus = "not configured"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"database": dbStatus,
	})
}
