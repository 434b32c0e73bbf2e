package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/swiftdrop/delivery-route-backend/internal/config"
	"github.com/swiftdrop/delivery-route-backend/internal/database"
	"github.com/swiftdrop/delivery-route-backend/internal/handlers"
	"github.com/swiftdrop/delivery-route-backend/internal/middleware"
	"github.com/swiftdrop/delivery-route-backend/internal/services"
	"github.com/swiftdrop/delivery-route-backend/pkg/jwt"
	"github.com/swiftdrop/delivery-route-backend/pkg/sms"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SwiftDrop Delivery Route Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	optimizerService := services.NewRouteOptimizerService(logger)
	batchRepository := database.NewBatchRepository(db)

	smsGateway := sms.NewSemaphoreGateway(sms.SemaphoreConfig{
		APIURL:     cfg.SMS.APIURL,
		APIKey:     cfg.SMS.APIKey,
		SenderName: cfg.SMS.SenderName,
	})
	if cfg.SMS.Mode == "production" {
		logger.Info("SMS gateway in production mode")
	} else {
		logger.Info("SMS gateway in development mode (no actual SMS will be sent)")
	}

	// Initialize handlers
	routeHandler := handlers.NewRouteHandler(optimizerService, batchRepository, smsGateway, cfg, logger)
	healthHandler := handlers.NewHealthHandler(db)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthHandler.Health)

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(jwtService))
	{
		routes := v1.Group("/routes")
		{
			routes.POST("/optimize", routeHandler.OptimizeRoute)
			routes.POST("/optimize/live", routeHandler.OptimizeLiveRoute)
		}

		batches := v1.Group("/batches")
		{
			batches.POST("/:id/assign", middleware.RequireRole("dispatcher"), routeHandler.AssignBatch)
			batches.GET("/:id/route", routeHandler.GetBatchRoute)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // optimization runs can take a few seconds
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}
