package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/swiftdrop/delivery-route-backend/internal/models"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig

	// Depot location configuration
	Depot DepotConfig

	// Route optimization algorithm configuration
	Algorithm models.AlgorithmConfig

	// SMS gateway configuration
	SMS SMSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// DepotConfig holds the fixed depot location all routes close their
// loop at
type DepotConfig struct {
	Latitude  float64
	Longitude float64
	Name      string
	Address   string
}

// Origin returns the depot as a route origin
func (d DepotConfig) Origin() models.Origin {
	return models.Origin{
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Name:      d.Name,
		Address:   d.Address,
		Kind:      models.OriginDepot,
	}
}

// SMSConfig holds SMS gateway configuration
type SMSConfig struct {
	Mode       string // "dev" logs instead of sending, "production" sends actual SMS
	APIURL     string
	APIKey     string
	SenderName string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			TokenExpiry: time.Duration(getEnvAsInt("JWT_TOKEN_EXPIRY_HOURS", 24)) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGINS", "*")},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type", "Authorization"},
		},
		Depot: DepotConfig{
			Latitude:  getEnvAsFloat("DEPOT_LATITUDE", 8.4850),
			Longitude: getEnvAsFloat("DEPOT_LONGITUDE", 124.6500),
			Name:      getEnv("DEPOT_NAME", "SwiftDrop Hub CDO"),
			Address:   getEnv("DEPOT_ADDRESS", "Cagayan de Oro City"),
		},
		Algorithm: models.AlgorithmConfig{
			PopulationSize:       getEnvAsInt("ALGO_POPULATION_SIZE", 100),
			MaxGenerations:       getEnvAsInt("ALGO_MAX_GENERATIONS", 500),
			MutationRate:         getEnvAsFloat("ALGO_MUTATION_RATE", 0.02),
			CrossoverRate:        getEnvAsFloat("ALGO_CROSSOVER_RATE", 1.0),
			EliteCount:           getEnvAsInt("ALGO_ELITE_COUNT", 10),
			ConvergenceThreshold: getEnvAsFloat("ALGO_CONVERGENCE_THRESHOLD", 0.001),
			DualRouteMode:        getEnvAsBool("ALGO_DUAL_ROUTE_MODE", true),
		},
		SMS: SMSConfig{
			Mode:       getEnv("SMS_MODE", "dev"),
			APIURL:     getEnv("SMS_API_URL", ""),
			APIKey:     getEnv("SMS_API_KEY", ""),
			SenderName: getEnv("SMS_SENDER_NAME", "SWIFTDROP"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks that required configuration values are present and sane
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Algorithm.PopulationSize < 2 {
		return fmt.Errorf("ALGO_POPULATION_SIZE must be at least 2")
	}
	if c.Algorithm.MaxGenerations < 1 {
		return fmt.Errorf("ALGO_MAX_GENERATIONS must be at least 1")
	}
	if c.Algorithm.MutationRate < 0 || c.Algorithm.MutationRate > 1 {
		return fmt.Errorf("ALGO_MUTATION_RATE must be between 0 and 1")
	}
	if c.Algorithm.CrossoverRate < 0 || c.Algorithm.CrossoverRate > 1 {
		return fmt.Errorf("ALGO_CROSSOVER_RATE must be between 0 and 1")
	}
	if c.Algorithm.EliteCount >= c.Algorithm.PopulationSize {
		return fmt.Errorf("ALGO_ELITE_COUNT must be smaller than ALGO_POPULATION_SIZE")
	}
	return nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvAsInt gets an environment variable as an integer with a fallback value
func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Invalid integer value for %s, using fallback %d", key, fallback)
	}
	return fallback
}

// getEnvAsFloat gets an environment variable as a float with a fallback value
func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Printf("Invalid float value for %s, using fallback %f", key, fallback)
	}
	return fallback
}

// getEnvAsBool gets an environment variable as a boolean with a fallback value
func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		log.Printf("Invalid boolean value for %s, using fallback %t", key, fallback)
	}
	return fallback
}
