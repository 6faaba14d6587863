package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis (statistics cache; empty disables caching)
	RedisURL string

	// JWT
	JWTSecret string

	// Status sweep interval for refreshing trip statuses
	StatusSweepInterval time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get values from environment variables with defaults
	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "travelbudget"),
		DBPassword: getEnv("DB_PASSWORD", "travelbudget"),
		DBName:     getEnv("DB_NAME", "travelbudget"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
	}

	// Parse the status sweep interval (hourly by default)
	sweepStr := getEnv("STATUS_SWEEP_INTERVAL", "1h")
	sweepDur, err := time.ParseDuration(sweepStr)
	if err != nil {
		log.Printf("Warning: invalid STATUS_SWEEP_INTERVAL value '%s', falling back to 1h\n", sweepStr)
		sweepDur = time.Hour
	}
	config.StatusSweepInterval = sweepDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
