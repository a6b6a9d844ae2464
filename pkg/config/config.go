// pkg/config/config.go
package config

import (
	"errors"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// PerformanceWeights are the fixed weights of the composite performance
// score. They are part of the feature schema and default to 0.5/0.25/0.25.
type PerformanceWeights struct {
	TaskCompletion       float64
	CommunicationBalance float64
	WorkHours            float64
}

// Config represents the pipeline configuration
type Config struct {
	// Privacy key used to derive every deterministic token. Must be stable
	// across runs so the same real-world identity keeps the same token.
	PrivacyKey string

	// Work-hours window used for after-hours classification
	WorkHoursStart int // Hour of day, inclusive
	WorkHoursEnd   int // Hour of day, exclusive

	// Task management thresholds
	OverdueTaskDays int

	// Composite performance score weights
	Weights PerformanceWeights

	// Content store backing the re-identification cache.
	// Nil means the in-memory store.
	ContentStore *PostgresConfig

	// Pipeline settings
	WorkerPoolSize int // 0 means use runtime.NumCPU()

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is honored when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PrivacyKey:      os.Getenv("PRIVACY_KEY"),
		WorkHoursStart:  getEnvAsInt("WORK_HOURS_START", 8),
		WorkHoursEnd:    getEnvAsInt("WORK_HOURS_END", 18),
		OverdueTaskDays: getEnvAsInt("OVERDUE_TASK_DAYS", 30),
		Weights: PerformanceWeights{
			TaskCompletion:       getEnvAsFloat("WEIGHT_TASK_COMPLETION", 0.5),
			CommunicationBalance: getEnvAsFloat("WEIGHT_COMM_BALANCE", 0.25),
			WorkHours:            getEnvAsFloat("WEIGHT_WORK_HOURS", 0.25),
		},
		WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 0),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	// The Postgres-backed content store is opt-in
	if getEnv("CONTENT_STORE_DRIVER", "memory") == "postgres" {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load content store configuration: " + err.Error())
		}
		cfg.ContentStore = pgConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.PrivacyKey == "" {
		return errors.New("privacy key is required: set PRIVACY_KEY")
	}

	if c.WorkHoursStart < 0 || c.WorkHoursEnd > 24 || c.WorkHoursStart >= c.WorkHoursEnd {
		return errors.New("work hours window must satisfy 0 <= start < end <= 24")
	}

	if c.OverdueTaskDays <= 0 {
		return errors.New("overdue task threshold must be positive")
	}

	sum := c.Weights.TaskCompletion + c.Weights.CommunicationBalance + c.Weights.WorkHours
	if math.Abs(sum-1.0) > 1e-9 {
		return errors.New("performance weights must sum to 1.0")
	}

	if c.WorkerPoolSize < 0 {
		return errors.New("worker pool size cannot be negative")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
