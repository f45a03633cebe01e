package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Logging configuration
	LogLevel string

	// AWS configuration
	AWSRegion string

	// DynamoDB configuration
	ReviewsTableName string

	// OpenAI configuration
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	MaxTokens     int
	Temperature   float64

	// Review pipeline configuration
	QueueSize int
	Workers   int

	// Auth configuration
	AuthDisabled bool
}

// New creates a new Config instance by loading environment variables
// from .env file (if present) and OS environment.
// OS environment variables take precedence over .env file values.
// Panics if required configuration values are missing or invalid.
func New() *Config {
	// Load .env file from the directory the binary runs from
	// (silently ignore if not found)
	envPath := filepath.Join(".", ".env")
	_ = godotenv.Load(envPath)

	cfg := &Config{
		// Server configuration
		Port: getEnvOrDefault("PORT", "8000"),

		// Logging configuration
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),

		// AWS configuration
		AWSRegion: getEnvOrDefault("AWS_REGION", "us-east-1"),

		// DynamoDB configuration
		ReviewsTableName: getEnvOrDefault("DYNAMODB_REVIEWS_TABLE", "Reviews"),

		// OpenAI configuration
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4-turbo"),
		MaxTokens:     getEnvIntOrDefault("OPENAI_MAX_TOKENS", 500),
		Temperature:   getEnvFloatOrDefault("OPENAI_TEMPERATURE", 0.5),

		// Review pipeline configuration
		QueueSize: getEnvIntOrDefault("REVIEW_QUEUE_SIZE", 100),
		Workers:   getEnvIntOrDefault("REVIEW_WORKERS", 5),

		// Auth configuration
		AuthDisabled: getEnvOrDefault("AUTH_DISABLED", "false") == "true",
	}

	// Validate required configuration
	cfg.validate()

	return cfg
}

// validate checks that all required configuration values are present and valid
func (c *Config) validate() {
	var missing []string

	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}

	if len(missing) > 0 {
		panic(fmt.Sprintf("Missing required configuration values: %v", missing))
	}

	if c.QueueSize <= 0 {
		panic(fmt.Sprintf("REVIEW_QUEUE_SIZE must be positive (got %d)", c.QueueSize))
	}

	if c.Workers <= 0 {
		panic(fmt.Sprintf("REVIEW_WORKERS must be positive (got %d)", c.Workers))
	}
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns an integer environment variable or a default value
func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvFloatOrDefault returns a float environment variable or a default value
func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// GetPort returns the server port
func (c *Config) GetPort() string {
	return c.Port
}

// GetLogLevel returns the logging level
func (c *Config) GetLogLevel() string {
	return c.LogLevel
}

// GetAWSRegion returns the AWS region
func (c *Config) GetAWSRegion() string {
	return c.AWSRegion
}

// GetReviewsTableName returns the reviews table name
func (c *Config) GetReviewsTableName() string {
	return c.ReviewsTableName
}
