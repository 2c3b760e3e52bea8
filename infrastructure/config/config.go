package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domainconfig "exerciselinks/domain/config"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Storage
	StorageBackend   string `yaml:"storage_backend"`
	ExerciseSeedFile string `yaml:"exercise_seed_file"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	LinkIndexName string `yaml:"link_index_name"`
	ExerciseTable string `yaml:"exercise_table"`
	LockTable     string `yaml:"lock_table"`
	EventBusName  string `yaml:"event_bus_name"`

	// Lambda configuration
	IsLambda           bool   `yaml:"-"`
	LambdaFunctionName string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Feature flags
	EnableMetrics  bool     `yaml:"enable_metrics"`
	EnableTracing  bool     `yaml:"enable_tracing"`
	EnableCORS     bool     `yaml:"enable_cors"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Business limits
	MaxLinksPerType int           `yaml:"max_links_per_type"`
	LockTimeout     time.Duration `yaml:"lock_timeout"`
}

// defaults returns the configuration used before any file or environment overlay
func defaults() *Config {
	return &Config{
		ServerAddress:  ":8080",
		Environment:    "development",
		StorageBackend: StorageMemory,
		AWSRegion:      "us-west-2",
		DynamoDBTable:  "exercise-links",
		LinkIndexName:  "GSI1",
		ExerciseTable:  "exercises",
		LockTable:      "exercise-links-locks",
		EventBusName:   "exercise-links-events",
		LogLevel:       "info",
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
	}
}

// LoadConfig builds configuration from defaults, then the YAML file named by
// CONFIG_FILE if set, then environment variables
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.StorageBackend = strings.ToLower(getEnv("STORAGE_BACKEND", c.StorageBackend))
	c.ExerciseSeedFile = getEnv("EXERCISE_SEED_FILE", c.ExerciseSeedFile)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.LinkIndexName = getEnv("LINK_INDEX_NAME", c.LinkIndexName)
	c.ExerciseTable = getEnv("EXERCISE_TABLE", c.ExerciseTable)
	c.LockTable = getEnv("LOCK_TABLE", c.LockTable)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", c.LambdaFunctionName)
	c.IsLambda = getEnvBool("IS_LAMBDA", c.LambdaFunctionName != "")

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}

	c.MaxLinksPerType = getEnvInt("MAX_LINKS_PER_TYPE", c.MaxLinksPerType)
	c.LockTimeout = getEnvDuration("LOCK_TIMEOUT", c.LockTimeout)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
		}
		if c.ExerciseTable == "" {
			return fmt.Errorf("EXERCISE_TABLE is required for the dynamodb backend")
		}
		if c.LockTable == "" {
			return fmt.Errorf("LOCK_TABLE is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.IsProduction() {
		if c.StorageBackend != StorageDynamoDB {
			return fmt.Errorf("production requires the dynamodb backend")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	if c.MaxLinksPerType < 0 {
		return fmt.Errorf("MAX_LINKS_PER_TYPE cannot be negative")
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("LOCK_TIMEOUT cannot be negative")
	}

	return c.DomainConfig().Validate()
}

// DomainConfig returns the business limits for the environment with
// configured overrides applied
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	if c.MaxLinksPerType > 0 {
		dc.MaxLinksPerType = c.MaxLinksPerType
	}
	if c.LockTimeout > 0 {
		dc.LockTimeout = c.LockTimeout
	}
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
