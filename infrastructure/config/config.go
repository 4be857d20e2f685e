package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all infrastructure configuration, loaded from environment
// variables with sensible defaults for local development.
type Config struct {
	// Environment
	Environment string
	ServiceName string

	// HTTP server
	Port            int
	ShutdownTimeout time.Duration
	AllowedOrigins  []string

	// Auth
	JWTSecret string
	JWTIssuer string

	// Rate limiting
	RateLimitPerMinute int
	RateLimitBurst     int

	// DynamoDB
	AWSRegion     string
	TableName     string
	EntityIndex   string
	DynamoDBLocal string

	// EventBridge
	EventBusName    string
	EventsEnabled   bool
	TracingEnabled  bool
	MetricsEnabled  bool
	MetricNamespace string

	// Query cache
	CacheTTL time.Duration

	// Answer generation
	LLMEndpoint    string
	LLMModel       string
	LLMToken       string
	LLMTemperature float64
	LLMMaxTokens   int
	LLMTimeout     time.Duration
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServiceName: getEnv("SERVICE_NAME", "threadboard"),

		Port:            getEnvInt("PORT", 8080),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "threadboard"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),

		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		TableName:     getEnv("TABLE_NAME", "threadboard"),
		EntityIndex:   getEnv("ENTITY_INDEX_NAME", "EntityIndex"),
		DynamoDBLocal: getEnv("DYNAMODB_ENDPOINT", ""),

		EventBusName:    getEnv("EVENT_BUS_NAME", "threadboard-events"),
		EventsEnabled:   getEnvBool("EVENTS_ENABLED", false),
		TracingEnabled:  getEnvBool("TRACING_ENABLED", false),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", false),
		MetricNamespace: getEnv("METRIC_NAMESPACE", "Threadboard"),

		CacheTTL: getEnvDuration("QUERY_CACHE_TTL", 30*time.Second),

		LLMEndpoint:    getEnv("LLM_ENDPOINT", "https://models.inference.ai.azure.com/chat/completions"),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMToken:       getEnv("LLM_TOKEN", ""),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1000),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings for the current environment
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.LLMToken == "" {
			return fmt.Errorf("LLM_TOKEN is required in production")
		}
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether the service runs in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
