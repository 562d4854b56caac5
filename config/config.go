package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Taxonomy  TaxonomyConfig  `mapstructure:"taxonomy"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Dimension         int           `mapstructure:"dimension"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
}

// LLMConfig holds chat completion provider configuration
type LLMConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Temperature       float64       `mapstructure:"temperature"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// VectorConfig holds vector store configuration
type VectorConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DatabaseConfig holds Postgres configuration. An empty URL disables persistence.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// TaxonomyConfig points at the master taxonomy document
type TaxonomyConfig struct {
	Path string `mapstructure:"path"`
}

// MatchingConfig holds matching and recommendation settings
type MatchingConfig struct {
	SimilarityThreshold     float64 `mapstructure:"similarity_threshold"`
	RecommendationThreshold float64 `mapstructure:"recommendation_threshold"`
	CrossRetailerThreshold  float64 `mapstructure:"cross_retailer_threshold"`
	DefaultCollection       string  `mapstructure:"default_collection"`
	ValidateCO2             bool    `mapstructure:"validate_co2"`
	SearchOtherRetailers    bool    `mapstructure:"search_other_retailers"`
	MaxWorkers              int     `mapstructure:"max_workers"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ecoboleta/")

	// ECOBOLETA_MATCHING_SIMILARITY_THRESHOLD -> matching.similarity_threshold
	v.SetEnvPrefix("ECOBOLETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present. Variables already set are not overridden.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimension", 1536)
	v.SetDefault("embedding.timeout", "30s")
	v.SetDefault("embedding.requests_per_second", 0)
	v.SetDefault("embedding.max_attempts", 1)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.requests_per_second", 0)

	v.SetDefault("vector.base_url", "http://localhost:6333")
	v.SetDefault("vector.api_key", "")
	v.SetDefault("vector.timeout", "10s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("taxonomy.path", "data/master_taxonomy.yaml")

	v.SetDefault("matching.similarity_threshold", 0.75)
	v.SetDefault("matching.recommendation_threshold", 0.70)
	v.SetDefault("matching.cross_retailer_threshold", 0.75)
	v.SetDefault("matching.default_collection", "tottus")
	v.SetDefault("matching.validate_co2", false)
	v.SetDefault("matching.search_other_retailers", true)
	v.SetDefault("matching.max_workers", 4)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Embedding.APIKey == "" {
		return fmt.Errorf("embedding API key is required (set ECOBOLETA_EMBEDDING_API_KEY)")
	}

	if config.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required (set ECOBOLETA_LLM_API_KEY)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Taxonomy.Path == "" {
		return fmt.Errorf("taxonomy path is required")
	}

	thresholds := map[string]float64{
		"matching.similarity_threshold":     config.Matching.SimilarityThreshold,
		"matching.recommendation_threshold": config.Matching.RecommendationThreshold,
		"matching.cross_retailer_threshold": config.Matching.CrossRetailerThreshold,
	}
	for key, value := range thresholds {
		if value <= 0 || value > 1 {
			return fmt.Errorf("%s must be in (0, 1], got: %v", key, value)
		}
	}

	if config.Matching.MaxWorkers < 1 {
		return fmt.Errorf("matching.max_workers must be at least 1, got: %d", config.Matching.MaxWorkers)
	}

	return nil
}
