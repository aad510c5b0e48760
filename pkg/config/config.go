package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Storage
	Database DatabaseConfig

	// Enrichment pipeline
	Enrichment EnrichmentConfig

	// Scoring
	Scoring ScoringConfig

	// Decisions
	Decision DecisionConfig

	// External collaborators
	Polygon PolygonConfig
	News    NewsConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig selects and configures the storage backend
type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	Path   string // sqlite file path
	URL    string // postgres connection URL

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// EnrichmentConfig holds the re-scoring loop parameters
type EnrichmentConfig struct {
	Interval         time.Duration // cadence between passes
	FetchTimeout     time.Duration // per outbound call
	FetchConcurrency int           // parallel price-history requests
	FetchRatePerSec  float64       // outbound request budget
	HistoryDays      int           // daily bars pulled per symbol
}

// ScoringConfig holds the composite-score category weights and buckets
type ScoringConfig struct {
	WeightVolumeMomentum   float64
	WeightFloatShort       float64
	WeightTechnical        float64
	WeightOptionsSentiment float64
	ThresholdWatch         float64
	ThresholdTradeReady    float64
}

// DecisionConfig holds promotion rules and size-plan multipliers
type DecisionConfig struct {
	MinScore    float64 // composite needed to qualify
	TopN        int     // candidates considered per pass
	EntryMult   float64 // of reference price
	StopMult    float64
	Target1Mult float64
	Target2Mult float64
	AdminToken  string // shared secret for the manual trigger
}

// PolygonConfig holds the market-data collaborator settings
type PolygonConfig struct {
	BaseURL string
	APIKey  string
}

// NewsConfig holds the headline source used for catalyst scoring
type NewsConfig struct {
	BaseURL string
	Enabled bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Path:            getEnv("DB_PATH", "./alphastack.db"),
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "1h"),
		},

		Enrichment: EnrichmentConfig{
			Interval:         getEnvAsDuration("ENRICH_INTERVAL", "180s"),
			FetchTimeout:     getEnvAsDuration("FETCH_TIMEOUT", "8s"),
			FetchConcurrency: getEnvAsInt("FETCH_CONCURRENCY", 4),
			FetchRatePerSec:  getEnvAsFloat("FETCH_RATE_PER_SEC", 5),
			HistoryDays:      getEnvAsInt("HISTORY_DAYS", 60),
		},

		Scoring: ScoringConfig{
			WeightVolumeMomentum:   getEnvAsFloat("WEIGHT_VOLUME_MOMENTUM", 0.25),
			WeightFloatShort:       getEnvAsFloat("WEIGHT_FLOAT_SHORT", 0.20),
			WeightTechnical:        getEnvAsFloat("WEIGHT_TECHNICAL", 0.20),
			WeightOptionsSentiment: getEnvAsFloat("WEIGHT_OPTIONS_SENTIMENT", 0.15),
			ThresholdWatch:         getEnvAsFloat("SCORE_WATCH", 70),
			ThresholdTradeReady:    getEnvAsFloat("SCORE_TRADE_READY", 75),
		},

		Decision: DecisionConfig{
			MinScore:    getEnvAsFloat("DECISION_MIN_SCORE", 75),
			TopN:        getEnvAsInt("DECISION_TOP_N", 5),
			EntryMult:   getEnvAsFloat("DECISION_ENTRY_MULT", 1.0),
			StopMult:    getEnvAsFloat("DECISION_STOP_MULT", 0.90),
			Target1Mult: getEnvAsFloat("DECISION_TARGET1_MULT", 1.25),
			Target2Mult: getEnvAsFloat("DECISION_TARGET2_MULT", 1.60),
			AdminToken:  getEnv("ADMIN_TOKEN", ""),
		},

		Polygon: PolygonConfig{
			BaseURL: getEnv("POLYGON_BASE_URL", "https://api.polygon.io"),
			APIKey:  getEnv("POLYGON_API_KEY", ""),
		},

		News: NewsConfig{
			BaseURL: getEnv("NEWS_BASE_URL", "https://finviz.com/quote.ashx"),
			Enabled: getEnvAsBool("NEWS_ENABLED", true),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.Database.Driver)
	}

	if c.Enrichment.Interval <= 0 {
		return fmt.Errorf("ENRICH_INTERVAL must be positive")
	}
	if c.Enrichment.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
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
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
