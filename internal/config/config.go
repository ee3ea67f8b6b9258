package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Lead store backends.
const (
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Geocoding GeocodingConfig
	Pricing   PricingConfig
	Leads     LeadsConfig
	AWS       AWSConfig
	Purge     PurgeConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	MigrateOnStart bool
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// DSN returns the pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// GeocodingConfig holds the geocoding provider settings. An empty API key
// disables address lookup.
type GeocodingConfig struct {
	APIKey   string
	Region   string
	Language string
}

// PricingConfig holds quoting settings.
type PricingConfig struct {
	BaseCity string
}

// LeadsConfig selects where leads are stored.
type LeadsConfig struct {
	Backend     string
	DynamoTable string
}

// AWSConfig holds DynamoDB connection settings.
type AWSConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// PurgeConfig gates the bulk delete of leads.
type PurgeConfig struct {
	PassphraseHash string
	TokenTTL       time.Duration
}

// RateLimitConfig limits public lead submissions per client IP.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// LoadDotEnv loads KEY=VALUE files into the process environment before Load
// runs. Missing files are skipped; variables already set are kept.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "thermohouse")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("GEOCODING_REGION", "mx")
	v.SetDefault("GEOCODING_LANGUAGE", "es")
	v.SetDefault("PRICING_BASE_CITY", "Mérida")
	v.SetDefault("LEADS_BACKEND", BackendPostgres)
	v.SetDefault("DYNAMODB_TABLE", "leads")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("PURGE_TOKEN_TTL", "2m")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("METRICS_ENABLED", true)

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			Env:            v.GetString("ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			MigrateOnStart: v.GetBool("MIGRATE_ON_START"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Geocoding: GeocodingConfig{
			APIKey:   v.GetString("GOOGLE_MAPS_API_KEY"),
			Region:   v.GetString("GEOCODING_REGION"),
			Language: v.GetString("GEOCODING_LANGUAGE"),
		},
		Pricing: PricingConfig{
			BaseCity: strings.TrimSpace(v.GetString("PRICING_BASE_CITY")),
		},
		Leads: LeadsConfig{
			Backend:     strings.ToLower(v.GetString("LEADS_BACKEND")),
			DynamoTable: v.GetString("DYNAMODB_TABLE"),
		},
		AWS: AWSConfig{
			Region:          v.GetString("AWS_REGION"),
			Endpoint:        v.GetString("DYNAMODB_ENDPOINT"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		},
		Purge: PurgeConfig{
			PassphraseHash: v.GetString("PURGE_PASSPHRASE_HASH"),
			TokenTTL:       v.GetDuration("PURGE_TOKEN_TTL"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
			Burst:     v.GetInt("RATE_LIMIT_BURST"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Pricing.BaseCity == "" {
		return fmt.Errorf("PRICING_BASE_CITY is required")
	}

	switch c.Leads.Backend {
	case BackendPostgres:
	case BackendDynamoDB:
		if c.Leads.DynamoTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
		}
		if c.AWS.Region == "" {
			return fmt.Errorf("AWS_REGION is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("LEADS_BACKEND must be %q or %q, got %q", BackendPostgres, BackendDynamoDB, c.Leads.Backend)
	}

	if c.Purge.TokenTTL <= 0 {
		return fmt.Errorf("PURGE_TOKEN_TTL must be positive")
	}

	if c.RateLimit.PerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1")
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
