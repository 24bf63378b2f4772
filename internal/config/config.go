package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "jwt-secret-key-change-in-production"

// Config holds all configuration for our application
type Config struct {
	Port        string
	Host        string
	Environment string
	JWTSecret   string
	CORSOrigins []string
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	Pagination  PaginationConfig
	Compliance  ComplianceConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	Username     string
	Password     string
	Name         string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	Debug        bool
}

// RedisConfig holds the optional patient cache connection.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// PaginationConfig bounds list endpoints.
type PaginationConfig struct {
	ItemsPerPage    int
	MaxItemsPerPage int
}

// ComplianceConfig is reported by the info endpoint.
type ComplianceConfig struct {
	HIPAACompliant    bool
	GDPRCompliant     bool
	DataRetentionDays int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		Host:     getEnv("DB_HOST", "localhost"),
		Username: getEnv("DB_USERNAME", "user"),
		Password: getEnv("DB_PASSWORD", "password"),
		Name:     getEnv("DB_NAME", "healthcare_risk"),
	}

	switch dbConfig.Driver {
	case "postgres":
		dbConfig.Port = getEnv("DB_PORT", "5432")
		dbConfig.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			dbConfig.Host, dbConfig.Port, dbConfig.Username, dbConfig.Password, dbConfig.Name)
	case "mysql":
		dbConfig.Port = getEnv("DB_PORT", "3306")
		dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", dbConfig.Driver)
	}
	// A full URL wins over the individual parts.
	if url := getEnv("DATABASE_URL", ""); url != "" {
		dbConfig.DSN = url
	}

	var err error
	if dbConfig.MaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", 20); err != nil {
		return nil, err
	}
	if dbConfig.MaxIdleConns, err = getEnvInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if dbConfig.Debug, err = getEnvBool("DB_DEBUG", false); err != nil {
		return nil, err
	}

	cacheTTL, err := getEnvInt("PATIENT_CACHE_TTL_SECONDS", 300)
	if err != nil {
		return nil, err
	}

	itemsPerPage, err := getEnvInt("ITEMS_PER_PAGE", 20)
	if err != nil {
		return nil, err
	}
	maxItemsPerPage, err := getEnvInt("MAX_ITEMS_PER_PAGE", 100)
	if err != nil {
		return nil, err
	}
	if itemsPerPage <= 0 || maxItemsPerPage < itemsPerPage {
		return nil, fmt.Errorf("invalid pagination: ITEMS_PER_PAGE=%d MAX_ITEMS_PER_PAGE=%d", itemsPerPage, maxItemsPerPage)
	}

	retentionDays, err := getEnvInt("DATA_RETENTION_DAYS", 2555) // ~7 years
	if err != nil {
		return nil, err
	}
	hipaa, err := getEnvBool("HIPAA_COMPLIANT", true)
	if err != nil {
		return nil, err
	}
	gdpr, err := getEnvBool("GDPR_COMPLIANT", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		Host:        getEnv("HOST", "0.0.0.0"),
		Environment: strings.ToLower(getEnv("ENV", "development")),
		JWTSecret:   getEnv("JWT_SECRET", DefaultJWTSecret),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		Database:    dbConfig,
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			CacheTTL: time.Duration(cacheTTL) * time.Second,
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Pagination: PaginationConfig{
			ItemsPerPage:    itemsPerPage,
			MaxItemsPerPage: maxItemsPerPage,
		},
		Compliance: ComplianceConfig{
			HIPAACompliant:    hipaa,
			GDPRCompliant:     gdpr,
			DataRetentionDays: retentionDays,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that are unsafe for the configured environment.
func (c *Config) Validate() error {
	switch c.Environment {
	case "development", "testing", "staging", "production":
	default:
		return fmt.Errorf("unknown ENV %q", c.Environment)
	}
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

// IsProduction reports whether the server runs with production settings.
// Staging is treated like production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "staging"
}

// IsDevelopment reports whether debug behaviour is allowed.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, strconv.Itoa(defaultValue))
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, strconv.FormatBool(defaultValue))
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
