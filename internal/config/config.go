// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/simaogato/tradesense-backend/internal/domain"
)

// Config holds application configuration
type Config struct {
	DBConnStr       string
	GRPCPort        int
	APIToken        string
	DefaultCurrency domain.CurrencyCode
	LogLevel        string
	DevMode         bool
	SeedPlans       bool

	MetricsPort        int
	EvaluationSchedule string // cron spec with seconds, empty disables the sweep
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DBConnStr:       loadDBConnStr(),
		GRPCPort:        getEnvAsInt("GRPC_PORT", 8080),
		APIToken:        getEnv("API_TOKEN", "dev-token"),
		DefaultCurrency: domain.ParseCurrencyCode(getEnv("DEFAULT_CURRENCY", string(domain.CurrencyMAD))),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		SeedPlans:       getEnvAsBool("SEED_PLANS", true),

		MetricsPort:        getEnvAsInt("METRICS_PORT", 9090),
		EvaluationSchedule: getEnvAllowEmpty("EVALUATION_SCHEDULE", "0 */5 * * * *"),
	}

	if err := cfg.Validate(domain.DefaultCurrencyTable()); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against the currencies the service can display
func (c *Config) Validate(currencies *domain.CurrencyTable) error {
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("GRPC_PORT must be between 1 and 65535, got %d", c.GRPCPort)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("METRICS_PORT must be between 1 and 65535, got %d", c.MetricsPort)
	}
	if c.MetricsPort == c.GRPCPort {
		return fmt.Errorf("METRICS_PORT and GRPC_PORT must differ, both are %d", c.GRPCPort)
	}
	if c.APIToken == "" {
		return fmt.Errorf("API_TOKEN cannot be empty")
	}
	if !currencies.Has(c.DefaultCurrency) {
		return fmt.Errorf("DEFAULT_CURRENCY %q is not a supported currency (supported: %v)", c.DefaultCurrency, currencies.Codes())
	}
	return nil
}

// ListenAddr returns the address the gRPC server binds to
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

// MetricsAddr returns the address the ops HTTP server binds to
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf(":%d", c.MetricsPort)
}

// loadDBConnStr uses DB_CONN_STR when set, otherwise builds it from
// individual vars (Docker friendly)
func loadDBConnStr() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "tradesense"),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty is getEnv where an explicitly empty value wins over the default
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
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
