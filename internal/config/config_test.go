package config

import (
	"os"
	"testing"

	"github.com/simaogato/tradesense-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_CONN_STR", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"GRPC_PORT", "API_TOKEN", "DEFAULT_CURRENCY", "LOG_LEVEL", "DEV_MODE", "SEED_PLANS",
		"METRICS_PORT", "EVALUATION_SCHEDULE",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=tradesense sslmode=disable", cfg.DBConnStr)
	assert.Equal(t, 8080, cfg.GRPCPort)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, "dev-token", cfg.APIToken)
	assert.Equal(t, domain.CurrencyMAD, cfg.DefaultCurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.True(t, cfg.SeedPlans)
	assert.Equal(t, ":9090", cfg.MetricsAddr())
	assert.Equal(t, "0 */5 * * * *", cfg.EvaluationSchedule)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "challenges")
	t.Setenv("GRPC_PORT", "9443")
	t.Setenv("METRICS_PORT", "9100")
	t.Setenv("API_TOKEN", "s3cret")
	t.Setenv("DEFAULT_CURRENCY", "eur")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("SEED_PLANS", "false")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Contains(t, cfg.DBConnStr, "host=db")
	assert.Contains(t, cfg.DBConnStr, "dbname=challenges")
	assert.Equal(t, 9443, cfg.GRPCPort)
	assert.Equal(t, 9100, cfg.MetricsPort)
	assert.Equal(t, "s3cret", cfg.APIToken)
	assert.Equal(t, domain.CurrencyEUR, cfg.DefaultCurrency)
	assert.True(t, cfg.DevMode)
	assert.False(t, cfg.SeedPlans)
}

func TestLoad_ExplicitConnStrWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_CONN_STR", "postgres://u:p@h/db")
	t.Setenv("DB_HOST", "ignored")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h/db", cfg.DBConnStr)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRPC_PORT", "not-a-port")
	t.Setenv("DEV_MODE", "maybe")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.GRPCPort)
	assert.False(t, cfg.DevMode)
}

func TestLoad_UnsupportedCurrency(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_CURRENCY", "JPY")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.EqualError(t, err, `DEFAULT_CURRENCY "JPY" is not a supported currency (supported: [EUR GBP MAD USD])`)
}

func TestValidate_Port(t *testing.T) {
	cfg := &Config{GRPCPort: 70000, APIToken: "t", DefaultCurrency: domain.CurrencyUSD}

	err := cfg.Validate(domain.DefaultCurrencyTable())

	assert.EqualError(t, err, "GRPC_PORT must be between 1 and 65535, got 70000")
}

func TestLoad_EmptyScheduleDisablesSweep(t *testing.T) {
	clearEnv(t)
	t.Setenv("EVALUATION_SCHEDULE", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Empty(t, cfg.EvaluationSchedule)
}

func TestValidate_MetricsPort(t *testing.T) {
	tests := []struct {
		name        string
		metricsPort int
		wantErr     string
	}{
		{name: "Out of range", metricsPort: 0, wantErr: "METRICS_PORT must be between 1 and 65535, got 0"},
		{name: "Same as gRPC", metricsPort: 8080, wantErr: "METRICS_PORT and GRPC_PORT must differ, both are 8080"},
		{name: "Valid", metricsPort: 9090},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{GRPCPort: 8080, MetricsPort: tt.metricsPort, APIToken: "t", DefaultCurrency: domain.CurrencyUSD}

			err := cfg.Validate(domain.DefaultCurrencyTable())

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
