package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AISEG2_URL", "http://aiseg.local")
	t.Setenv("AISEG2_USER", "admin")
	t.Setenv("AISEG2_PASSWORD", "secret")
	t.Setenv("INFLUXDB_URL", "http://influx.local:8086")
	t.Setenv("INFLUXDB_TOKEN", "token")
	t.Setenv("INFLUXDB_ORG", "org")
	t.Setenv("INFLUXDB_BUCKET", "bucket")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.StatusInterval)
	assert.Equal(t, 60*time.Second, cfg.TotalInterval)
	assert.Equal(t, 30, cfg.TotalInitialDays)
	assert.Equal(t, 10*time.Second, cfg.CollectorTaskTimeout)
	assert.Equal(t, 5, cfg.BreakerFailureThreshold)
	assert.Equal(t, 60*time.Second, cfg.BreakerRecoveryTimeout)
	assert.Equal(t, 3, cfg.BreakerHalfOpenSuccessThreshold)
	assert.Equal(t, 1, cfg.BreakerHalfOpenFailureThreshold)
}

func TestLoad_MissingRequired(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AISEG2_URL is required")
	assert.Contains(t, err.Error(), "INFLUXDB_BUCKET is required")
}

func TestLoad_InvalidInteger(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COLLECTOR_STATUS_INTERVAL_SEC", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COLLECTOR_STATUS_INTERVAL_SEC")
}

func TestLoad_NonPositiveInterval(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COLLECTOR_TOTAL_INTERVAL_SEC", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COLLECTOR_STATUS_INTERVAL_SEC", "15")
	t.Setenv("COLLECTOR_TOTAL_INITIAL_DAYS", "3")
	t.Setenv("CIRCUIT_BREAKER_FAILURE_THRESHOLD", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.StatusInterval)
	assert.Equal(t, 3, cfg.TotalInitialDays)
	assert.Equal(t, 2, cfg.BreakerFailureThreshold)
}
