// Package config loads and validates the forwarder's configuration from
// environment variables, with an optional .env file for local development
// (mirroring the teacher's env-first configuration pattern).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the immutable, validated snapshot of every tunable in spec §6.
// It is built once at startup by Load and never mutated afterward.
type Config struct {
	AisegURL      string
	AisegUser     string
	AisegPassword string

	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string

	LogLevel string

	StatusInterval        time.Duration
	TotalInterval         time.Duration
	TotalInitialDays      int
	CollectorTaskTimeout  time.Duration

	BreakerFailureThreshold         int
	BreakerRecoveryTimeout          time.Duration
	BreakerHalfOpenSuccessThreshold int
	BreakerHalfOpenFailureThreshold int
}

// validationErrors accumulates every configuration problem found so a
// misconfigured deployment sees all of them in one error message, not one fix
// cycle at a time.
type validationErrors struct {
	problems []string
}

func (v *validationErrors) addf(format string, args ...interface{}) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validationErrors) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(v.problems, "\n  - "))
}

// Load reads and validates configuration from the environment. If a
// .env file is present in the working directory it is loaded first (and
// silently skipped if absent), matching the teacher's local-development
// convenience without requiring it in production/container deployments.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file, continuing with process environment")
	}

	v := &validationErrors{}

	cfg := &Config{
		AisegURL:      requireString(v, "AISEG2_URL"),
		AisegUser:     requireString(v, "AISEG2_USER"),
		AisegPassword: requireString(v, "AISEG2_PASSWORD"),

		InfluxURL:    requireString(v, "INFLUXDB_URL"),
		InfluxToken:  requireString(v, "INFLUXDB_TOKEN"),
		InfluxOrg:    requireString(v, "INFLUXDB_ORG"),
		InfluxBucket: requireString(v, "INFLUXDB_BUCKET"),

		LogLevel: envOr("LOG_LEVEL", "info"),

		StatusInterval:       durationSecondsOr(v, "COLLECTOR_STATUS_INTERVAL_SEC", 5),
		TotalInterval:        durationSecondsOr(v, "COLLECTOR_TOTAL_INTERVAL_SEC", 60),
		TotalInitialDays:     intOr(v, "COLLECTOR_TOTAL_INITIAL_DAYS", 30),
		CollectorTaskTimeout: durationSecondsOr(v, "COLLECTOR_TASK_TIMEOUT_SECONDS", 10),

		BreakerFailureThreshold:         intOr(v, "CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
		BreakerRecoveryTimeout:          durationSecondsOr(v, "CIRCUIT_BREAKER_RECOVERY_TIMEOUT_SECONDS", 60),
		BreakerHalfOpenSuccessThreshold: intOr(v, "CIRCUIT_BREAKER_HALF_OPEN_SUCCESS_THRESHOLD", 3),
		BreakerHalfOpenFailureThreshold: intOr(v, "CIRCUIT_BREAKER_HALF_OPEN_FAILURE_THRESHOLD", 1),
	}

	if !isValidLogLevel(cfg.LogLevel) {
		v.addf("LOG_LEVEL %q must be one of trace|debug|info|warn|error", cfg.LogLevel)
	}

	if err := v.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "trace", "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireString(v *validationErrors, key string) string {
	val := os.Getenv(key)
	if val == "" {
		v.addf("%s is required", key)
	}
	return val
}

func intOr(v *validationErrors, key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.addf("%s=%q is not a valid integer", key, raw)
		return def
	}
	if n <= 0 {
		v.addf("%s must be positive, got %d", key, n)
		return def
	}
	return n
}

func durationSecondsOr(v *validationErrors, key string, defSeconds int) time.Duration {
	return time.Duration(intOr(v, key, defSeconds)) * time.Second
}
