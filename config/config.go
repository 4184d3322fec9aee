// Package config centralizes environment configuration for the rate
// limiting layer. A local .env file is honored when present, matching how
// the reservation system is provisioned.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	ratelimit "github.com/Sanjaycs096/Railway-Reservation"
)

// Storage backends for the limiter state.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	Port    string
	Enabled bool

	// GeneralMaxPerMinute overrides the general endpoint class's budget.
	GeneralMaxPerMinute uint64

	Storage string
	Redis   RedisConfig

	SweepInterval     time.Duration
	TrustProxyHeaders bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from the environment. Malformed values are
// load-time errors so a bad deployment fails before serving traffic.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:    getEnv("PORT", "5000"),
		Storage: strings.ToLower(getEnv("RATE_LIMIT_STORAGE", StorageMemory)),
	}

	enabled, err := getEnvBool("RATE_LIMIT_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cfg.Enabled = enabled

	maxPerMinute, err := getEnvUint("MAX_REQUESTS_PER_MINUTE", 60)
	if err != nil {
		return Config{}, err
	}
	if maxPerMinute == 0 {
		return Config{}, fmt.Errorf("MAX_REQUESTS_PER_MINUTE must be positive")
	}
	cfg.GeneralMaxPerMinute = maxPerMinute

	sweepInterval, err := getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.SweepInterval = sweepInterval

	trustProxy, err := getEnvBool("TRUST_PROXY_HEADERS", false)
	if err != nil {
		return Config{}, err
	}
	cfg.TrustProxyHeaders = trustProxy

	switch cfg.Storage {
	case StorageMemory:
	case StorageRedis:
		db, err := getEnvInt("REDIS_DB", 0)
		if err != nil {
			return Config{}, err
		}
		cfg.Redis = RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       db,
		}
	default:
		return Config{}, fmt.Errorf("unknown RATE_LIMIT_STORAGE %q", cfg.Storage)
	}

	return cfg, nil
}

// Policies returns the endpoint-class policy table with the configured
// general budget applied.
func (c Config) Policies() map[string]ratelimit.Policy {
	policies := ratelimit.DefaultPolicies()

	general := policies[ratelimit.EndpointGeneral]
	general.MaxRequests = c.GeneralMaxPerMinute
	policies[ratelimit.EndpointGeneral] = general

	return policies
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %q", key, raw)
	}
	return value, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q", key, raw)
	}
	return value, nil
}

func getEnvUint(key string, fallback uint64) (uint64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid unsigned integer for %s: %q", key, raw)
	}
	return value, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("duration for %s must be positive", key)
	}
	return value, nil
}
