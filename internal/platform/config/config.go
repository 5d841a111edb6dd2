// Package config builds runtime configuration from environment variables so
// main stays lean. Every tunable has a default suitable for local development.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures all service-level configuration.
type Config struct {
	Addr string

	// External collaborators. Empty values select in-memory/mock fallbacks.
	DatabaseURL  string
	Redis        RedisConfig
	KafkaBrokers string
	KafkaTopic   string

	// Ledger read access.
	LedgerRPCURL     string
	RegistryContract string
	LookupTimeout    time.Duration

	// Dashboard auth.
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	Fraud FraudConfig
}

// RedisConfig carries connection settings for the Redis scan store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FraudConfig holds the detector thresholds. Defaults mirror the dashboard's
// expectations; all are overridable per deployment.
type FraudConfig struct {
	// SuspiciousLocationMinScans is the minimum NOT_FOUND count per
	// coordinate cell before a location is reported.
	SuspiciousLocationMinScans int
	// DuplicateSoldMinScans is the minimum ALREADY_SOLD count per product
	// before a cloned-code report fires.
	DuplicateSoldMinScans int
	// LocationPrecision is the number of decimal places kept when grouping
	// coordinates into cells.
	LocationPrecision int
	// NearbyPageSize bounds radius query results.
	NearbyPageSize int
	// NearbyMaxRadiusMeters caps the radius a caller may request.
	NearbyMaxRadiusMeters float64
	// ListPageSize / ListMaxPageSize bound scan listings.
	ListPageSize    int
	ListMaxPageSize int
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:         envString("VERISCAN_ADDR", ":8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   envString("KAFKA_SCAN_TOPIC", "veriscan.scans"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		LedgerRPCURL:     os.Getenv("LEDGER_RPC_URL"),
		RegistryContract: os.Getenv("REGISTRY_CONTRACT_ADDRESS"),
		LookupTimeout:    envDuration("LEDGER_LOOKUP_TIMEOUT", 5*time.Second),
		// Default exists for development only; override in production.
		JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envString("JWT_ISSUER", "veriscan"),
		JWTAudience:   envString("JWT_AUDIENCE", "veriscan-dashboard"),
		Fraud: FraudConfig{
			SuspiciousLocationMinScans: envInt("FRAUD_LOCATION_MIN_SCANS", 5),
			DuplicateSoldMinScans:      envInt("FRAUD_DUPLICATE_SOLD_MIN_SCANS", 3),
			LocationPrecision:          envInt("FRAUD_LOCATION_PRECISION", 4),
			NearbyPageSize:             envInt("FRAUD_NEARBY_PAGE_SIZE", 100),
			NearbyMaxRadiusMeters:      float64(envInt("FRAUD_NEARBY_MAX_RADIUS_METERS", 50000)),
			ListPageSize:               envInt("SCAN_LIST_PAGE_SIZE", 100),
			ListMaxPageSize:            envInt("SCAN_LIST_MAX_PAGE_SIZE", 1000),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
