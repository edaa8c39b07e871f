package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the checker's startup configuration. Everything is read
// once before the scheduler starts and is immutable thereafter.
type Config struct {
	// Metrics backend
	PrometheusURL string
	AdapterType   string // "prometheus" or "synthetic"

	// Polling
	ScrapeInterval time.Duration

	// SLO definitions
	SLODirectory string
	SchemaPath   string

	// Storage
	StorageDriver string // "sqlite", "postgres" or "log"
	SQLitePath    string
	DatabaseURL   string

	// HTTP surface
	ListenAddr string

	// Operational settings
	GracefulShutdownTimeout time.Duration
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.ScrapeInterval <= 0 {
		return fmt.Errorf("scrape interval must be positive, got %s", c.ScrapeInterval)
	}

	if c.SLODirectory == "" {
		return fmt.Errorf("SLO directory is required")
	}

	if c.AdapterType != "prometheus" && c.AdapterType != "synthetic" {
		return fmt.Errorf("adapter type must be 'prometheus' or 'synthetic'")
	}

	if c.AdapterType == "prometheus" && c.PrometheusURL == "" {
		return fmt.Errorf("Prometheus URL required when adapter type is 'prometheus'")
	}

	switch c.StorageDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLite path required when storage driver is 'sqlite'")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL required when storage driver is 'postgres'")
		}
	case "log":
	default:
		return fmt.Errorf("storage driver must be 'sqlite', 'postgres' or 'log'")
	}

	return nil
}

// FromEnv reads configuration from environment variables, applying
// defaults where unset. Interval is integer seconds.
func FromEnv() Config {
	return Config{
		PrometheusURL:           os.Getenv("PROMETHEUS_API_URL"),
		AdapterType:             getenv("ADAPTER_TYPE", "prometheus"),
		ScrapeInterval:          time.Duration(getenvInt("SCRAPE_INTERVAL", 60)) * time.Second,
		SLODirectory:            getenv("SLO_DIR", "slos"),
		SchemaPath:              getenv("SLO_SCHEMA_PATH", "schemas/slo_v1.json"),
		StorageDriver:           getenv("STORAGE_DRIVER", "sqlite"),
		SQLitePath:              getenv("SQLITE_PATH", "slochecker.db"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		ListenAddr:              getenv("LISTEN_ADDR", ":8080"),
		GracefulShutdownTimeout: 30 * time.Second,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
