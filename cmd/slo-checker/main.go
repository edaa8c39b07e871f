package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"slochecker/internal/adapter/prometheus"
	"slochecker/internal/adapter/synthetic"
	"slochecker/internal/api"
	"slochecker/internal/config"
	"slochecker/internal/eval"
	"slochecker/internal/scheduler"
	"slochecker/internal/storage"
	"slochecker/internal/storage/logstore"
	"slochecker/internal/storage/postgres"
	"slochecker/internal/storage/sqlite"
)

func main() {
	// Load .env if present; real environment wins
	_ = godotenv.Load()

	cfg := parseFlags()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting SLO checker...")
	log.Printf("Config: interval=%s, slo-dir=%s, adapter=%s, storage=%s",
		cfg.ScrapeInterval, cfg.SLODirectory, cfg.AdapterType, cfg.StorageDriver)

	// Create metrics source
	var source eval.MetricsSource
	switch cfg.AdapterType {
	case "prometheus":
		source = prometheus.NewClient(prometheus.DefaultConfig(cfg.PrometheusURL))
		log.Printf("Using Prometheus backend: %s", cfg.PrometheusURL)

	case "synthetic":
		source = synthetic.NewAdapter()
		log.Printf("Using synthetic metrics source")

	default:
		log.Fatalf("Unknown adapter type: %s", cfg.AdapterType)
	}

	// Create result store
	var store storage.ResultStore
	var err error
	switch cfg.StorageDriver {
	case "sqlite":
		store, err = sqlite.NewStore(cfg.SQLitePath)
	case "postgres":
		store, err = postgres.NewStore(cfg.DatabaseURL)
	case "log":
		store = logstore.NewStore()
	default:
		log.Fatalf("Unknown storage driver: %s", cfg.StorageDriver)
	}
	if err != nil {
		log.Fatalf("Failed to open result store: %v", err)
	}
	defer store.Close()

	// Create scheduler and load definitions
	sched := scheduler.NewScheduler(source, store, cfg.ScrapeInterval, cfg.SLODirectory, cfg.SchemaPath)

	if err := sched.LoadDefinitions(); err != nil {
		log.Fatalf("Failed to load SLO definitions: %v", err)
	}

	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Create and start HTTP server
	apiServer := api.NewServer(sched, cfg.ListenAddr)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- apiServer.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)

	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}

		sched.Stop()

		log.Println("Shutdown complete")
	}
}

func parseFlags() config.Config {
	cfg := config.FromEnv()

	flag.StringVar(&cfg.PrometheusURL, "prometheus-url", cfg.PrometheusURL, "Prometheus server URL (required for prometheus adapter)")
	flag.StringVar(&cfg.AdapterType, "adapter", cfg.AdapterType, "Metrics adapter type (prometheus|synthetic)")
	flag.DurationVar(&cfg.ScrapeInterval, "interval", cfg.ScrapeInterval, "Fixed evaluation interval")
	flag.StringVar(&cfg.SLODirectory, "slo-dir", cfg.SLODirectory, "Directory containing SLO definition YAML files")
	flag.StringVar(&cfg.SchemaPath, "slo-schema", cfg.SchemaPath, "Path to the SLO definition JSON schema")
	flag.StringVar(&cfg.StorageDriver, "storage", cfg.StorageDriver, "Result store driver (sqlite|postgres|log)")
	flag.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database path")
	flag.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL connection URL")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address")
	flag.DurationVar(&cfg.GracefulShutdownTimeout, "shutdown-timeout", cfg.GracefulShutdownTimeout, "Graceful shutdown grace period")

	flag.Parse()

	return cfg
}
