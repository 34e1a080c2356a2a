// Package main provides the bar ingest entry point: daily OHLCV CSV files
// are parsed, stamped into the exchange time zone, and archived append-only.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"futures-roll-lab/internal/ingest"
	"futures-roll-lab/internal/observability"
	"futures-roll-lab/internal/storage"
	"futures-roll-lab/internal/storage/memory"
	"futures-roll-lab/internal/storage/migrations"
	pgstore "futures-roll-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	tz := flag.String("tz", "America/Chicago", "Exchange time zone for bar timestamps")
	useMemory := flag.Bool("use-memory", false, "Validate and count bars without a database")
	migrate := flag.Bool("migrate", false, "Apply the embedded schema before ingesting")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	files := flag.Args()
	if len(files) == 0 {
		logger.Fatal("No input files. Usage: ingest [flags] <file.csv> [file.csv ...]")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for a dry run)")
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		logger.Fatalf("Invalid time zone %q: %v", *tz, err)
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling ingest...\n", sig)
		cancel()
	}()

	if err := runIngest(ctx, logger, *postgresDSN, files, loc, *useMemory, *migrate); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

// runIngest loads all files into the configured store.
func runIngest(ctx context.Context, logger *log.Logger, postgresDSN string, files []string, loc *time.Location, useMemory, migrate bool) error {
	var barStore storage.BarStore = memory.NewBarStore()

	if !useMemory {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if migrate {
			if err := migrations.ApplyPostgres(ctx, pool); err != nil {
				return fmt.Errorf("apply postgres schema: %w", err)
			}
			logger.Printf("Applied postgres schema")
		}

		barStore = pgstore.NewBarStore(pool)
	}

	runner := ingest.NewRunner(ingest.RunnerOptions{
		BarStore: barStore,
		Location: loc,
		Logger:   logger,
	})

	result, err := runner.IngestFiles(ctx, files)
	observability.RecordFilesIngested(result.FilesProcessed)
	observability.RecordBarsIngested(result.BarsIngested)
	if err != nil {
		return err
	}

	if useMemory {
		logger.Printf("Dry run: %d bars validated, nothing stored", result.BarsIngested)
	}
	return nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
