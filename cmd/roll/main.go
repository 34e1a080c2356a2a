// Package main provides the continuous series build entry point.
// Executes: load bars → annotate contracts → build per policy → store output
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"futures-roll-lab/internal/contract"
	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/ingest"
	"futures-roll-lab/internal/observability"
	"futures-roll-lab/internal/orchestrator"
	"futures-roll-lab/internal/pipeline"
	"futures-roll-lab/internal/roll"
	"futures-roll-lab/internal/storage"
	chstore "futures-roll-lab/internal/storage/clickhouse"
	"futures-roll-lab/internal/storage/memory"
	"futures-roll-lab/internal/storage/migrations"
	pgstore "futures-roll-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	root := flag.String("root", "", "Contract root to build (e.g. GC)")
	lengths := flag.String("lengths", "1-12", "Generic series lengths: comma list and N-M ranges")
	nearRoll := flag.Bool("near-roll", false, "Also build the near-roll spliced series")
	daysBeforeExpiry := flag.Int("days-before-expiry", 3, "Near-roll calendar offset before the expiry anchor")
	tz := flag.String("tz", "America/Chicago", "Exchange time zone for bar dates")
	csvFiles := flag.String("csv", "", "Comma-separated bar CSV files; builds in memory instead of the database")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	outputDir := flag.String("output-dir", "", "Write ROLL_REPORT.md and series CSVs here after the build (empty to skip)")
	migrate := flag.Bool("migrate", false, "Apply the embedded schema before building")
	verbose := flag.Bool("verbose", false, "Verbose output")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[roll] ", log.LstdFlags|log.Lshortfile)

	if *root == "" {
		logger.Fatal("--root is required")
	}
	if *csvFiles == "" && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --csv for file mode)")
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		logger.Fatalf("Invalid time zone %q: %v", *tz, err)
	}

	configs, err := buildConfigs(*lengths, *nearRoll)
	if err != nil {
		logger.Fatalf("Invalid --lengths: %v", err)
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
		fmt.Printf("\nReceived signal %v, cancelling build...\n", sig)
		cancel()
	}()

	// Create stores
	barStore, seriesStore, eventStore, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *csvFiles != "", *migrate)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// File mode: load the CSV files into the in-memory archive first
	if *csvFiles != "" {
		if *outputDir == "" {
			logger.Println("File mode without --output-dir discards the built series")
		}
		if err := loadCSVFiles(ctx, logger, barStore, *csvFiles, loc); err != nil {
			logger.Fatalf("Failed to load CSV files: %v", err)
		}
	}

	// Run the build
	orch := orchestrator.New(orchestrator.Options{
		BarStore:         barStore,
		SeriesStore:      seriesStore,
		EventStore:       eventStore,
		Configs:          configs,
		DaysBeforeExpiry: *daysBeforeExpiry,
		Location:         loc,
		Verbose:          *verbose,
	})

	start := time.Now()
	result, err := orch.Run(ctx, *root)
	observability.RecordBuildDuration(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, contract.ErrMonthCode) || errors.Is(err, contract.ErrYearDigit) {
			observability.RecordDecodeError()
		}
		logger.Fatalf("Build failed: %v", err)
	}

	observability.RecordBarsAnnotated(result.BarsProcessed)
	for _, s := range result.Series {
		observability.RecordSeriesBuilt(s.Key.Policy, s.Rolls)
		observability.UpdateMissingDays(*root, s.Key.Policy, s.Key.Length, s.MissingDays)
	}

	fmt.Printf("Build completed for %s:\n", *root)
	fmt.Printf("  Bars: %d\n", result.BarsProcessed)
	fmt.Printf("  Series: %d\n", result.SeriesBuilt)
	fmt.Printf("  Points: %d\n", result.PointsWritten)
	fmt.Printf("  Rolls: %d\n", result.RollsDetected)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	// Emit report files if requested
	if *outputDir != "" {
		p := pipeline.NewReportPipeline(seriesStore, eventStore, *outputDir)
		if err := p.Run(ctx, *root); err != nil {
			logger.Fatalf("Report generation failed: %v", err)
		}
		fmt.Printf("\nReport written to %s/:\n", *outputDir)
		fmt.Printf("  - ROLL_REPORT.md\n")
		fmt.Printf("  - continuous_%s_<policy>_<length>.csv per series\n", *root)
		fmt.Printf("  - roll_events.csv\n")
	}
}

// buildConfigs expands the lengths expression into one generic config per
// length, plus the near-roll config when requested.
func buildConfigs(lengths string, nearRoll bool) ([]roll.Config, error) {
	var configs []roll.Config
	for _, n := range parseLengths(lengths) {
		configs = append(configs, roll.Config{Policy: domain.PolicyGeneric, Length: n})
	}
	if nearRoll {
		configs = append(configs, roll.Config{Policy: domain.PolicyNearRoll})
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no series configured from %q", lengths)
	}
	return configs, nil
}

// parseLengths parses "1,3,6" and "1-12" style expressions. Malformed parts
// are skipped.
func parseLengths(expr string) []int {
	seen := make(map[int]bool)
	var result []int

	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			result = append(result, n)
		}
	}

	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			from, err1 := strconv.Atoi(strings.TrimSpace(lo))
			to, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil || from > to {
				continue
			}
			for n := from; n <= to; n++ {
				add(n)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		add(n)
	}
	return result
}

// createStores creates the bar, series, and roll event stores. With migrate
// set it also applies the embedded schema, creating the ClickHouse database
// if needed.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory, migrate bool) (storage.BarStore, storage.SeriesStore, storage.RollEventStore, func(), error) {
	if useMemory {
		return memory.NewBarStore(), memory.NewSeriesStore(), memory.NewRollEventStore(), func() {}, nil
	}

	// PostgreSQL holds the raw bars and the roll audit trail
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if migrate {
		if err := migrations.ApplyPostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, nil, fmt.Errorf("apply postgres schema: %w", err)
		}
	}

	// ClickHouse holds the continuous series
	var conn *chstore.Conn
	if migrate {
		conn, err = bootstrapClickhouse(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, nil, nil, err
		}
	} else {
		conn, err = chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}

	return pgstore.NewBarStore(pool), chstore.NewSeriesStore(conn), pgstore.NewRollEventStore(pool), cleanup, nil
}

// bootstrapClickhouse creates the DSN's database if needed and applies the
// embedded schema, returning a connection to the target database. The target
// may not exist yet, so the DDL runs over a server-default connection first.
func bootstrapClickhouse(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := migrations.DatabaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := admin.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName)); err != nil {
		admin.Close()
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}
	if err := admin.Close(); err != nil {
		return nil, fmt.Errorf("close admin connection: %w", err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.ApplyClickhouse(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply clickhouse schema: %w", err)
	}

	return conn, nil
}

// loadCSVFiles ingests the comma-separated file list into the bar store.
func loadCSVFiles(ctx context.Context, logger *log.Logger, barStore storage.BarStore, csvFiles string, loc *time.Location) error {
	var files []string
	for _, f := range strings.Split(csvFiles, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			files = append(files, f)
		}
	}

	runner := ingest.NewRunner(ingest.RunnerOptions{
		BarStore: barStore,
		Location: loc,
		Logger:   logger,
	})
	_, err := runner.IngestFiles(ctx, files)
	return err
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
