package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"futures-roll-lab/internal/domain"
	"futures-roll-lab/internal/orchestrator"
	"futures-roll-lab/internal/pipeline"
	"futures-roll-lab/internal/roll"
	"futures-roll-lab/internal/storage"
	chstore "futures-roll-lab/internal/storage/clickhouse"
	"futures-roll-lab/internal/storage/memory"
	pgstore "futures-roll-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	root := flag.String("root", "GC", "Contract root to report on")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useFixtures := flag.Bool("use-fixtures", false, "Use in-memory fixtures instead of database")
	flag.Parse()

	ctx := context.Background()

	// Validate flags
	if !*useFixtures && (*postgresDSN == "" || *clickhouseDSN == "") {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn and --clickhouse-dsn are required when not using fixtures")
		fmt.Fprintln(os.Stderr, "Use --use-fixtures to run with demo data instead")
		os.Exit(1)
	}

	// Create stores based on mode
	var (
		seriesStore storage.SeriesStore
		eventStore  storage.RollEventStore
	)

	if *useFixtures {
		seriesStore, eventStore = createFixtureStores(ctx, *root)
	} else {
		var cleanup func()
		var err error
		seriesStore, eventStore, cleanup, err = createDatabaseStores(ctx, *postgresDSN, *clickhouseDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to databases: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
	}

	p := pipeline.NewReportPipeline(seriesStore, eventStore, *outputDir)
	if *useFixtures {
		// Fixed clock keeps fixture output byte-for-byte reproducible
		fixedTime := time.Date(2023, time.December, 4, 12, 0, 0, 0, time.UTC)
		p = p.WithClock(func() time.Time { return fixedTime })
	}

	// Run pipeline
	if err := p.Run(ctx, *root); err != nil {
		fmt.Fprintf(os.Stderr, "Error running pipeline: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Roll report generated successfully:")
	fmt.Printf("  - %s/ROLL_REPORT.md\n", *outputDir)
	fmt.Printf("  - %s/continuous_*.csv (one per series)\n", *outputDir)
	fmt.Printf("  - %s/roll_events.csv\n", *outputDir)
}

// createFixtureStores builds the demo series in memory.
func createFixtureStores(ctx context.Context, root string) (storage.SeriesStore, storage.RollEventStore) {
	barStore := memory.NewBarStore()
	seriesStore := memory.NewSeriesStore()
	eventStore := memory.NewRollEventStore()

	if err := pipeline.LoadFixtures(ctx, barStore); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
		os.Exit(1)
	}

	orch := orchestrator.New(orchestrator.Options{
		BarStore:    barStore,
		SeriesStore: seriesStore,
		EventStore:  eventStore,
		Configs: []roll.Config{
			{Policy: domain.PolicyGeneric, Length: 1},
			{Policy: domain.PolicyNearRoll},
		},
		DaysBeforeExpiry: 3,
	})
	if _, err := orch.Run(ctx, root); err != nil {
		fmt.Fprintf(os.Stderr, "Error building fixture series: %v\n", err)
		os.Exit(1)
	}

	return seriesStore, eventStore
}

// createDatabaseStores connects to PostgreSQL and ClickHouse and creates stores.
func createDatabaseStores(ctx context.Context, postgresDSN, clickhouseDSN string) (storage.SeriesStore, storage.RollEventStore, func(), error) {
	// Connect to PostgreSQL
	pgPool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Connect to ClickHouse
	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pgPool.Close()
		return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pgPool.Close()
	}

	// ClickHouse serves the continuous series; the roll audit trail stays in Postgres
	return chstore.NewSeriesStore(chConn), pgstore.NewRollEventStore(pgPool), cleanup, nil
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
